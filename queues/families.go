package queues

import (
	"cube-navigator/optional"
)

// FamilyIndices holds the indexes of Vulkan queue families needed by the renderer.
type FamilyIndices struct {

	// Graphics is the index of the graphics queue family.
	Graphics optional.Optional[uint32]

	// Present is the index of the queue family used for presenting to the drawing
	// surface.
	Present optional.Optional[uint32]
}

// IsComplete returns true if all families have been set.
func (f *FamilyIndices) IsComplete() bool {
	return f.Graphics.HasValue() && f.Present.HasValue()
}

// Shared reports whether graphics and presentation use the same family, in which case
// swap chain images need no concurrent sharing.
func (f *FamilyIndices) Shared() bool {
	return f.Graphics.Get() == f.Present.Get()
}

// Unique returns the distinct family indexes, graphics first. One queue is created
// per entry.
func (f *FamilyIndices) Unique() []uint32 {
	if f.Shared() {
		return []uint32{f.Graphics.Get()}
	}
	return []uint32{f.Graphics.Get(), f.Present.Get()}
}
