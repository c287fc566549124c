// Package unsafer reinterprets Go memory as raw bytes for copying into GPU buffers.
package unsafer

import (
	"unsafe"
)

// SliceToBytes interprets an arbitrary input slice as a byte slice.
//
// Note that the returned slice points to the same underlying data in memory. It
// does not make a copy.
func SliceToBytes[T any](input []T) []byte {
	if len(input) == 0 {
		return nil
	}
	size := int(unsafe.Sizeof(input[0])) * len(input)
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(input))), size)
}

// StructToBytes interprets the memory of *s as a byte slice. Like SliceToBytes it
// does not copy.
func StructToBytes[T any](s *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(s)), unsafe.Sizeof(*s))
}

// SliceBytesToUint32 reinterprets a byte slice as 32-bit words, dropping trailing
// bytes that do not fill a word. SPIR-V code is handed to Vulkan this way.
//
// The data is copied so the result is always 4-byte aligned.
func SliceBytesToUint32(data []byte) []uint32 {
	words := make([]uint32, len(data)/4)
	if len(words) == 0 {
		return words
	}
	copy(SliceToBytes(words), data)
	return words
}
