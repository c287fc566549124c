// Package navigate decides what a click on a scene node does and carries it out.
package navigate

import (
	"fmt"

	"cube-navigator/scene"
)

// Kind is the kind of an Action.
type Kind int

const (
	NoOp Kind = iota
	Navigate
	Inform
)

func (k Kind) String() string {
	switch k {
	case NoOp:
		return "noop"
	case Navigate:
		return "navigate"
	case Inform:
		return "inform"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Action is the outcome of a click. Target is set for Navigate, Message for Inform.
type Action struct {
	Kind    Kind
	Target  string
	Message string
}

func (a Action) String() string {
	switch a.Kind {
	case Navigate:
		return fmt.Sprintf("navigate to %s", a.Target)
	case Inform:
		return fmt.Sprintf("inform %q", a.Message)
	default:
		return a.Kind.String()
	}
}

// Defaults for DefaultPolicy.
const (
	DefaultTargetName  = "cube2"
	DefaultDestination = "../home"
	DefaultMessage     = "Clicking this cube (cube1) doesn't take you anywhere"
)

// Policy maps a picked node to an Action. Only a node named TargetName navigates.
type Policy struct {
	TargetName  string
	Destination string
	Message     string
}

// DefaultPolicy navigates to ../home when cube2 is clicked.
func DefaultPolicy() Policy {
	return Policy{
		TargetName:  DefaultTargetName,
		Destination: DefaultDestination,
		Message:     DefaultMessage,
	}
}

// Decide returns the action for a click on picked, which is nil when nothing was hit.
func (p Policy) Decide(picked *scene.Node) Action {
	if picked == nil {
		return Action{Kind: NoOp}
	}
	if picked.Name == p.TargetName {
		return Action{Kind: Navigate, Target: p.Destination}
	}
	return Action{Kind: Inform, Message: p.Message}
}
