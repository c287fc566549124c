// Package events streams what happens in the viewer (loads, picks, actions, resizes) to
// websocket clients as JSON.
package events

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	TypeLoad      = "load"
	TypeLoadError = "load_error"
	TypePick      = "pick"
	TypeAction    = "action"
	TypeResize    = "resize"
)

// Event is one message of the feed. Only the fields of its Type are set.
type Event struct {
	Type string    `json:"type"`
	Time time.Time `json:"time"`

	Source string   `json:"source,omitempty"`
	Nodes  []string `json:"nodes,omitempty"`
	Error  string   `json:"error,omitempty"`

	X     float64     `json:"x,omitempty"`
	Y     float64     `json:"y,omitempty"`
	Node  string      `json:"node,omitempty"`
	Point *[3]float32 `json:"point,omitempty"`

	Action  string `json:"action,omitempty"`
	Target  string `json:"target,omitempty"`
	Message string `json:"message,omitempty"`

	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// Publisher accepts events. Publish must not block.
type Publisher interface {
	Publish(Event)
}

// Discard drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Event) {}

func Load(source string, nodes []string) Event {
	return Event{Type: TypeLoad, Time: time.Now(), Source: source, Nodes: nodes}
}

func LoadError(source string, err error) Event {
	return Event{Type: TypeLoadError, Time: time.Now(), Source: source, Error: err.Error()}
}

// Pick reports a click at window position (x, y). node is empty and point nil when
// nothing was hit.
func Pick(x, y float64, node string, point *mgl32.Vec3) Event {
	e := Event{Type: TypePick, Time: time.Now(), X: x, Y: y, Node: node}
	if point != nil {
		p := [3]float32(*point)
		e.Point = &p
	}
	return e
}

func Action(kind, target, message string) Event {
	return Event{Type: TypeAction, Time: time.Now(), Action: kind, Target: target, Message: message}
}

func Resize(width, height int) Event {
	return Event{Type: TypeResize, Time: time.Now(), Width: width, Height: height}
}
