package navigate

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"github.com/pkg/browser"
)

// Navigator opens a resolved destination.
type Navigator interface {
	Navigate(ctx context.Context, target string) error
}

// Notifier shows a message to the user without waiting for them.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, target string) error

func (f NavigatorFunc) Navigate(ctx context.Context, target string) error {
	return f(ctx, target)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, message string) error

func (f NotifierFunc) Notify(ctx context.Context, message string) error {
	return f(ctx, message)
}

// Executor carries out actions. Destinations are resolved against Base, the address of
// the page the scene stands in for.
type Executor struct {
	Base      *url.URL
	Navigator Navigator
	Notifier  Notifier

	// AfterNavigate runs once a navigation succeeded, e.g. to close the window.
	AfterNavigate func()
}

// NewExecutor returns an executor that resolves destinations against pageURL.
func NewExecutor(pageURL string, nav Navigator, notifier Notifier) (*Executor, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing page url: %w", err)
	}
	return &Executor{Base: base, Navigator: nav, Notifier: notifier}, nil
}

// Resolve turns a destination into an absolute address.
func (e *Executor) Resolve(target string) (string, error) {
	ref, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parsing destination %q: %w", target, err)
	}
	if e.Base == nil {
		return ref.String(), nil
	}
	return e.Base.ResolveReference(ref).String(), nil
}

// Execute performs the side effect of a. NoOp does nothing.
func (e *Executor) Execute(ctx context.Context, a Action) error {
	switch a.Kind {
	case NoOp:
		return nil

	case Navigate:
		if e.Navigator == nil {
			return fmt.Errorf("navigate to %s: no navigator", a.Target)
		}
		target, err := e.Resolve(a.Target)
		if err != nil {
			return err
		}
		if err := e.Navigator.Navigate(ctx, target); err != nil {
			return fmt.Errorf("navigate to %s: %w", target, err)
		}
		if e.AfterNavigate != nil {
			e.AfterNavigate()
		}
		return nil

	case Inform:
		if e.Notifier == nil {
			return nil
		}
		if err := e.Notifier.Notify(ctx, a.Message); err != nil {
			return fmt.Errorf("notify: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("unknown action kind %s", a.Kind)
	}
}

// BrowserNavigator opens destinations in the system web browser.
type BrowserNavigator struct {
	Logger *log.Logger
}

func (b BrowserNavigator) Navigate(ctx context.Context, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger(b.Logger).Printf("Opening %s", target)
	return browser.OpenURL(target)
}

// TitleSetter is the part of a window a LogNotifier writes to.
type TitleSetter interface {
	SetTitle(title string)
}

// LogNotifier logs messages and, when Window is set, shows them in the window title
// next to Title.
type LogNotifier struct {
	Logger *log.Logger
	Window TitleSetter
	Title  string
}

func (n LogNotifier) Notify(_ context.Context, message string) error {
	logger(n.Logger).Print(message)
	if n.Window != nil {
		if n.Title == "" {
			n.Window.SetTitle(message)
		} else {
			n.Window.SetTitle(n.Title + " - " + message)
		}
	}
	return nil
}

func logger(l *log.Logger) *log.Logger {
	if l == nil {
		return log.Default()
	}
	return l
}
