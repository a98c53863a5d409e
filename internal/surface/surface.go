// Package surface defines the renderer surface: something that hosts an HTML
// document and executes scripts against it.
package surface

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPeer means no document is attached to the surface yet.
	ErrNoPeer = errors.New("surface: no document attached")
	// ErrPeerGone means the document went away before answering.
	ErrPeerGone = errors.New("surface: document disconnected")
)

// ResultFunc receives the value a script evaluated to, or the reason it failed.
type ResultFunc func(value any, err error)

// Surface hosts one document and runs scripts in its context.
type Surface interface {
	// Load replaces the hosted document with a complete HTML page.
	Load(document string) error
	// Execute runs script in the document. With a nil onResult the call is
	// fire-and-forget; otherwise onResult is called exactly once, from any
	// goroutine. Implementations keep scripts from one caller in FIFO order.
	Execute(script string, onResult ResultFunc)
}

// ScriptError reports a script the document failed to run.
type ScriptError struct {
	Script string
	Reason string
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script execution failed: %s (script: %s)", e.Reason, abbreviate(e.Script, 80))
}

func abbreviate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// IsTrue reports whether a script result is the boolean true.
func IsTrue(value any) bool {
	b, ok := value.(bool)
	return ok && b
}
