// Package bridge implements the script bridge: a host object the document can
// call into, carried over a Channel that is separate from script execution.
package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/bethropolis/hubmark/internal/logger"
)

// ObjectName is the name the markdown object is registered under.
const ObjectName = "markdownBridge"

// Inbound methods, called by the document.
const (
	MethodSetMarkdownText     = "setMarkdownText"
	MethodRequestMarkdownText = "requestMarkdownText"
	MethodRendererReady       = "rendererReady"
)

// DocumentGetMarkdownText is the document function that pushes its text back.
const DocumentGetMarkdownText = "getMarkdownText"

// ErrUnknownMethod is returned for calls the object does not expose.
var ErrUnknownMethod = errors.New("bridge: unknown method")

// Handler receives calls addressed to a registered host object.
type Handler interface {
	Call(method string, args []json.RawMessage) error
}

// Channel carries calls between host objects and the document.
type Channel interface {
	// Register exposes h to the document under object.
	Register(object string, h Handler)
	// Invoke calls a document-side function. It does not wait for the document.
	Invoke(method string, args ...any) error
}

// Markdown is the host object mirroring the document's text. Its text is only
// ever written by inbound setMarkdownText calls.
type Markdown struct {
	channel Channel

	mu      sync.Mutex
	text    string
	waiters map[string]func(text string)
	onReady func()
}

// NewMarkdown creates the object and registers it on ch.
func NewMarkdown(ch Channel) *Markdown {
	m := &Markdown{
		channel: ch,
		waiters: make(map[string]func(string)),
	}
	ch.Register(ObjectName, m)
	return m
}

// Text returns the last text pushed by the document.
func (m *Markdown) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

// OnReady installs the handler for the document's one-shot ready notification.
func (m *Markdown) OnReady(fn func()) {
	m.mu.Lock()
	m.onReady = fn
	m.mu.Unlock()
}

// SetMarkdownText overwrites the cached text. A non-empty requestID resolves
// the matching pending request, if it is still waiting.
func (m *Markdown) SetMarkdownText(text, requestID string) {
	m.mu.Lock()
	m.text = text
	var ack func(string)
	if requestID != "" {
		ack = m.waiters[requestID]
		delete(m.waiters, requestID)
	}
	m.mu.Unlock()

	logger.DebugTagf("bridge", "setMarkdownText: %d bytes (request %q)", len(text), requestID)
	if ack != nil {
		ack(text)
	}
}

// RequestMarkdownText asks the document to push its text. When ack is non-nil
// it is called once if the document answers with the same requestID.
func (m *Markdown) RequestMarkdownText(requestID string, ack func(text string)) error {
	if ack != nil && requestID != "" {
		m.mu.Lock()
		m.waiters[requestID] = ack
		m.mu.Unlock()
	}
	if err := m.channel.Invoke(DocumentGetMarkdownText, requestID); err != nil {
		m.CancelRequest(requestID)
		return fmt.Errorf("request markdown text: %w", err)
	}
	return nil
}

// CancelRequest forgets a pending request. Later answers only update the text.
func (m *Markdown) CancelRequest(requestID string) {
	m.mu.Lock()
	delete(m.waiters, requestID)
	m.mu.Unlock()
}

// Pending reports how many requests are still waiting for an answer.
func (m *Markdown) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.waiters)
}

// Call implements Handler.
func (m *Markdown) Call(method string, args []json.RawMessage) error {
	switch method {
	case MethodSetMarkdownText:
		if len(args) == 0 {
			return fmt.Errorf("bridge: %s needs a text argument", method)
		}
		var text string
		if err := json.Unmarshal(args[0], &text); err != nil {
			return fmt.Errorf("bridge: %s text: %w", method, err)
		}
		m.SetMarkdownText(text, optionalString(args, 1))
		return nil

	case MethodRequestMarkdownText:
		return m.RequestMarkdownText(optionalString(args, 0), nil)

	case MethodRendererReady:
		m.mu.Lock()
		fn := m.onReady
		m.mu.Unlock()
		if fn != nil {
			fn()
		}
		return nil
	}
	return fmt.Errorf("%w: %s.%s", ErrUnknownMethod, ObjectName, method)
}

// optionalString decodes args[i] as a string, treating absence and null as "".
func optionalString(args []json.RawMessage, i int) string {
	if i >= len(args) {
		return ""
	}
	var s *string
	if err := json.Unmarshal(args[i], &s); err != nil || s == nil {
		return ""
	}
	return *s
}
