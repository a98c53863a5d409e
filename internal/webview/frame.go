package webview

import "encoding/json"

// Frame kinds exchanged with the page over the bridge socket.
const (
	kindExec   = "exec"   // host -> page: evaluate script, reply with a result
	kindResult = "result" // page -> host: value or error of an exec
	kindCall   = "call"   // either way: invoke a method on the other side
)

// frame is the single JSON message shape on the socket. Fields not used by a
// kind are omitted.
type frame struct {
	Kind   string            `json:"kind"`
	ID     uint64            `json:"id,omitempty"`
	Script string            `json:"script,omitempty"`
	Value  json.RawMessage   `json:"value,omitempty"`
	Error  string            `json:"error,omitempty"`
	Object string            `json:"object,omitempty"`
	Method string            `json:"method,omitempty"`
	Args   []json.RawMessage `json:"args,omitempty"`
}

// decodeValue turns a result value into the plain Go value a ResultFunc gets.
func decodeValue(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

func encodeArgs(args []any) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, len(args))
	for i, a := range args {
		b, err := json.Marshal(a)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}
