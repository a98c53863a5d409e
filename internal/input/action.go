// internal/input/action.go
package input

// Action represents an operation triggered from the keyboard.
type Action int

// Define the set of possible actions.
const (
	// --- Meta Actions ---
	ActionUnknown Action = iota // Default/invalid action
	ActionQuit

	// --- Source pane scrolling ---
	ActionScrollUp
	ActionScrollDown
	ActionScrollPageUp
	ActionScrollPageDown
	ActionScrollTop
	ActionScrollBottom

	// --- Preview ---
	ActionToggleTheme
	ActionClear
	ActionToggleRedirection
	ActionSyncGet
	ActionAsyncGet
	ActionCopy
	ActionExport
	ActionReload
)

var actionNames = map[Action]string{
	ActionQuit:              "quit",
	ActionScrollUp:          "scroll up",
	ActionScrollDown:        "scroll down",
	ActionScrollPageUp:      "page up",
	ActionScrollPageDown:    "page down",
	ActionScrollTop:         "top",
	ActionScrollBottom:      "bottom",
	ActionToggleTheme:       "toggle theme",
	ActionClear:             "clear",
	ActionToggleRedirection: "toggle redirection",
	ActionSyncGet:           "sync get",
	ActionAsyncGet:          "async get",
	ActionCopy:              "copy",
	ActionExport:            "export",
	ActionReload:            "reload",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// ActionEvent represents a decoded input event resulting in an action.
type ActionEvent struct {
	Action Action
	Rune   rune // The key that produced the action, for rune bindings
}
