// internal/input/keymap.go
package input

import (
	"github.com/gdamore/tcell/v2"
)

// Keymap maps special keys to actions.
type Keymap map[tcell.Key]Action

// RuneKeymap maps plain runes to actions.
type RuneKeymap map[rune]Action

// InputProcessor translates tcell events into ActionEvents.
type InputProcessor struct {
	keymap     Keymap
	runeKeymap RuneKeymap
}

// NewInputProcessor creates a processor with default keybindings.
func NewInputProcessor() *InputProcessor {
	p := &InputProcessor{
		keymap:     make(Keymap),
		runeKeymap: make(RuneKeymap),
	}
	p.loadDefaultBindings()
	return p
}

// loadDefaultBindings sets up the initial key mappings.
func (p *InputProcessor) loadDefaultBindings() {
	// --- Simple Keys ---
	p.keymap[tcell.KeyUp] = ActionScrollUp
	p.keymap[tcell.KeyDown] = ActionScrollDown
	p.keymap[tcell.KeyPgUp] = ActionScrollPageUp
	p.keymap[tcell.KeyPgDn] = ActionScrollPageDown
	p.keymap[tcell.KeyHome] = ActionScrollTop
	p.keymap[tcell.KeyEnd] = ActionScrollBottom
	p.keymap[tcell.KeyEscape] = ActionQuit
	p.keymap[tcell.KeyCtrlC] = ActionQuit

	// --- Rune Mappings ---
	p.runeKeymap['q'] = ActionQuit
	p.runeKeymap['k'] = ActionScrollUp
	p.runeKeymap['j'] = ActionScrollDown
	p.runeKeymap['t'] = ActionToggleTheme
	p.runeKeymap['c'] = ActionClear
	p.runeKeymap['r'] = ActionToggleRedirection
	p.runeKeymap['s'] = ActionSyncGet
	p.runeKeymap['g'] = ActionAsyncGet
	p.runeKeymap['y'] = ActionCopy
	p.runeKeymap['e'] = ActionExport
	p.runeKeymap['l'] = ActionReload
}

// Bind maps r to action, replacing any existing binding.
func (p *InputProcessor) Bind(r rune, action Action) {
	p.runeKeymap[r] = action
}

// ProcessRune returns the action bound to a plain rune.
func (p *InputProcessor) ProcessRune(r rune) ActionEvent {
	if action, ok := p.runeKeymap[r]; ok {
		return ActionEvent{Action: action, Rune: r}
	}
	return ActionEvent{Action: ActionUnknown, Rune: r}
}

// ProcessEvent takes a tcell key event and returns the corresponding ActionEvent.
func (p *InputProcessor) ProcessEvent(ev *tcell.EventKey) ActionEvent {
	key := ev.Key()
	mod := ev.Modifiers()

	// Ctrl+letter keys carry the modifier in the key itself.
	if key >= tcell.KeyCtrlA && key <= tcell.KeyCtrlZ {
		mod &^= tcell.ModCtrl
	}

	// 1. Check simple Key mappings
	if mod == tcell.ModNone || mod == tcell.ModShift { // Allow Shift with arrows etc.
		if action, ok := p.keymap[key]; ok {
			return ActionEvent{Action: action}
		}
	}

	// 2. Check Rune mappings (plain runes only, no Ctrl/Alt+rune)
	if key == tcell.KeyRune && (mod == tcell.ModNone || mod == tcell.ModShift) {
		return p.ProcessRune(ev.Rune())
	}

	// 3. No mapping found
	return ActionEvent{Action: ActionUnknown}
}
