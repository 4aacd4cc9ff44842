package terminal

import "github.com/gdamore/tcell/v2"

// Action is what a key does in the editor.
type Action int

const (
	ActionNone Action = iota
	ActionInsert
	ActionNewline
	ActionBackspace
	ActionDelete
	ActionLeft
	ActionRight
	ActionUp
	ActionDown
	ActionHome
	ActionEnd
	ActionCancel
	ActionPickerNext
	ActionPickerPrev
	ActionPickerChoose
	ActionSave
	ActionUndo
	ActionQuit
)

var actionNames = map[Action]string{
	ActionNone:         "none",
	ActionInsert:       "insert",
	ActionNewline:      "newline",
	ActionBackspace:    "backspace",
	ActionDelete:       "delete",
	ActionLeft:         "left",
	ActionRight:        "right",
	ActionUp:           "up",
	ActionDown:         "down",
	ActionHome:         "home",
	ActionEnd:          "end",
	ActionCancel:       "cancel",
	ActionPickerNext:   "picker-next",
	ActionPickerPrev:   "picker-prev",
	ActionPickerChoose: "picker-choose",
	ActionSave:         "save",
	ActionUndo:         "undo",
	ActionQuit:         "quit",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "unknown"
}

// KeyAction maps a key to an action. Tab, Shift-Tab, Enter and the
// arrow keys drive the picker while it is open.
func KeyAction(ev *tcell.EventKey, pickerOpen bool) (Action, rune) {
	switch ev.Key() {
	case tcell.KeyRune:
		return ActionInsert, ev.Rune()
	case tcell.KeyEscape:
		return ActionCancel, 0
	case tcell.KeyCtrlS:
		return ActionSave, 0
	case tcell.KeyCtrlZ:
		return ActionUndo, 0
	case tcell.KeyCtrlQ, tcell.KeyCtrlC:
		return ActionQuit, 0
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return ActionBackspace, 0
	case tcell.KeyDelete:
		return ActionDelete, 0
	case tcell.KeyLeft:
		return ActionLeft, 0
	case tcell.KeyRight:
		return ActionRight, 0
	case tcell.KeyHome:
		return ActionHome, 0
	case tcell.KeyEnd:
		return ActionEnd, 0
	}

	if pickerOpen {
		switch ev.Key() {
		case tcell.KeyTab, tcell.KeyDown:
			return ActionPickerNext, 0
		case tcell.KeyBacktab, tcell.KeyUp:
			return ActionPickerPrev, 0
		case tcell.KeyEnter:
			return ActionPickerChoose, 0
		}
		return ActionNone, 0
	}

	switch ev.Key() {
	case tcell.KeyTab:
		return ActionInsert, '\t'
	case tcell.KeyEnter:
		return ActionNewline, 0
	case tcell.KeyUp:
		return ActionUp, 0
	case tcell.KeyDown:
		return ActionDown, 0
	}
	return ActionNone, 0
}
