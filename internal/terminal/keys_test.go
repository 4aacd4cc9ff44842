package terminal

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestKeyAction(t *testing.T) {
	tests := []struct {
		name       string
		key        tcell.Key
		ch         rune
		pickerOpen bool
		want       Action
		wantRune   rune
	}{
		{"rune", tcell.KeyRune, 'x', false, ActionInsert, 'x'},
		{"rune with picker", tcell.KeyRune, 'x', true, ActionInsert, 'x'},
		{"escape", tcell.KeyEscape, 0, true, ActionCancel, 0},
		{"save", tcell.KeyCtrlS, 0, false, ActionSave, 0},
		{"undo", tcell.KeyCtrlZ, 0, true, ActionUndo, 0},
		{"quit", tcell.KeyCtrlQ, 0, false, ActionQuit, 0},
		{"backspace", tcell.KeyBackspace2, 0, false, ActionBackspace, 0},
		{"tab inserts", tcell.KeyTab, 0, false, ActionInsert, '\t'},
		{"tab moves picker", tcell.KeyTab, 0, true, ActionPickerNext, 0},
		{"backtab", tcell.KeyBacktab, 0, true, ActionPickerPrev, 0},
		{"enter newline", tcell.KeyEnter, 0, false, ActionNewline, 0},
		{"enter chooses", tcell.KeyEnter, 0, true, ActionPickerChoose, 0},
		{"up", tcell.KeyUp, 0, false, ActionUp, 0},
		{"up in picker", tcell.KeyUp, 0, true, ActionPickerPrev, 0},
		{"f1", tcell.KeyF1, 0, false, ActionNone, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, r := KeyAction(tcell.NewEventKey(tt.key, tt.ch, tcell.ModNone), tt.pickerOpen)
			if a != tt.want || r != tt.wantRune {
				t.Errorf("KeyAction = %v, %q; want %v, %q", a, r, tt.want, tt.wantRune)
			}
		})
	}
}

func TestActionString(t *testing.T) {
	if got := ActionPickerChoose.String(); got != "picker-choose" {
		t.Errorf("String() = %q", got)
	}
	if got := Action(99).String(); got != "unknown" {
		t.Errorf("String() = %q", got)
	}
}
