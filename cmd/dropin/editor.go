package main

import (
	"sync/atomic"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/dropin/internal/app"
	"github.com/dshills/dropin/internal/engine"
	"github.com/dshills/dropin/internal/terminal"
)

// editor runs the terminal session for one App.
type editor struct {
	app    *app.App
	screen tcell.Screen
	view   *terminal.Screen
	paste  terminal.PasteCollector

	message   string
	quitArmed bool
	stopping  atomic.Bool
}

func newEditor(a *app.App, screen tcell.Screen) *editor {
	screen.EnablePaste()
	return &editor{
		app:    a,
		screen: screen,
		view:   terminal.NewScreen(screen, terminal.DefaultStyles()),
	}
}

// quit stops run from another goroutine.
func (e *editor) quit() {
	e.stopping.Store(true)
	_ = e.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

func (e *editor) run() error {
	for !e.stopping.Load() {
		e.draw()

		ev := e.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if native, consumed := e.paste.HandleEvent(ev); consumed {
			if native != nil {
				e.app.Drop(e.app.Caret(), native)
			}
			continue
		}

		switch ev := ev.(type) {
		case *tcell.EventResize:
			e.screen.Sync()
		case *tcell.EventKey:
			if e.handleKey(ev) {
				return nil
			}
		}
	}
	return nil
}

func (e *editor) draw() {
	doc := e.app.Document()
	text := doc.Engine.Text()
	x, y := e.view.Draw(terminal.Frame{
		Text:     text,
		Caret:    int(e.app.Caret()),
		Name:     doc.Name,
		Modified: doc.IsModified(),
		Message:  e.message,
		Progress: e.app.Progress().View(),
		Picker:   e.app.Picker().View(),
	})
	e.screen.ShowCursor(x, y)
	e.screen.Show()
}

// handleKey applies one key press and reports whether to quit.
func (e *editor) handleKey(ev *tcell.EventKey) bool {
	picker := e.app.Picker()
	action, r := terminal.KeyAction(ev, picker.Visible())
	if action != terminal.ActionQuit {
		e.quitArmed = false
	}
	if action != terminal.ActionNone {
		e.message = ""
	}

	text := e.app.Document().Engine.Text()
	caret := int(e.app.Caret())

	var err error
	switch action {
	case terminal.ActionInsert:
		err = e.app.Insert(string(r))
	case terminal.ActionNewline:
		err = e.app.Insert("\n")
	case terminal.ActionBackspace:
		err = e.app.Delete(engine.ByteOffset(terminal.PrevBoundary(text, caret)), engine.ByteOffset(caret))
	case terminal.ActionDelete:
		err = e.app.Delete(engine.ByteOffset(caret), engine.ByteOffset(terminal.NextBoundary(text, caret)))
	case terminal.ActionLeft:
		e.moveTo(terminal.PrevBoundary(text, caret))
	case terminal.ActionRight:
		e.moveTo(terminal.NextBoundary(text, caret))
	case terminal.ActionUp, terminal.ActionDown:
		row, col := terminal.Locate(text, caret)
		if action == terminal.ActionUp {
			row--
		} else {
			row++
		}
		if row >= 0 {
			e.moveTo(terminal.Offset(text, row, col))
		}
	case terminal.ActionHome:
		row, _ := terminal.Locate(text, caret)
		e.moveTo(terminal.Offset(text, row, 0))
	case terminal.ActionEnd:
		row, _ := terminal.Locate(text, caret)
		e.moveTo(terminal.Offset(text, row, terminal.DisplayWidth(text)))
	case terminal.ActionPickerNext:
		picker.Next()
	case terminal.ActionPickerPrev:
		picker.Prev()
	case terminal.ActionPickerChoose:
		picker.Choose()
	case terminal.ActionCancel:
		e.app.Cancel()
	case terminal.ActionSave:
		if err = e.app.Save(); err == nil {
			e.message = "saved"
		}
	case terminal.ActionUndo:
		err = e.app.Undo()
	case terminal.ActionQuit:
		if e.app.Document().IsModified() && !e.quitArmed {
			e.quitArmed = true
			e.message = "unsaved changes, quit again to discard"
			return false
		}
		return true
	}
	if err != nil {
		e.message = err.Error()
	}
	return false
}

func (e *editor) moveTo(off int) {
	e.app.SetCaret(engine.ByteOffset(off))
}
