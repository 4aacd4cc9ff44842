package history

import (
	"fmt"

	"github.com/dshills/dropin/internal/engine/buffer"
)

// Applier applies simultaneous edits expressed against the current text.
type Applier interface {
	ApplyEdits(edits []buffer.Edit) ([]buffer.EditResult, error)
}

// Command represents an edit that can be redone and undone.
type Command interface {
	// Execute (re)applies the command.
	Execute(a Applier) error

	// Undo reverses the command.
	Undo(a Applier) error

	// Description returns a human-readable description of the command.
	Description() string
}

// EditCommand records a batch of edits that has already been applied.
type EditCommand struct {
	Label   string
	edits   []buffer.Edit
	results []buffer.EditResult
}

// NewEditCommand creates a command for edits that were applied with the
// given results.
func NewEditCommand(label string, edits []buffer.Edit, results []buffer.EditResult) *EditCommand {
	return &EditCommand{Label: label, edits: edits, results: results}
}

// Execute re-applies the original edits.
func (c *EditCommand) Execute(a Applier) error {
	results, err := a.ApplyEdits(c.edits)
	if err != nil {
		return fmt.Errorf("redo %s: %w", c.Description(), err)
	}
	c.results = results
	return nil
}

// Undo restores the replaced text.
func (c *EditCommand) Undo(a Applier) error {
	inverse := make([]buffer.Edit, len(c.results))
	for i, r := range c.results {
		inverse[i] = buffer.Edit{Range: r.NewRange, NewText: r.OldText}
	}
	if _, err := a.ApplyEdits(inverse); err != nil {
		return fmt.Errorf("undo %s: %w", c.Description(), err)
	}
	return nil
}

// Description returns a human-readable description.
func (c *EditCommand) Description() string {
	if c.Label != "" {
		return c.Label
	}
	if len(c.edits) == 1 {
		return c.edits[0].String()
	}
	return fmt.Sprintf("%d edits", len(c.edits))
}

// CompoundCommand groups commands into a single undo unit.
type CompoundCommand struct {
	Name     string
	Commands []Command
}

// NewCompoundCommand creates a compound command.
func NewCompoundCommand(name string, cmds ...Command) *CompoundCommand {
	return &CompoundCommand{Name: name, Commands: cmds}
}

// Execute runs all commands in order.
func (c *CompoundCommand) Execute(a Applier) error {
	for _, cmd := range c.Commands {
		if err := cmd.Execute(a); err != nil {
			return err
		}
	}
	return nil
}

// Undo undoes all commands in reverse order.
func (c *CompoundCommand) Undo(a Applier) error {
	for i := len(c.Commands) - 1; i >= 0; i-- {
		if err := c.Commands[i].Undo(a); err != nil {
			return err
		}
	}
	return nil
}

// Description returns the group name.
func (c *CompoundCommand) Description() string {
	return c.Name
}
