// Package terminal adapts the drop pipeline to a tcell terminal.
//
// A terminal has no native drag and drop. Dragging files onto a terminal
// window pastes their paths, so PasteCollector turns a bracketed paste
// into a dataxfer.NativeEvent: a paste made only of existing paths and
// URIs becomes a file drop, anything else a text/plain drop.
//
// Screen draws the document, the caret, the progress indicator and the
// candidate picker onto any Canvas (tcell.Screen in the editor). Widths
// are measured per grapheme cluster with uniseg so wide and combined
// characters line up.
package terminal
