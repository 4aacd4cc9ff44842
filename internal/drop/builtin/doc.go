// Package builtin provides the drop providers that ship with dropin.
//
// Providers:
//   - text: inserts dropped plain text verbatim
//   - path: inserts dropped file paths, absolute or relative to the document
//   - markdown: inserts links or images into markdown documents
//   - resource: inserts reference-style links for resources dragged from
//     another editor window and appends the reference definitions
//
// Register adds all of them to a drop.Registry.
package builtin
