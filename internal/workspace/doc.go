// Package workspace holds the open documents of an editor session and
// applies multi-document edits to them.
//
// A workspace Edit is a list of text edits, each addressed to a document
// URI and optionally pinned to the document version it was computed
// against. BulkEditor applies an Edit atomically: either every document
// changes or none does. Each applied Edit is recorded as a transaction
// that can be undone as one step across all documents it touched.
//
// Basic usage:
//
//	ws := workspace.New()
//	uri, doc, err := ws.OpenFile("README.md")
//
//	var edit workspace.Edit
//	edit.InsertSnippet(uri, doc.Selection().Head, snippet.Snippet("[${1:name}](x)"))
//
//	be := workspace.NewBulkEditor(ws)
//	res, err := be.Apply(ctx, &edit, workspace.ApplyOptions{Label: "drop"})
//	...
//	err = be.Undo(res.TxID)
package workspace
