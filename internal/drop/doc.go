// Package drop turns content dropped onto an editor surface into a text
// edit.
//
// A drop runs as an Operation owned by a Controller:
//
//  1. The previous operation is canceled and its progress cleared.
//  2. The native payload is normalized into a dataxfer.DataTransfer.
//  3. Providers registered for the document whose mime filter matches
//     the payload run concurrently; their candidates are concatenated in
//     provider order.
//  4. A Reconciler applies the first candidate through the bulk editor.
//     When several candidates exist and the picker is enabled, it shows
//     the alternatives and swaps the applied edit on selection.
//
// Operations are cooperative: cancellation is observed after extraction,
// after provider resolution, and before applying. Editing the document
// or moving its selection while providers run cancels the operation.
// An edit that already landed is never rolled back by cancellation.
package drop
