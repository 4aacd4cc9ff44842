// Package lua runs drop providers written in Lua.
//
// A Host owns one sandboxed gopher-lua state. Scripts register providers
// through the dropin module:
//
//	dropin.register_provider{
//	  id = "todo",
//	  mimes = {"text/plain"},
//	  documents = {".md"},      -- optional extension filter
//	  priority = 5,             -- optional
//	  provide = function(drop)
//	    return {{text = "- [ ] " .. drop.text, label = "Insert Todo"}}
//	  end,
//	}
//
// The drop table passed to provide carries uri, ext, position, text (the
// text/plain payload), uris (the text/uri-list entries), and items (every
// string entry keyed by lower-cased mime type). Each returned candidate
// may set text, snippet (text is snippet source when true), label, and
// edits: further replacements applied with the insertion as one step.
//
//	edits = {
//	  {from = 0, text = "# "},                    -- insert into the target document
//	  {path = "/notes/index.md", from = 0, to = 4, text = "seen"},
//	}
//
// An edit without uri or path targets the document dropped onto.
//
// The state is shared by every provider of a host, so calls into Lua are
// serialized. The context of a drop is installed on the state for the
// duration of a call, so canceling the drop stops the script.
package lua
