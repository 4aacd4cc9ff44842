// Package topic defines hierarchical event topics and wildcard matching.
package topic

import "strings"

// Topic represents a hierarchical event type using dot notation.
// Examples: "drop.started", "config.reloaded".
type Topic string

// Wildcard constants for pattern matching.
const (
	// WildcardSingle matches exactly one segment.
	WildcardSingle = "*"

	// WildcardMulti matches zero or more segments.
	WildcardMulti = "**"

	// Separator is the character used to separate topic segments.
	Separator = "."
)

// String returns the topic as a string.
func (t Topic) String() string {
	return string(t)
}

// Segments returns the topic split by the separator.
func (t Topic) Segments() []string {
	if t == "" {
		return nil
	}
	return strings.Split(string(t), Separator)
}

// IsPattern returns true if the topic contains wildcards.
func (t Topic) IsPattern() bool {
	for _, s := range t.Segments() {
		if s == WildcardSingle || s == WildcardMulti {
			return true
		}
	}
	return false
}

// IsValid returns true if the topic is non-empty and has no empty segments.
func (t Topic) IsValid() bool {
	if t == "" {
		return false
	}
	for _, s := range t.Segments() {
		if s == "" {
			return false
		}
	}
	return true
}

// Matches reports whether the concrete topic t matches pattern.
//
//	"drop.*"  matches "drop.started" but not "drop.a.b"
//	"drop.**" matches "drop", "drop.started" and "drop.a.b"
func (t Topic) Matches(pattern Topic) bool {
	return match(pattern.Segments(), t.Segments())
}

func match(pattern, segs []string) bool {
	for len(pattern) > 0 {
		p := pattern[0]
		if p == WildcardMulti {
			rest := pattern[1:]
			for i := 0; i <= len(segs); i++ {
				if match(rest, segs[i:]) {
					return true
				}
			}
			return false
		}
		if len(segs) == 0 {
			return false
		}
		if p != WildcardSingle && p != segs[0] {
			return false
		}
		pattern, segs = pattern[1:], segs[1:]
	}
	return len(segs) == 0
}
