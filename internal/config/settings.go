package config

import (
	"fmt"
	"strings"
	"time"
)

// Setting keys.
const (
	KeyDropEnabled       = "dropIntoEditor.enabled"
	KeyShowDropSelector  = "dropIntoEditor.showDropSelector"
	KeyProgressDelay     = "dropIntoEditor.progressDelay"
	KeyProvidersOrder    = "providers.order"
	KeyProvidersDisabled = "providers.disabled"
	KeyPluginsDir        = "plugins.dir"
	KeyLogLevel          = "log.level"
	KeyLogFile           = "log.file"
)

// Values of KeyShowDropSelector.
const (
	ShowAfterDrop = "afterDrop"
	ShowNever     = "never"
)

type kind int

const (
	kindBool kind = iota
	kindString
	kindDuration
	kindStringSlice
)

type setting struct {
	kind    kind
	def     any
	allowed []string
}

var known = map[string]setting{
	KeyDropEnabled:       {kind: kindBool, def: true},
	KeyShowDropSelector:  {kind: kindString, def: ShowAfterDrop},
	KeyProgressDelay:     {kind: kindDuration, def: "500ms"},
	KeyProvidersOrder:    {kind: kindStringSlice, def: []any{}},
	KeyProvidersDisabled: {kind: kindStringSlice, def: []any{}},
	KeyPluginsDir:        {kind: kindString, def: ""},
	KeyLogLevel:          {kind: kindString, def: "info", allowed: []string{"debug", "info", "warn", "error"}},
	KeyLogFile:           {kind: kindString, def: ""},
}

// validate checks a value against the known setting for key. Unknown
// keys are accepted.
func validate(key string, v any) error {
	s, ok := known[key]
	if !ok {
		return nil
	}
	invalid := func(reason string) error {
		return &ValidationError{Key: key, Value: v, Reason: reason}
	}
	switch s.kind {
	case kindBool:
		if _, ok := v.(bool); !ok {
			return invalid("expected a boolean")
		}
	case kindString:
		str, ok := v.(string)
		if !ok {
			return invalid("expected a string")
		}
		if len(s.allowed) > 0 && !contains(s.allowed, strings.ToLower(str)) {
			return invalid("expected one of " + strings.Join(s.allowed, ", "))
		}
	case kindDuration:
		if _, err := toDuration(v); err != nil {
			return invalid(err.Error())
		}
	case kindStringSlice:
		if _, err := toStringSlice(v); err != nil {
			return invalid(err.Error())
		}
	}
	return nil
}

// DropSettings are the settings of the drop pipeline.
type DropSettings struct {
	Enabled           bool
	ShowDropSelector  string
	ProgressDelay     time.Duration
	ProviderOrder     []string
	DisabledProviders []string
}

// ShowSelectorAfterDrop reports whether the picker opens after a drop
// with several candidates. Any value other than "afterDrop" disables it.
func (s DropSettings) ShowSelectorAfterDrop() bool {
	return s.ShowDropSelector == ShowAfterDrop
}

func toDuration(v any) (time.Duration, error) {
	switch t := v.(type) {
	case time.Duration:
		return t, nil
	case string:
		return time.ParseDuration(t)
	case int:
		return time.Duration(t) * time.Millisecond, nil
	case int64:
		return time.Duration(t) * time.Millisecond, nil
	case float64:
		return time.Duration(t * float64(time.Millisecond)), nil
	default:
		return 0, fmt.Errorf("expected a duration, got %T", v)
	}
}

func toStringSlice(v any) ([]string, error) {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...), nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected a list of strings, got %T element", item)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		var out []string
		for _, s := range strings.Split(t, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list of strings, got %T", v)
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
