package topic

import "testing"

func TestMatches(t *testing.T) {
	tests := []struct {
		topic   Topic
		pattern Topic
		want    bool
	}{
		{"drop.started", "drop.started", true},
		{"drop.started", "drop.applied", false},
		{"drop.started", "drop.*", true},
		{"drop.a.b", "drop.*", false},
		{"drop.a.b", "drop.**", true},
		{"drop", "drop.**", true},
		{"config.reloaded", "**", true},
		{"config.reloaded", "*.reloaded", true},
		{"config.file.reloaded", "**.reloaded", true},
		{"drop", "drop.*", false},
	}
	for _, tt := range tests {
		if got := tt.topic.Matches(tt.pattern); got != tt.want {
			t.Errorf("%q.Matches(%q) = %v, want %v", tt.topic, tt.pattern, got, tt.want)
		}
	}
}

func TestValidity(t *testing.T) {
	if Topic("").IsValid() || Topic("a..b").IsValid() {
		t.Error("invalid topics reported valid")
	}
	if !Topic("a.b").IsValid() {
		t.Error("a.b reported invalid")
	}
	if !Topic("a.*").IsPattern() || Topic("a.b").IsPattern() {
		t.Error("IsPattern mismatch")
	}
}
