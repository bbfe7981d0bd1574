package media_test

import (
	"testing"
	"time"

	"github.com/glizzus/jukebox/internal/media"
)

func durationPtr(d time.Duration) *time.Duration {
	return &d
}

func TestMetadataRepeatable(t *testing.T) {
	tests := []struct {
		name     string
		duration *time.Duration
		want     bool
	}{
		{name: "unknown duration", duration: nil, want: false},
		{name: "short item", duration: durationPtr(3 * time.Minute), want: true},
		{name: "exactly at the limit", duration: durationPtr(600 * time.Second), want: true},
		{name: "over the limit", duration: durationPtr(700 * time.Second), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := media.Metadata{ID: "x", Duration: tt.duration}
			if got := m.Repeatable(); got != tt.want {
				t.Errorf("Repeatable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	for _, kind := range media.Kinds {
		got, err := media.ParseKind(kind.String())
		if err != nil {
			t.Fatalf("ParseKind(%q) returned error: %v", kind, err)
		}
		if got != kind {
			t.Errorf("ParseKind(%q) = %q", kind, got)
		}
	}

	if _, err := media.ParseKind("bandcamp"); err == nil {
		t.Errorf("expected error for unknown kind")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{42 * time.Second, "42s"},
		{3 * time.Minute, "3m"},
		{time.Hour + 5*time.Second, "1h 5s"},
		{2*time.Hour + 3*time.Minute + 4*time.Second, "2h 3m 4s"},
	}

	for _, tt := range tests {
		if got := media.FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
