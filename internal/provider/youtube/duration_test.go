package youtube_test

import (
	"testing"
	"time"

	"github.com/glizzus/jukebox/internal/provider/youtube"
)

func TestParseDuration(t *testing.T) {
	table := []struct {
		in   string
		want time.Duration
	}{
		{"P12DT22H45M23S", 1118723 * time.Second},
		{"PT17H33M", 63180 * time.Second},
		{"PT3M33S", 213 * time.Second},
		{"PT45S", 45 * time.Second},
		{"P1D", 24 * time.Hour},
		{"PT1H", time.Hour},
	}

	for _, tc := range table {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := youtube.ParseDuration(tc.in)
			if !ok {
				t.Fatalf("ParseDuration(%q) not ok", tc.in)
			}
			if got != tc.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseDurationUnknown(t *testing.T) {
	for _, in := range []string{"", "P0D", "PT0S", "PT", "3M33S", "PT3.5S", "garbage"} {
		if d, ok := youtube.ParseDuration(in); ok {
			t.Errorf("ParseDuration(%q) = %v, want unknown", in, d)
		}
	}
}
