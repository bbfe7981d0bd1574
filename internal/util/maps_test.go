package util_test

import (
	"testing"

	"github.com/glizzus/jukebox/internal/util"
)

func TestMaxBy(t *testing.T) {
	type thumb struct{ w, h int }
	area := func(t thumb) int { return t.w * t.h }

	tc := []struct {
		name  string
		input map[string]thumb
		want  thumb
		found bool
	}{
		{
			name:  "largest area wins",
			input: map[string]thumb{"default": {120, 90}, "high": {480, 360}, "medium": {320, 180}},
			want:  thumb{480, 360},
			found: true,
		},
		{
			name:  "tie resolved by key",
			input: map[string]thumb{"b": {2, 2}, "a": {4, 1}},
			want:  thumb{4, 1},
			found: true,
		},
		{
			name:  "empty map",
			input: map[string]thumb{},
			found: false,
		},
	}

	for _, test := range tc {
		t.Run(test.name, func(t *testing.T) {
			got, found := util.MaxBy(test.input, area)
			if found != test.found {
				t.Fatalf("expected found=%v, got %v", test.found, found)
			}
			if got != test.want {
				t.Errorf("expected %v, got %v", test.want, got)
			}
		})
	}
}
