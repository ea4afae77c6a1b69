package index

import (
	"encoding/json"
	"testing"
)

func TestNormalizeScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{name: "plain number", raw: `0.8`, want: 0.8},
		{name: "distance object", raw: `{"distance": 0.2}`, want: 0.8},
		{name: "value object", raw: `{"value": 0.8}`, want: 0.8},
		{name: "string number", raw: `"0.8"`, want: 0.8},
		{name: "empty", raw: ``, want: 0},
		{name: "garbage object", raw: `{"something": "else"}`, want: 0},
		{name: "zero", raw: `0`, want: 0},
		{name: "one", raw: `1`, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := normalizeScore(json.RawMessage(tt.raw))
			if got != tt.want {
				t.Errorf("normalizeScore(%s) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}
