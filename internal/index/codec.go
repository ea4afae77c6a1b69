package index

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// errEmptyProbe signals that the embedder returned no usable vector for the
// dimensionality probe.
var errEmptyProbe = errors.New("index: dimension probe returned an empty vector")

// restHit is one entry of the REST search response's "result" array.
// The score field's shape varies across Qdrant versions, so it is kept raw
// and normalized by normalizeScore.
type restHit struct {
	Score   json.RawMessage `json:"score"`
	Payload map[string]any  `json:"payload"`
}

// structuredScore covers the object-shaped score variants some Qdrant
// versions return instead of a plain number.
type structuredScore struct {
	Distance *float64 `json:"distance"`
	Value    *float64 `json:"value"`
}

// normalizeScore converts the raw REST score field into a cosine similarity.
//
//   - plain number: used directly as similarity
//   - {"distance": d}: similarity = 1 - d
//   - {"value": v}: used directly
//   - anything else: best-effort numeric coercion, 0 when hopeless
//
// This is the only place in the repository that knows about the score shape
// ambiguity; Hit.Score is always a plain similarity.
func normalizeScore(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}

	var plain float64
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}

	var structured structuredScore
	if err := json.Unmarshal(raw, &structured); err == nil {
		switch {
		case structured.Distance != nil:
			return 1 - *structured.Distance
		case structured.Value != nil:
			return *structured.Value
		}
	}

	// Last resort: a number serialized as a string.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return v
		}
	}

	return 0
}
