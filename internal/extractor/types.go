package extractor

import "strings"

// PatternType is the closed taxonomy of transformation patterns. Anything the
// model returns outside this set is dropped.
type PatternType string

const (
	PatternInsight          PatternType = "insight"
	PatternReframe          PatternType = "reframe"
	PatternSomaticShift     PatternType = "somatic_shift"
	PatternRelationalRepair PatternType = "relational_repair"
	PatternBoundarySetting  PatternType = "boundary_setting"
	PatternIntegration      PatternType = "integration"
)

func (p PatternType) Valid() bool {
	switch p {
	case PatternInsight, PatternReframe, PatternSomaticShift,
		PatternRelationalRepair, PatternBoundarySetting, PatternIntegration:
		return true
	}
	return false
}

// TransformationPattern is one discrete, classified observation from a
// de-identified session. SessionRef is a back-reference only; the pattern
// outlives the session record it came from.
type TransformationPattern struct {
	PatternType PatternType `json:"pattern_type"`
	Confidence  float64     `json:"confidence"`
	Description string      `json:"description"`
	SessionRef  string      `json:"session_ref"`
}

// DedupKey identifies near-duplicate patterns: same type, same normalized
// description. The wisdom library and the in-session filter share this key.
func (p TransformationPattern) DedupKey() string {
	return string(p.PatternType) + "|" + NormalizeDescription(p.Description)
}

// NormalizeDescription lowercases, strips punctuation, and collapses
// whitespace so trivially reworded duplicates collapse to one key.
func NormalizeDescription(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}
