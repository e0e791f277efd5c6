package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// GradeKind tags the variant held by a Grade.
type GradeKind int

const (
	GradeEmpty            GradeKind = iota // "-" or a blank cell
	GradeJustifiedAbsence                  // AJ
	GradeInsufficient                      // AI
	GradeScore                             // numeric mark
	GradeUnreadable                        // anything else found in a sheet
)

// Sentinel tokens used in sheets and in the persisted snapshot.
const (
	TokenEmpty            = "-"
	TokenJustifiedAbsence = "AJ"
	TokenInsufficient     = "AI"
)

// Grade is a single grade cell. Build values with ParseGrade or the
// constructors; the zero value is an empty cell.
type Grade struct {
	Kind  GradeKind
	Score float64
	Raw   string // source text, kept for display
}

func EmptyGrade() Grade { return Grade{Kind: GradeEmpty} }

func ScoreGrade(v float64) Grade { return Grade{Kind: GradeScore, Score: v} }

// ParseGrade converts a sheet cell into a Grade. It never fails: text that is
// not a sentinel or a number becomes GradeUnreadable. A decimal comma is
// accepted ("7,5" is 7.5).
func ParseGrade(s string) Grade {
	raw := strings.TrimSpace(s)
	if raw == "" || raw == TokenEmpty {
		return EmptyGrade()
	}
	switch strings.ToUpper(raw) {
	case TokenJustifiedAbsence:
		return Grade{Kind: GradeJustifiedAbsence}
	case TokenInsufficient:
		return Grade{Kind: GradeInsufficient}
	}
	v, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Grade{Kind: GradeUnreadable, Raw: raw}
	}
	return Grade{Kind: GradeScore, Score: v, Raw: raw}
}

// IsEmpty reports whether the cell holds no data.
func (g Grade) IsEmpty() bool { return g.Kind == GradeEmpty }

// String returns the token shown in grids, reports and the snapshot.
func (g Grade) String() string {
	switch g.Kind {
	case GradeJustifiedAbsence:
		return TokenJustifiedAbsence
	case GradeInsufficient:
		return TokenInsufficient
	case GradeScore:
		if g.Raw != "" {
			return g.Raw
		}
		return FormatScore(g.Score)
	case GradeUnreadable:
		return g.Raw
	default:
		return TokenEmpty
	}
}

// FormatScore renders a mark without trailing zeros.
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (g Grade) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.String())
}

func (g *Grade) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n json.Number
		if numErr := json.Unmarshal(data, &n); numErr != nil {
			return err
		}
		s = n.String()
	}
	*g = ParseGrade(s)
	return nil
}
