package model

import (
	"strings"
	"time"
)

// Match is stored once per unordered pair with UserA < UserB.
type Match struct {
	ID        string    `json:"id"`
	UserA     string    `json:"user_a"`
	UserB     string    `json:"user_b"`
	CreatedAt time.Time `json:"created_at"`
}

// Counterpart returns the participant that is not userID, or "" when userID is
// not part of the match.
func (m Match) Counterpart(userID string) string {
	switch userID {
	case m.UserA:
		return m.UserB
	case m.UserB:
		return m.UserA
	default:
		return ""
	}
}

// CanonicalPair orders two identifiers so {a,b} and {b,a} produce the same key.
func CanonicalPair(a, b string) (string, string) {
	if strings.Compare(a, b) > 0 {
		return b, a
	}
	return a, b
}

// PairKey renders the canonical pair as "lo|hi" for logs and lookups.
func PairKey(a, b string) string {
	lo, hi := CanonicalPair(a, b)
	return lo + "|" + hi
}

type PairState string

const (
	PairNoDecisions PairState = "no_decisions"
	PairOneSided    PairState = "one_sided"
	PairMatched     PairState = "matched"
)

// MatchWithCounterpart is a registry row joined against the profile directory.
// Counterpart is nil when the other participant has no profile row.
type MatchWithCounterpart struct {
	Match       Match
	Counterpart *ProfileRow
}
