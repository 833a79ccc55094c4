package intake

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrMalformed is returned when a payload cannot be decoded into activities.
var ErrMalformed = errors.New("malformed activity payload")

// Activity is a single activity record as submitted by the caller.
// Times are kept as the submitted text; the estimate package parses them.
type Activity struct {
	Name        string   `json:"name"`
	Optimistic  string   `json:"optimisticTime"`
	MostLikely  string   `json:"mostLikelyTime"`
	Pessimistic string   `json:"pessimisticTime"`
	Precedents  []string `json:"precedents"`
}

// Request is one analysis request: the activity network plus an optional
// deadline used for the completion probability.
type Request struct {
	Activities []Activity `json:"activities"`
	Deadline   *float64   `json:"deadline,omitempty"`
}

// SplitPrecedents parses a comma-separated precedent list ("A, B,,C").
func SplitPrecedents(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return NormalizePrecedents(strings.Split(s, ","))
}

// NormalizePrecedents trims names, drops blanks and removes duplicates while
// keeping the order of first appearance.
func NormalizePrecedents(names []string) []string {
	var out []string
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// CheckDeadline rejects a deadline that is not a finite number.
func CheckDeadline(d *float64) error {
	if d != nil && (math.IsNaN(*d) || math.IsInf(*d, 0)) {
		return fmt.Errorf("%w: deadline %v is not a finite number", ErrMalformed, *d)
	}
	return nil
}

// Fingerprint returns a stable hash of the request contents. Two requests with
// the same fingerprint produce the same analysis.
func (r *Request) Fingerprint() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
