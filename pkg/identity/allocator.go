// Package identity assigns collision-free identifiers to candidate fields.
//
// Identifiers of the form field_<N> seed a numeric counter; any other
// identifier is still reserved but never used for numbering. Allocation is a
// pure function of the visible field set, so identical input always yields the
// same identifiers.
package identity

import (
	"math"
	"regexp"
	"strconv"

	"github.com/goliatone/go-formprompt/pkg/model"
)

// Prefix is the identifier prefix used for allocated ids.
const Prefix = "field_"

var numberedID = regexp.MustCompile(`^field_(\d+)$`)

// ParseNumber extracts N from an identifier shaped field_<N>.
func ParseNumber(id string) (int, bool) {
	match := numberedID.FindStringSubmatch(id)
	if match == nil {
		return 0, false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// MaxNumber returns the highest N among field_<N> identifiers, or 0.
func MaxNumber(fields []model.Field) int {
	maxN := 0
	for _, field := range fields {
		if n, ok := ParseNumber(field.ID); ok && n > maxN {
			maxN = n
		}
	}
	return maxN
}

// Format renders the identifier for n.
func Format(n int) string {
	return Prefix + strconv.Itoa(n)
}

// Allocate returns copies of candidates whose identifiers do not collide with
// any identifier in existing, nor with each other. Candidates are processed in
// input order: a candidate keeps its own id when it is free, otherwise it is
// assigned field_<maxN+k>. Once the counter reaches math.MaxInt numbering
// restarts at the lowest free field_<N>.
func Allocate(existing, candidates []model.Field) []model.Field {
	if len(candidates) == 0 {
		return nil
	}

	used := model.IDs(existing)
	next := MaxNumber(existing)

	out := make([]model.Field, 0, len(candidates))
	for _, candidate := range candidates {
		field := candidate.Clone()
		if _, taken := used[field.ID]; taken || field.ID == "" {
			for {
				if next == math.MaxInt {
					next = 0
				}
				next++
				id := Format(next)
				if _, clash := used[id]; !clash {
					field.ID = id
					break
				}
			}
		} else if n, ok := ParseNumber(field.ID); ok && n > next {
			next = n
		}
		used[field.ID] = struct{}{}
		out = append(out, field)
	}
	return out
}
