package criteria

import (
	"fmt"

	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
)

// narrowing tracks the cooking method options while filters are applied
type narrowing struct {
	options []string
	trail   []string
}

func (n *narrowing) note(entry string) {
	n.trail = append(n.trail, entry)
}

// apply intersects the options with allowed. Missing data and intersections
// that would leave nothing are recorded but not applied.
func (n *narrowing) apply(filter string, allowed []string) {
	if len(allowed) == 0 {
		n.note(fmt.Sprintf("Filter by %s skipped: no compatible methods on record", filter))
		return
	}

	next := intersect(n.options, allowed)
	if len(next) == 0 {
		n.note(fmt.Sprintf("Filter by %s not applied: it would leave no cooking methods (%d kept)", filter, len(n.options)))
		return
	}

	n.note(fmt.Sprintf("Filter by %s: %d -> %d cooking methods", filter, len(n.options), len(next)))
	n.options = next
}

// intersect keeps the members of current found in allowed, in current's order
func intersect(current, allowed []string) []string {
	set := keySet(allowed)
	out := make([]string, 0, len(current))
	for _, v := range current {
		if _, ok := set[dietary.NormalizeName(v)]; ok {
			out = append(out, v)
		}
	}
	return out
}
