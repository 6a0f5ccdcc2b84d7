package migration

import (
	"strconv"
	"strings"
)

// Step is one versioned upgrade unit: a stateless, single-purpose schema
// delta executed exactly once per database. The framework does not guarantee
// idempotence; the runner tracks applied state and never re-runs a completed
// step.
type Step interface {
	Name() string
	Version() string
	Migrate(ctx *Context) error
}

// State tracks a step through one migration run.
type State string

const (
	StatePending State = "pending"
	StateRunning State = "running"
	StateApplied State = "applied"
	StateFailed  State = "failed"
)

// compareVersions orders dotted version strings numerically per segment,
// falling back to string comparison for non-numeric segments.
func compareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")

	for i := 0; i < len(as) || i < len(bs); i++ {
		var av, bv string
		if i < len(as) {
			av = as[i]
		}
		if i < len(bs) {
			bv = bs[i]
		}

		an, aerr := strconv.Atoi(av)
		bn, berr := strconv.Atoi(bv)
		if aerr == nil && berr == nil {
			if an != bn {
				if an < bn {
					return -1
				}
				return 1
			}
			continue
		}
		if av != bv {
			return strings.Compare(av, bv)
		}
	}
	return 0
}
