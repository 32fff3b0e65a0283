// Package project computes the environment changes for switching the active
// provider profile. It never touches the process environment itself; callers
// apply the result.
package project

import "github.com/ccenv/ccenv/internal/ccenv/domain"

// Projection is the set of environment changes for one activation. Callers
// must apply Unset before Apply; within each set the order is irrelevant
// (unsetting commutes, and Apply keys are disjoint by the custom-var naming
// rules).
type Projection struct {
	Unset []string
	Apply []domain.EnvVar
}

// Compute derives the projection for switching from prev (nil when no profile
// was active) to next (nil when deactivating).
//
// Unset always covers the full standard set: every profile uses the same
// standard names, and clearing them first guarantees no stale value survives.
// The previous profile's custom names are cleared too, read from its stored
// record rather than the live environment, which may have drifted. Activating
// the profile that is already active contributes no custom unsets.
func Compute(prev, next *domain.ProviderProfile) Projection {
	proj := Projection{Unset: domain.StandardVarNames()}

	if prev != nil && (next == nil || prev.Name != next.Name) {
		for _, v := range prev.CustomVars {
			proj.Unset = append(proj.Unset, v.Name)
		}
	}

	if next != nil {
		proj.Apply = append(proj.Apply, next.StandardVars()...)
		proj.Apply = append(proj.Apply, next.CustomVars...)
	}

	return proj
}
