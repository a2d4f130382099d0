package css

import (
	"cmp"
	"slices"
)

// Specificity ranks competing rules. Tiers are compared from the first one,
// higher value wins. Non-zero first tier marks important declarations, the
// engine does not interpret the rest.
type Specificity [5]float64

// TierImportant is index of the tier carrying importance.
const TierImportant = 0

func (s Specificity) Important() bool {
	return s[TierImportant] > 0
}

// Compare returns negative value when s sorts before (ranks higher than) o,
// positive when after and zero on full tie.
func (s Specificity) Compare(o Specificity) int {
	for i := range s {
		if c := cmp.Compare(o[i], s[i]); c != 0 {
			return c
		}
	}
	return 0
}

// SortRules orders rules from highest to lowest specificity. Ties keep their
// relative order.
func SortRules(rules []*Rule) {
	slices.SortStableFunc(rules, func(a, b *Rule) int {
		return a.Specificity.Compare(b.Specificity)
	})
}
