package funcgen

import (
	"cmp"
	"slices"

	"github.com/mazrean/funcgen/internal/pkg/collection"
)

// Deduplicate collapses matches of the same declaration observed through
// several units. The first observation is kept, in first-seen order.
func Deduplicate(matches []Match) []Match {
	set := collection.NewOrderedSet[DeclKey, Match](len(matches))
	for _, m := range matches {
		set.Add(m.Key(), m)
	}

	return set.Values()
}

// SortRecords sorts records in registration order: companion, service
// package, declared name, then declaring package.
func SortRecords(records []Record) {
	slices.SortStableFunc(records, func(a, b Record) int {
		return cmp.Or(
			cmp.Compare(a.Companion, b.Companion),
			cmp.Compare(a.ServicePackage, b.ServicePackage),
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.Package, b.Package),
		)
	})
}
