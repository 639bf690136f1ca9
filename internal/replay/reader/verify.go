package reader

import (
	"fmt"

	"github.com/banshee-data/trackreplay/internal/replay/branch"
	"github.com/banshee-data/trackreplay/internal/replay/records"
)

// verify checks cross-branch referential integrity of one bundle: grouping
// ranges tile the primary collection in order, primary ranges stay inside the
// association collection, and labels align one-to-one with primary records.
func verify(set branch.Set, b *records.Bundle) error {
	byRole := make(map[branch.Role]records.NamedCollection, len(b.Collections))
	for i, br := range set.Branches() {
		byRole[br.Role] = b.Collections[i]
	}

	primary := byRole[branch.RolePrimary]
	grouping := byRole[branch.RoleGrouping]
	if err := verifyRanges(b.Entry, grouping, primary, true); err != nil {
		return err
	}

	if assoc, ok := byRole[branch.RoleAssociation]; ok {
		if err := verifyRanges(b.Entry, primary, assoc, false); err != nil {
			return err
		}
	}

	if labels, ok := byRole[branch.RoleLabels]; ok {
		if labels.Collection.Len() != primary.Collection.Len() {
			return fmt.Errorf("%w: entry %d: %s holds %d labels for %d %s records",
				ErrStructure, b.Entry, labels.Name, labels.Collection.Len(), primary.Collection.Len(), primary.Name)
		}
	}
	return nil
}

func verifyRanges(entry int, from, to records.NamedCollection, contiguous bool) error {
	ranged, ok := from.Collection.(records.Ranged)
	if !ok {
		return nil
	}
	n := to.Collection.Len()
	prevEnd := -1
	for i := 0; i < ranged.Len(); i++ {
		r := ranged.RangeAt(i)
		if !r.Within(n) {
			return fmt.Errorf("%w: entry %d: %s[%d] range %s exceeds %s (%d records)",
				ErrStructure, entry, from.Name, i, r, to.Name, n)
		}
		if contiguous && prevEnd >= 0 && r.First != prevEnd {
			return fmt.Errorf("%w: entry %d: %s[%d] range %s does not follow previous end %d",
				ErrStructure, entry, from.Name, i, r, prevEnd)
		}
		prevEnd = r.End()
	}
	return nil
}
