package reconciliation

import (
	"strings"

	"stayledger/internal/domain/booking"
)

// DuplicateMatcher decides whether a short-term booking is a duplicate
// report of an active mid-term lease. Pluggable so the matching rule can
// be tightened without touching the orchestration logic.
type DuplicateMatcher interface {
	IsDuplicate(st booking.Record, mt booking.MidTerm) bool
}

// OverlapNameMatcher is the default matcher: the stay's date range
// overlaps the lease AND either party's first name token appears in the
// other's full name (case-insensitive).
//
// This is a heuristic, not exact identity matching. Channel feeds report
// leases as synthetic stays with approximate dates and abbreviated names,
// so false positives and false negatives are both possible; tightening
// the rule is a product decision, not a bug fix.
type OverlapNameMatcher struct{}

// IsDuplicate implements DuplicateMatcher.
func (OverlapNameMatcher) IsDuplicate(st booking.Record, mt booking.MidTerm) bool {
	if st.PropertyID != mt.PropertyID {
		return false
	}
	if st.CheckIn.After(mt.End) || st.CheckOut.Before(mt.Start) {
		return false
	}
	return namesMatch(st.GuestName, mt.TenantName)
}

// namesMatch checks case-insensitive containment of either name's first
// token in the other full name.
func namesMatch(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(b, firstToken(a)) || strings.Contains(a, firstToken(b))
}

func firstToken(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return name
	}
	return fields[0]
}

// FilterDuplicates partitions short-term bookings into those counted as
// independent revenue and those excluded as duplicate reports of an
// active lease.
func FilterDuplicates(matcher DuplicateMatcher, stays []booking.Record, leases []booking.MidTerm) (kept, excluded []booking.Record) {
	kept = make([]booking.Record, 0, len(stays))
	for _, st := range stays {
		dup := false
		for _, mt := range leases {
			if !mt.Active {
				continue
			}
			if matcher.IsDuplicate(st, mt) {
				dup = true
				break
			}
		}
		if dup {
			excluded = append(excluded, st)
		} else {
			kept = append(kept, st)
		}
	}
	return kept, excluded
}
