package reconciliation

import (
	"strings"
	"time"

	"stayledger/internal/core/id"
	"stayledger/internal/core/types"
	"stayledger/internal/domain/booking"
	"stayledger/internal/domain/expense"
)

// visitFeeDescriptions are expense descriptions that duplicate the visit
// ledger. Such expenses are skipped so a visit is never charged twice.
var visitFeeDescriptions = []string{
	"visit fee",
	"visit charge",
	"hourly charge",
	"property visit",
}

func isVisitFeeExpense(description string) bool {
	d := strings.ToLower(description)
	for _, marker := range visitFeeDescriptions {
		if strings.Contains(d, marker) {
			return true
		}
	}
	return false
}

// Synthesizer turns source facts into ledger line items, skipping any
// fact whose key is already present. It never mutates or removes existing
// items; re-running it against the same sources is a no-op.
type Synthesizer struct {
	reconciliationID id.ID
	existing         map[ItemKey]struct{}
	items            []LineItem
	now              time.Time
}

// NewSynthesizer prepares an appender for the given reconciliation.
// existing holds the keys of items already persisted.
func NewSynthesizer(reconciliationID id.ID, existing map[ItemKey]struct{}, now time.Time) *Synthesizer {
	if existing == nil {
		existing = make(map[ItemKey]struct{})
	}
	return &Synthesizer{
		reconciliationID: reconciliationID,
		existing:         existing,
		now:              now.UTC(),
	}
}

// Items returns the newly synthesized line items in insertion order.
func (s *Synthesizer) Items() []LineItem {
	return s.items
}

func (s *Synthesizer) add(itemType ItemType, naturalID string, amount types.Money, date time.Time, category string) bool {
	key := ItemKey{Type: itemType, NaturalID: naturalID}
	if _, ok := s.existing[key]; ok {
		return false
	}
	s.existing[key] = struct{}{}
	s.items = append(s.items, LineItem{
		ID:               id.New(),
		ReconciliationID: s.reconciliationID,
		ItemType:         itemType,
		ItemID:           naturalID,
		Amount:           amount,
		Date:             truncateToDay(date),
		Category:         category,
		CreatedAt:        s.now,
	})
	return true
}

// AddBooking records a short-term stay's accommodation revenue, keyed by
// the booking id.
func (s *Synthesizer) AddBooking(st booking.Record) bool {
	return s.add(ItemTypeBooking, st.ID.String(), st.Accommodation(), st.CheckIn, "accommodation")
}

// AddPassThroughFees records the cleaning and pet fees collected from the
// guest and passed through to vendors, as negative entries keyed
// "{booking}_cleaning" and "{booking}_pet". Absent or zero fees emit
// nothing.
func (s *Synthesizer) AddPassThroughFees(st booking.Record) int {
	added := 0
	if st.CleaningFee.Valid && st.CleaningFee.Decimal.IsPositive() {
		if s.add(ItemTypePassThroughFee, st.ID.String()+"_cleaning", st.CleaningFee.Decimal.Neg(), st.CheckIn, "cleaning") {
			added++
		}
	}
	if st.PetFee.Valid && st.PetFee.Decimal.IsPositive() {
		if s.add(ItemTypePassThroughFee, st.ID.String()+"_pet", st.PetFee.Decimal.Neg(), st.CheckIn, "pet") {
			added++
		}
	}
	return added
}

// AddMidTerm records a lease's prorated rent for the month, keyed by the
// lease id and dated at the effective start inside the month.
func (s *Synthesizer) AddMidTerm(mt booking.MidTerm, p Proration) bool {
	return s.add(ItemTypeMidTermBooking, mt.ID.String(), p.Amount, p.EffectiveStart, "rent")
}

// AddExpense records a cost as a negative entry keyed by the expense id.
// Expenses already exported to a statement, and expenses that duplicate
// the visit ledger, are skipped. The amount is normalized to -|amount| so
// a negative feed value never lands in the ledger as revenue.
func (s *Synthesizer) AddExpense(e expense.Expense) bool {
	if e.Exported {
		return false
	}
	if isVisitFeeExpense(e.Description) {
		return false
	}
	category := e.Category
	if category == "" {
		category = "expense"
	}
	return s.add(ItemTypeExpense, e.ID.String(), e.Amount.Abs().Neg(), e.Date, category)
}

// AddVisit records a billable visit as a negative entry keyed by the
// visit id, normalized to -|price|. Visits already billed to a statement
// are skipped.
func (s *Synthesizer) AddVisit(v expense.Visit) bool {
	if v.Billed {
		return false
	}
	return s.add(ItemTypeVisit, v.ID.String(), v.Price.Abs().Neg(), v.Date, "visit")
}

// AddOrderMinimum records the order-minimum deduction, keyed by the
// reconciliation id so exactly one entry exists per reconciliation. The
// entry is emitted even when the deduction is zero so the ledger shows
// the fee was assessed.
func (s *Synthesizer) AddOrderMinimum(month time.Time, deduction types.Money) bool {
	return s.add(ItemTypeOrderMinimum, s.reconciliationID.String(), deduction.Abs().Neg(), month, "order_minimum")
}

// Totals is the summary derived from a reconciliation's full ledger.
type Totals struct {
	ShortTermRevenue types.Money
	MidTermRevenue   types.Money
	TotalRevenue     types.Money
	VisitFees        types.Money
	TotalExpenses    types.Money
	OrderMinimum     types.Money
}

// ComputeTotals derives the summary figures from a full item set. Totals
// are a pure function of the ledger: recomputing them from persisted
// items reproduces the stored record.
func ComputeTotals(items []LineItem) Totals {
	t := Totals{
		ShortTermRevenue: types.Zero(),
		MidTermRevenue:   types.Zero(),
		TotalRevenue:     types.Zero(),
		VisitFees:        types.Zero(),
		TotalExpenses:    types.Zero(),
		OrderMinimum:     types.Zero(),
	}
	for _, li := range items {
		switch li.ItemType {
		case ItemTypeBooking:
			t.ShortTermRevenue = t.ShortTermRevenue.Add(li.Amount)
		case ItemTypeMidTermBooking:
			t.MidTermRevenue = t.MidTermRevenue.Add(li.Amount)
		case ItemTypeVisit:
			t.VisitFees = t.VisitFees.Add(li.Amount.Abs())
			t.TotalExpenses = t.TotalExpenses.Add(li.Amount.Abs())
		case ItemTypeExpense, ItemTypePassThroughFee:
			t.TotalExpenses = t.TotalExpenses.Add(li.Amount.Abs())
		case ItemTypeOrderMinimum:
			t.OrderMinimum = t.OrderMinimum.Add(li.Amount.Abs())
		}
	}
	t.TotalRevenue = t.ShortTermRevenue.Add(t.MidTermRevenue)
	return t
}

// Apply writes the derived totals and fee figures onto the record.
// orderMinimumTier is the assessed tier kept for reporting regardless of
// whether the active policy deducts it separately.
func (t Totals) Apply(rec *MonthlyReconciliation, managementFee, orderMinimumTier types.Money) {
	rec.ShortTermRevenue = t.ShortTermRevenue
	rec.MidTermRevenue = t.MidTermRevenue
	rec.TotalRevenue = t.TotalRevenue
	rec.VisitFees = t.VisitFees
	rec.TotalExpenses = t.TotalExpenses
	rec.ManagementFee = managementFee
	rec.OrderMinimumFee = orderMinimumTier
	rec.NetToOwner = t.TotalRevenue.
		Sub(t.TotalExpenses).
		Sub(managementFee).
		Sub(t.OrderMinimum)
}
