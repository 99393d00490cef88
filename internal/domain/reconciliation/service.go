package reconciliation

import (
	"context"
	"fmt"
	"time"

	"stayledger/internal/core/apperror"
	appctx "stayledger/internal/core/context"
	"stayledger/internal/core/id"
	"stayledger/internal/core/tx"
	"stayledger/internal/core/types"
	"stayledger/internal/domain"
	"stayledger/internal/domain/booking"
	"stayledger/internal/domain/expense"
	"stayledger/internal/domain/property"
	"stayledger/pkg/logger"
)

const auditEntityType = "monthly_reconciliation"

// Service orchestrates reconciliation computation: reading the booking
// and cost feeds, deduplicating, prorating, synthesizing line items and
// assessing fees, then persisting the result atomically.
type Service struct {
	recs     Repository
	props    property.Repository
	bookings booking.Reader
	costs    expense.Reader
	matcher  DuplicateMatcher
	policy   FeePolicy
	audit    AuditLogger
	txm      tx.Manager

	// clock is injectable for tests and for deterministic sweep cutoffs.
	clock func() time.Time
}

// NewService wires the engine's collaborators.
func NewService(
	recs Repository,
	props property.Repository,
	bookings booking.Reader,
	costs expense.Reader,
	matcher DuplicateMatcher,
	policy FeePolicy,
	audit AuditLogger,
	txm tx.Manager,
) *Service {
	return &Service{
		recs:     recs,
		props:    props,
		bookings: bookings,
		costs:    costs,
		matcher:  matcher,
		policy:   policy,
		audit:    audit,
		txm:      txm,
		clock:    time.Now,
	}
}

// WithClock overrides the service clock. Tests use this to pin "now".
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// computation is the outcome of one synthesis pass.
type computation struct {
	newItems []LineItem

	duplicatesExcluded int
	leasesSkipped      int

	avgNightlyRate   types.Money
	hasNightlyRate   bool
	orderMinimumTier types.Money
}

// synthesize reads the source feeds for the record's month, appends the
// missing line items onto the persisted ledger and writes the derived
// totals onto rec. persisted is the already-stored ledger (empty on
// create).
func (s *Service) synthesize(ctx context.Context, rec *MonthlyReconciliation, persisted []LineItem) (*computation, error) {
	monthStart, monthEnd := MonthBounds(rec.Month)

	stays, err := s.bookings.ShortTermInMonth(ctx, rec.PropertyID, monthStart, monthEnd)
	if err != nil {
		return nil, apperror.NewUpstreamUnavailable("short_term_bookings", err)
	}
	leases, err := s.bookings.ActiveMidTermOverlapping(ctx, rec.PropertyID, monthStart, monthEnd)
	if err != nil {
		return nil, apperror.NewUpstreamUnavailable("mid_term_bookings", err)
	}
	expenses, err := s.costs.ExpensesInMonth(ctx, rec.PropertyID, monthStart, monthEnd)
	if err != nil {
		return nil, apperror.NewUpstreamUnavailable("expenses", err)
	}
	visits, err := s.costs.VisitsInMonth(ctx, rec.PropertyID, monthStart, monthEnd)
	if err != nil {
		return nil, apperror.NewUpstreamUnavailable("visits", err)
	}

	kept, excluded := FilterDuplicates(s.matcher, stays, leases)
	for _, st := range excluded {
		logger.Info(ctx, "excluding short-term booking as duplicate of active lease",
			"booking_id", st.ID.String(),
			"guest", st.GuestName,
			"property_id", rec.PropertyID.String(),
		)
	}

	syn := NewSynthesizer(rec.ID, KeySet(persisted), s.clock())

	for _, st := range kept {
		syn.AddBooking(st)
		syn.AddPassThroughFees(st)
	}

	comp := &computation{duplicatesExcluded: len(excluded)}

	for _, mt := range leases {
		p, err := Prorate(mt, monthStart, monthEnd)
		if err != nil {
			comp.leasesSkipped++
			logger.Warn(ctx, "skipping lease with unusable dates",
				"lease_id", mt.ID.String(),
				"error", err.Error(),
			)
			continue
		}
		syn.AddMidTerm(mt, p)
	}

	for _, e := range expenses {
		syn.AddExpense(e)
	}
	for _, v := range visits {
		syn.AddVisit(v)
	}

	comp.avgNightlyRate, comp.hasNightlyRate = AverageNightlyRate(kept)

	// An active lease waives the order minimum for the month.
	if len(leases) > 0 {
		comp.orderMinimumTier = types.Zero()
	} else {
		comp.orderMinimumTier = OrderMinimumTier(comp.avgNightlyRate, comp.hasNightlyRate)
	}

	full := append(append([]LineItem{}, persisted...), syn.Items()...)
	pre := ComputeTotals(full)

	fee, deduction := s.policy.Assess(RevenueTotals{
		ShortTerm: pre.ShortTermRevenue,
		MidTerm:   pre.MidTermRevenue,
		Total:     pre.TotalRevenue,
	}, rec.FeePercent, comp.orderMinimumTier)

	syn.AddOrderMinimum(rec.Month, deduction)

	full = append(append([]LineItem{}, persisted...), syn.Items()...)
	totals := ComputeTotals(full)
	totals.Apply(rec, fee, comp.orderMinimumTier)

	comp.newItems = syn.Items()
	return comp, nil
}

// updatePropertyCache writes computed rates back onto the property.
// Failures are logged, never fatal: the reconciliation is the record of
// truth, the property fields are a convenience cache.
func (s *Service) updatePropertyCache(ctx context.Context, prop *property.Property, comp *computation) {
	rate := prop.NightlyRate
	if comp.hasNightlyRate {
		rate = comp.avgNightlyRate
	}
	if err := s.props.UpdateComputedRates(ctx, prop.ID, rate, comp.orderMinimumTier); err != nil {
		logger.Warn(ctx, "failed to cache computed rates on property",
			"property_id", prop.ID.String(),
			"error", err.Error(),
		)
	}
}

// Create computes and persists a new reconciliation for a property and
// month. The record is created in draft status with its full ledger.
//
// If a non-deleted reconciliation already exists for the pair, a Conflict
// error is returned carrying the existing record's id and whether its
// status still allows deletion.
func (s *Service) Create(ctx context.Context, propertyID id.ID, month time.Time) (*MonthlyReconciliation, error) {
	month = FirstOfMonth(month)

	if month.After(FirstOfMonth(s.clock())) {
		return nil, apperror.NewValidation("cannot reconcile a future month").
			WithDetail("month", month.Format(monthLayout))
	}

	prop, err := s.props.GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	existing, err := s.recs.GetByPropertyMonth(ctx, propertyID, month)
	if err == nil {
		return nil, apperror.NewConflict(
			fmt.Sprintf("reconciliation for %s already exists", month.Format(monthLayout))).
			WithDetail("existing_reconciliation_id", existing.ID.String()).
			WithDetail("status", string(existing.Status)).
			WithDetail("can_delete", existing.Status.Deletable())
	}
	if !apperror.IsNotFound(err) {
		return nil, err
	}

	rec := New(propertyID, month, prop.FeePercent)
	if err := rec.Validate(ctx); err != nil {
		return nil, err
	}
	if user := appctx.GetUserID(ctx); user != "" {
		rec.CreatedBy = user
		rec.UpdatedBy = user
	}

	var comp *computation
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		comp, err = s.synthesize(ctx, rec, nil)
		if err != nil {
			return err
		}
		if err := s.recs.Create(ctx, rec, comp.newItems); err != nil {
			return err
		}
		s.updatePropertyCache(ctx, prop, comp)
		return nil
	})
	if err != nil {
		return nil, err
	}
	rec.Items = comp.newItems

	s.writeAudit(ctx, rec.ID, "created", map[string]any{
		"month":               rec.Month.Format(monthLayout),
		"item_count":          len(comp.newItems),
		"duplicates_excluded": comp.duplicatesExcluded,
		"total_revenue":       rec.TotalRevenue.String(),
		"net_to_owner":        rec.NetToOwner.String(),
	})

	logger.Info(ctx, "reconciliation created",
		"reconciliation_id", rec.ID.String(),
		"property_id", propertyID.String(),
		"month", rec.Month.Format(monthLayout),
		"items", len(comp.newItems),
		"net_to_owner", rec.NetToOwner.String(),
	)
	return rec, nil
}

// Finalize advances a preview reconciliation to draft, re-running
// synthesis first so facts that arrived after the preview was computed
// are picked up. Already-present line items are left untouched.
func (s *Service) Finalize(ctx context.Context, recID id.ID) (*MonthlyReconciliation, error) {
	rec, _, err := s.finalize(ctx, recID, "finalized")
	return rec, err
}

func (s *Service) finalize(ctx context.Context, recID id.ID, action string) (*MonthlyReconciliation, *computation, error) {
	rec, err := s.recs.GetByID(ctx, recID)
	if err != nil {
		return nil, nil, err
	}
	if err := rec.CanModify(); err != nil {
		return nil, nil, err
	}
	if rec.Status != StatusPreview {
		return nil, nil, apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"only preview reconciliations can be finalized").
			WithDetail("reconciliation_id", recID.String()).
			WithDetail("status", string(rec.Status))
	}

	prop, err := s.props.GetByID(ctx, rec.PropertyID)
	if err != nil {
		return nil, nil, err
	}

	var comp *computation
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		comp, err = s.synthesize(ctx, rec, rec.Items)
		if err != nil {
			return err
		}
		if err := s.recs.SaveItems(ctx, rec, comp.newItems); err != nil {
			return err
		}
		// Guarded transition: a concurrent finalize of the same record
		// loses here and the whole transaction rolls back.
		if err := s.recs.TransitionToDraft(ctx, rec.ID); err != nil {
			return err
		}
		s.updatePropertyCache(ctx, prop, comp)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	rec.Status = StatusDraft
	rec.Items = append(rec.Items, comp.newItems...)

	s.writeAudit(ctx, rec.ID, action, map[string]any{
		"month":         rec.Month.Format(monthLayout),
		"new_items":     len(comp.newItems),
		"total_revenue": rec.TotalRevenue.String(),
		"net_to_owner":  rec.NetToOwner.String(),
	})

	logger.Info(ctx, "reconciliation finalized",
		"reconciliation_id", rec.ID.String(),
		"action", action,
		"new_items", len(comp.newItems),
	)
	return rec, comp, nil
}

// FinalizeResult is the per-record outcome of a sweep.
type FinalizeResult struct {
	ReconciliationID id.ID  `json:"reconciliationId"`
	PropertyID       id.ID  `json:"propertyId"`
	Month            string `json:"month"`

	Success bool   `json:"success"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`

	NewItems     int    `json:"newItems"`
	TotalRevenue string `json:"totalRevenue,omitempty"`
	NetToOwner   string `json:"netToOwner,omitempty"`
}

// SweepResult summarizes one finalize sweep.
type SweepResult struct {
	Processed int `json:"processed"`
	Finalized int `json:"finalized"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`

	Results []FinalizeResult `json:"results"`
}

// FinalizeDue finds preview reconciliations for months that have fully
// elapsed and advances each to draft. Records are processed
// independently: one failure is recorded and the sweep moves on. Records
// finalized concurrently by another actor are skipped, not failed.
func (s *Service) FinalizeDue(ctx context.Context) (*SweepResult, error) {
	cutoff := FirstOfMonth(s.clock())

	due, err := s.recs.ListDueForFinalize(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{Results: make([]FinalizeResult, 0, len(due))}
	for _, rec := range due {
		result.Processed++
		fr := s.finalizeOneGuarded(ctx, rec)
		switch {
		case fr.Success:
			result.Finalized++
		case fr.Skipped:
			result.Skipped++
		default:
			result.Failed++
		}
		result.Results = append(result.Results, fr)
	}

	logger.Info(ctx, "finalize sweep completed",
		"processed", result.Processed,
		"finalized", result.Finalized,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}

// finalizeOneGuarded isolates a single record's finalize so a panic or
// error cannot abort the rest of the sweep.
func (s *Service) finalizeOneGuarded(ctx context.Context, rec *MonthlyReconciliation) (fr FinalizeResult) {
	fr = FinalizeResult{
		ReconciliationID: rec.ID,
		PropertyID:       rec.PropertyID,
		Month:            rec.Month.Format(monthLayout),
	}

	defer func() {
		if r := recover(); r != nil {
			fr.Success = false
			fr.Error = fmt.Sprintf("panic: %v", r)
			logger.Error(ctx, "panic finalizing reconciliation",
				"reconciliation_id", rec.ID.String(),
				"panic", fmt.Sprintf("%v", r),
			)
		}
	}()

	finalized, comp, err := s.finalize(ctx, rec.ID, "auto_finalized")
	if err != nil {
		if apperror.IsConcurrentModification(err) {
			fr.Skipped = true
			logger.Info(ctx, "reconciliation finalized elsewhere, skipping",
				"reconciliation_id", rec.ID.String())
			return fr
		}
		fr.Error = err.Error()
		logger.Error(ctx, "failed to finalize reconciliation",
			"reconciliation_id", rec.ID.String(),
			"error", err.Error(),
		)
		return fr
	}

	fr.Success = true
	fr.NewItems = len(comp.newItems)
	fr.TotalRevenue = finalized.TotalRevenue.String()
	fr.NetToOwner = finalized.NetToOwner.String()
	return fr
}

// Get loads a reconciliation with its ledger.
func (s *Service) Get(ctx context.Context, recID id.ID) (*MonthlyReconciliation, error) {
	return s.recs.GetByID(ctx, recID)
}

// List returns reconciliations matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*MonthlyReconciliation], error) {
	return s.recs.List(ctx, filter)
}

// Delete soft-deletes a draft reconciliation. Records past draft belong
// to downstream statement and payment flows and cannot be removed here.
func (s *Service) Delete(ctx context.Context, recID id.ID) error {
	rec, err := s.recs.GetByID(ctx, recID)
	if err != nil {
		return err
	}
	if err := rec.CanModify(); err != nil {
		return err
	}
	if !rec.Status.Deletable() {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"only draft reconciliations can be deleted").
			WithDetail("reconciliation_id", recID.String()).
			WithDetail("status", string(rec.Status))
	}

	if err := s.recs.SetDeletionMark(ctx, recID, true); err != nil {
		return err
	}

	s.writeAudit(ctx, recID, "deleted", map[string]any{
		"month": rec.Month.Format(monthLayout),
	})
	logger.Info(ctx, "reconciliation deleted",
		"reconciliation_id", recID.String(),
		"month", rec.Month.Format(monthLayout),
	)
	return nil
}

// writeAudit records an engine action. Audit failures are logged, never
// propagated: losing an audit row must not fail the business operation.
func (s *Service) writeAudit(ctx context.Context, recID id.ID, action string, details map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(ctx, auditEntityType, recID, action, details); err != nil {
		logger.Warn(ctx, "failed to write audit record",
			"reconciliation_id", recID.String(),
			"action", action,
			"error", err.Error(),
		)
	}
}
