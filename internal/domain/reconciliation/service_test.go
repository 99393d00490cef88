package reconciliation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayledger/internal/core/apperror"
	"stayledger/internal/core/id"
	"stayledger/internal/core/types"
	"stayledger/internal/domain"
	"stayledger/internal/domain/booking"
	"stayledger/internal/domain/expense"
	"stayledger/internal/domain/property"
)

// --- fakes ---

type fakeRecRepo struct {
	recs  map[id.ID]*MonthlyReconciliation
	items map[id.ID][]LineItem

	transitionErr error
}

func newFakeRecRepo() *fakeRecRepo {
	return &fakeRecRepo{
		recs:  make(map[id.ID]*MonthlyReconciliation),
		items: make(map[id.ID][]LineItem),
	}
}

func (f *fakeRecRepo) GetByID(_ context.Context, recID id.ID) (*MonthlyReconciliation, error) {
	rec, ok := f.recs[recID]
	if !ok || rec.DeletionMark {
		return nil, apperror.NewNotFound("reconciliation", recID.String())
	}
	cp := *rec
	cp.Items = append([]LineItem{}, f.items[recID]...)
	return &cp, nil
}

func (f *fakeRecRepo) GetByPropertyMonth(_ context.Context, propertyID id.ID, month time.Time) (*MonthlyReconciliation, error) {
	for _, rec := range f.recs {
		if rec.PropertyID == propertyID && rec.Month.Equal(month) && !rec.DeletionMark {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("reconciliation", month.Format("2006-01"))
}

func (f *fakeRecRepo) Create(_ context.Context, rec *MonthlyReconciliation, items []LineItem) error {
	cp := *rec
	f.recs[rec.ID] = &cp
	f.items[rec.ID] = append([]LineItem{}, items...)
	return nil
}

func (f *fakeRecRepo) SaveItems(_ context.Context, rec *MonthlyReconciliation, items []LineItem) error {
	stored, ok := f.recs[rec.ID]
	if !ok {
		return apperror.NewNotFound("reconciliation", rec.ID.String())
	}
	f.items[rec.ID] = append(f.items[rec.ID], items...)
	*stored = *rec
	stored.Items = nil
	return nil
}

func (f *fakeRecRepo) GetItems(_ context.Context, recID id.ID) ([]LineItem, error) {
	return append([]LineItem{}, f.items[recID]...), nil
}

func (f *fakeRecRepo) ListDueForFinalize(_ context.Context, before time.Time) ([]*MonthlyReconciliation, error) {
	var due []*MonthlyReconciliation
	for _, rec := range f.recs {
		if rec.Status == StatusPreview && rec.Month.Before(before) && !rec.DeletionMark {
			cp := *rec
			due = append(due, &cp)
		}
	}
	return due, nil
}

func (f *fakeRecRepo) TransitionToDraft(_ context.Context, recID id.ID) error {
	if f.transitionErr != nil {
		return f.transitionErr
	}
	rec, ok := f.recs[recID]
	if !ok {
		return apperror.NewNotFound("reconciliation", recID.String())
	}
	if rec.Status != StatusPreview {
		return apperror.NewConcurrentModification("reconciliation", recID.String())
	}
	rec.Status = StatusDraft
	return nil
}

func (f *fakeRecRepo) SetDeletionMark(_ context.Context, recID id.ID, deleted bool) error {
	rec, ok := f.recs[recID]
	if !ok {
		return apperror.NewNotFound("reconciliation", recID.String())
	}
	rec.DeletionMark = deleted
	return nil
}

func (f *fakeRecRepo) List(_ context.Context, filter ListFilter) (domain.ListResult[*MonthlyReconciliation], error) {
	var out []*MonthlyReconciliation
	for _, rec := range f.recs {
		if rec.DeletionMark && !filter.IncludeDeleted {
			continue
		}
		if filter.PropertyID != nil && rec.PropertyID != *filter.PropertyID {
			continue
		}
		if filter.Status != nil && rec.Status != *filter.Status {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	return domain.ListResult[*MonthlyReconciliation]{
		Items:      out,
		TotalCount: int64(len(out)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

type fakePropRepo struct {
	props map[id.ID]*property.Property

	cachedRate types.Money
	cachedFee  types.Money
	cacheCalls int
}

func newFakePropRepo(props ...*property.Property) *fakePropRepo {
	f := &fakePropRepo{props: make(map[id.ID]*property.Property)}
	for _, p := range props {
		f.props[p.ID] = p
	}
	return f
}

func (f *fakePropRepo) GetByID(_ context.Context, propertyID id.ID) (*property.Property, error) {
	p, ok := f.props[propertyID]
	if !ok {
		return nil, apperror.NewNotFound("property", propertyID.String())
	}
	return p, nil
}

func (f *fakePropRepo) List(_ context.Context, filter domain.ListFilter) (domain.ListResult[*property.Property], error) {
	var out []*property.Property
	for _, p := range f.props {
		out = append(out, p)
	}
	return domain.ListResult[*property.Property]{Items: out, TotalCount: int64(len(out))}, nil
}

func (f *fakePropRepo) Create(_ context.Context, p *property.Property) error {
	f.props[p.ID] = p
	return nil
}

func (f *fakePropRepo) UpdateComputedRates(_ context.Context, propertyID id.ID, nightlyRate, orderMinimumFee types.Money) error {
	f.cachedRate = nightlyRate
	f.cachedFee = orderMinimumFee
	f.cacheCalls++
	return nil
}

type fakeBookingReader struct {
	stays  []booking.Record
	leases []booking.MidTerm
	err    error
}

func (f *fakeBookingReader) ShortTermInMonth(_ context.Context, propertyID id.ID, _, _ time.Time) ([]booking.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []booking.Record
	for _, st := range f.stays {
		if st.PropertyID == propertyID {
			out = append(out, st)
		}
	}
	return out, nil
}

func (f *fakeBookingReader) ActiveMidTermOverlapping(_ context.Context, propertyID id.ID, from, to time.Time) ([]booking.MidTerm, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []booking.MidTerm
	for _, mt := range f.leases {
		if mt.PropertyID == propertyID && mt.Active && mt.Overlaps(from, to) {
			out = append(out, mt)
		}
	}
	return out, nil
}

type fakeCostReader struct {
	expenses []expense.Expense
	visits   []expense.Visit
}

func (f *fakeCostReader) ExpensesInMonth(_ context.Context, propertyID id.ID, _, _ time.Time) ([]expense.Expense, error) {
	var out []expense.Expense
	for _, e := range f.expenses {
		if e.PropertyID == propertyID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeCostReader) VisitsInMonth(_ context.Context, propertyID id.ID, _, _ time.Time) ([]expense.Visit, error) {
	var out []expense.Visit
	for _, v := range f.visits {
		if v.PropertyID == propertyID {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeAudit struct {
	entries []string
}

func (f *fakeAudit) Log(_ context.Context, _ string, _ id.ID, action string, _ map[string]any) error {
	f.entries = append(f.entries, action)
	return nil
}

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- fixture ---

type fixture struct {
	svc      *Service
	recs     *fakeRecRepo
	props    *fakePropRepo
	bookings *fakeBookingReader
	costs    *fakeCostReader
	audit    *fakeAudit
	prop     *property.Property
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	prop := property.New("Seaside Cottage", "1 Shore Rd", "Pat Owner", types.MustMoney("0.10"))

	f := &fixture{
		recs:     newFakeRecRepo(),
		props:    newFakePropRepo(prop),
		bookings: &fakeBookingReader{},
		costs:    &fakeCostReader{},
		audit:    &fakeAudit{},
		prop:     prop,
	}
	f.svc = NewService(f.recs, f.props, f.bookings, f.costs,
		OverlapNameMatcher{}, AdditivePolicy{}, f.audit, fakeTxManager{}).
		WithClock(func() time.Time { return day(2026, 5, 15) })
	return f
}

// --- tests ---

func TestService_Create_FullScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// One independent stay, one duplicate of the lease, one full-month lease.
	st := stay(f.prop.ID, "Bob Lee", day(2026, 4, 10), day(2026, 4, 15))
	st.TotalAmount = types.MustMoney("1000.00")
	st.CleaningFee = types.SomeMoney(types.MustMoney("120.00"))

	dup := stay(f.prop.ID, "Maria G", day(2026, 4, 5), day(2026, 4, 12))
	dup.TotalAmount = types.MustMoney("900.00")

	mt := lease(f.prop.ID, "Maria Garcia", day(2026, 1, 1), day(2026, 12, 31))
	mt.MonthlyRent = types.MustMoney("3000.00")

	f.bookings.stays = []booking.Record{st, dup}
	f.bookings.leases = []booking.MidTerm{mt}
	f.costs.expenses = []expense.Expense{
		{ID: id.New(), PropertyID: f.prop.ID, Description: "Plumbing", Category: "maintenance",
			Amount: types.MustMoney("80.00"), Date: day(2026, 4, 20)},
	}
	f.costs.visits = []expense.Visit{
		{ID: id.New(), PropertyID: f.prop.ID, Date: day(2026, 4, 22), Price: types.MustMoney("45.00")},
	}

	rec, err := f.svc.Create(ctx, f.prop.ID, day(2026, 4, 1))
	require.NoError(t, err)

	assert.Equal(t, StatusDraft, rec.Status)
	assert.True(t, rec.ShortTermRevenue.Equal(types.MustMoney("1000.00")), "short term %s", rec.ShortTermRevenue)
	assert.True(t, rec.MidTermRevenue.Equal(types.MustMoney("3000.00")), "mid term %s", rec.MidTermRevenue)
	assert.True(t, rec.TotalRevenue.Equal(types.MustMoney("4000.00")))
	assert.True(t, rec.ManagementFee.Equal(types.MustMoney("400.00")), "fee %s", rec.ManagementFee)

	// Active lease waives the order minimum.
	assert.True(t, rec.OrderMinimumFee.IsZero())

	// Expenses: 120 cleaning pass-through + 80 expense + 45 visit.
	assert.True(t, rec.TotalExpenses.Equal(types.MustMoney("245.00")), "expenses %s", rec.TotalExpenses)
	assert.True(t, rec.VisitFees.Equal(types.MustMoney("45.00")))

	// 4000 - 245 - 400 - 0
	assert.True(t, rec.NetToOwner.Equal(types.MustMoney("3355.00")), "net %s", rec.NetToOwner)

	// booking + cleaning + mid-term + expense + visit + order minimum.
	assert.Len(t, rec.Items, 6)

	// Duplicate stay contributes nothing.
	keys := KeySet(rec.Items)
	_, hasDup := keys[ItemKey{Type: ItemTypeBooking, NaturalID: dup.ID.String()}]
	assert.False(t, hasDup)

	// Zero-valued order minimum entry still recorded.
	var foundOrderMin bool
	for _, li := range rec.Items {
		if li.ItemType == ItemTypeOrderMinimum {
			foundOrderMin = true
			assert.True(t, li.Amount.IsZero())
		}
	}
	assert.True(t, foundOrderMin)

	assert.Equal(t, []string{"created"}, f.audit.entries)
	assert.Equal(t, 1, f.props.cacheCalls)
}

func TestService_Create_NoCosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st := stay(f.prop.ID, "Bob Lee", day(2026, 4, 10), day(2026, 4, 15))
	st.TotalAmount = types.MustMoney("1000.00")
	mt := lease(f.prop.ID, "Maria Garcia", day(2026, 1, 1), day(2026, 12, 31))
	mt.MonthlyRent = types.MustMoney("3000.00")

	f.bookings.stays = []booking.Record{st}
	f.bookings.leases = []booking.MidTerm{mt}

	rec, err := f.svc.Create(ctx, f.prop.ID, day(2026, 4, 1))
	require.NoError(t, err)

	assert.True(t, rec.ShortTermRevenue.Equal(types.MustMoney("1000.00")))
	assert.True(t, rec.MidTermRevenue.Equal(types.MustMoney("3000.00")))
	assert.True(t, rec.TotalRevenue.Equal(types.MustMoney("4000.00")))
	assert.True(t, rec.TotalExpenses.IsZero())
	assert.True(t, rec.OrderMinimumFee.IsZero())
	assert.True(t, rec.ManagementFee.Equal(types.MustMoney("400.00")))
	assert.True(t, rec.NetToOwner.Equal(types.MustMoney("3600.00")), "net %s", rec.NetToOwner)
}

func TestService_Create_Conflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.prop.ID, day(2026, 4, 1))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, f.prop.ID, day(2026, 4, 1))
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
	assert.Equal(t, first.ID.String(), appErr.Details["existing_reconciliation_id"])
	assert.Equal(t, true, appErr.Details["can_delete"])
}

func TestService_Create_FutureMonthRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.prop.ID, day(2026, 6, 1))
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestService_Create_NoActivity(t *testing.T) {
	f := newFixture(t)

	rec, err := f.svc.Create(context.Background(), f.prop.ID, day(2026, 4, 1))
	require.NoError(t, err)

	assert.True(t, rec.TotalRevenue.IsZero())

	// No activity still assesses the lowest order-minimum tier.
	assert.True(t, rec.OrderMinimumFee.Equal(types.MustMoney("250.00")))

	// 0 revenue - 0 expenses - 0 fee - 250 deduction.
	assert.True(t, rec.NetToOwner.Equal(types.MustMoney("-250.00")), "net %s", rec.NetToOwner)
	require.Len(t, rec.Items, 1)
	assert.Equal(t, ItemTypeOrderMinimum, rec.Items[0].ItemType)
}

func TestService_Create_UpstreamFailure(t *testing.T) {
	f := newFixture(t)
	f.bookings.err = assert.AnError

	_, err := f.svc.Create(context.Background(), f.prop.ID, day(2026, 4, 1))
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUpstream, appErr.Code)

	// Nothing persisted, no audit entry.
	assert.Empty(t, f.recs.recs)
	assert.Empty(t, f.audit.entries)
}

func TestService_Finalize_PicksUpLateFacts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st := stay(f.prop.ID, "Bob Lee", day(2026, 4, 10), day(2026, 4, 15))
	st.TotalAmount = types.MustMoney("1000.00")
	f.bookings.stays = []booking.Record{st}

	rec, err := f.svc.Create(ctx, f.prop.ID, day(2026, 4, 1))
	require.NoError(t, err)
	initialItems := len(rec.Items)

	// Simulate a preview awaiting the sweep.
	f.recs.recs[rec.ID].Status = StatusPreview

	// A late expense arrives after the preview was computed.
	f.costs.expenses = []expense.Expense{
		{ID: id.New(), PropertyID: f.prop.ID, Description: "Repairs", Category: "maintenance",
			Amount: types.MustMoney("60.00"), Date: day(2026, 4, 28)},
	}

	finalized, err := f.svc.Finalize(ctx, rec.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusDraft, finalized.Status)
	assert.Len(t, finalized.Items, initialItems+1)
	assert.True(t, finalized.TotalExpenses.Equal(types.MustMoney("60.00")))

	// The stored record transitioned too.
	stored, err := f.svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, stored.Status)
	assert.Len(t, stored.Items, initialItems+1)
}

func TestService_Finalize_UnchangedSourcesAddsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st := stay(f.prop.ID, "Bob Lee", day(2026, 4, 10), day(2026, 4, 15))
	st.TotalAmount = types.MustMoney("1000.00")
	mt := lease(f.prop.ID, "Maria Garcia", day(2026, 1, 1), day(2026, 12, 31))
	f.bookings.stays = []booking.Record{st}
	f.bookings.leases = []booking.MidTerm{mt}
	f.costs.expenses = []expense.Expense{
		{ID: id.New(), PropertyID: f.prop.ID, Description: "Plumbing", Category: "maintenance",
			Amount: types.MustMoney("80.00"), Date: day(2026, 4, 20)},
	}

	rec, err := f.svc.Create(ctx, f.prop.ID, day(2026, 4, 1))
	require.NoError(t, err)
	f.recs.recs[rec.ID].Status = StatusPreview

	// Sources have not changed since the ledger was computed.
	finalized, err := f.svc.Finalize(ctx, rec.ID)
	require.NoError(t, err)

	assert.Len(t, finalized.Items, len(rec.Items))
	assert.True(t, finalized.TotalRevenue.Equal(rec.TotalRevenue))
	assert.True(t, finalized.TotalExpenses.Equal(rec.TotalExpenses))
	assert.True(t, finalized.NetToOwner.Equal(rec.NetToOwner), "net %s vs %s", finalized.NetToOwner, rec.NetToOwner)
}

func TestService_FinalizeDue_SecondSweepIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st := stay(f.prop.ID, "Bob Lee", day(2026, 4, 10), day(2026, 4, 15))
	st.TotalAmount = types.MustMoney("1000.00")
	f.bookings.stays = []booking.Record{st}

	rec, err := f.svc.Create(ctx, f.prop.ID, day(2026, 4, 1))
	require.NoError(t, err)
	f.recs.recs[rec.ID].Status = StatusPreview

	first, err := f.svc.FinalizeDue(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, first.Finalized)

	afterFirst, err := f.svc.Get(ctx, rec.ID)
	require.NoError(t, err)

	second, err := f.svc.FinalizeDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Processed)

	afterSecond, err := f.svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Len(t, afterSecond.Items, len(afterFirst.Items))
	assert.True(t, afterSecond.NetToOwner.Equal(afterFirst.NetToOwner))
	assert.Equal(t, StatusDraft, afterSecond.Status)
}

func TestService_Finalize_NonPreviewRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, f.prop.ID, day(2026, 4, 1))
	require.NoError(t, err)

	_, err = f.svc.Finalize(ctx, rec.ID)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)
}

func TestService_FinalizeDue_Sweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	recMarch, err := f.svc.Create(ctx, f.prop.ID, day(2026, 3, 1))
	require.NoError(t, err)
	recApril, err := f.svc.Create(ctx, f.prop.ID, day(2026, 4, 1))
	require.NoError(t, err)

	f.recs.recs[recMarch.ID].Status = StatusPreview
	f.recs.recs[recApril.ID].Status = StatusPreview

	result, err := f.svc.FinalizeDue(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 2, result.Finalized)
	assert.Equal(t, 0, result.Failed)

	for _, rid := range []id.ID{recMarch.ID, recApril.ID} {
		stored, err := f.svc.Get(ctx, rid)
		require.NoError(t, err)
		assert.Equal(t, StatusDraft, stored.Status)
	}
	assert.Contains(t, f.audit.entries, "auto_finalized")
}

func TestService_FinalizeDue_SkipsConcurrentlyFinalized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, f.prop.ID, day(2026, 4, 1))
	require.NoError(t, err)
	f.recs.recs[rec.ID].Status = StatusPreview
	f.recs.transitionErr = apperror.NewConcurrentModification("reconciliation", rec.ID.String())

	result, err := f.svc.FinalizeDue(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.Finalized)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Failed)
}

func TestService_FinalizeDue_IsolatesFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, f.prop.ID, day(2026, 4, 1))
	require.NoError(t, err)
	f.recs.recs[rec.ID].Status = StatusPreview

	// Booking feed breaks before the sweep runs.
	f.bookings.err = assert.AnError

	result, err := f.svc.FinalizeDue(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Results, 1)
	assert.False(t, result.Results[0].Success)
	assert.NotEmpty(t, result.Results[0].Error)
}

func TestService_FinalizeDue_CurrentMonthNotDue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Clock is 2026-05-15; a May reconciliation must not be swept.
	rec, err := f.svc.Create(ctx, f.prop.ID, day(2026, 5, 1))
	require.NoError(t, err)
	f.recs.recs[rec.ID].Status = StatusPreview

	result, err := f.svc.FinalizeDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)
}

func TestService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, f.prop.ID, day(2026, 4, 1))
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, rec.ID))

	_, err = f.svc.Get(ctx, rec.ID)
	assert.True(t, apperror.IsNotFound(err))
	assert.Contains(t, f.audit.entries, "deleted")
}

func TestService_Delete_PastDraftRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, f.prop.ID, day(2026, 4, 1))
	require.NoError(t, err)
	f.recs.recs[rec.ID].Status = StatusSent

	err = f.svc.Delete(ctx, rec.ID)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodePeriodClosed, appErr.Code)
}

func TestService_Finalize_PastDraftPeriodClosed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, f.prop.ID, day(2026, 4, 1))
	require.NoError(t, err)
	f.recs.recs[rec.ID].Status = StatusPaid

	_, err = f.svc.Finalize(ctx, rec.ID)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodePeriodClosed, appErr.Code)
}

func TestService_Create_SubsumePolicy(t *testing.T) {
	f := newFixture(t)
	f.svc = NewService(f.recs, f.props, f.bookings, f.costs,
		OverlapNameMatcher{}, SubsumePolicy{}, f.audit, fakeTxManager{}).
		WithClock(func() time.Time { return day(2026, 5, 15) })
	ctx := context.Background()

	// 1000 revenue at 10% is a 100 fee; the stay averages 200/night so the
	// tier floor is 400 and wins.
	st := stay(f.prop.ID, "Bob Lee", day(2026, 4, 10), day(2026, 4, 15))
	st.TotalAmount = types.MustMoney("1000.00")
	f.bookings.stays = []booking.Record{st}

	rec, err := f.svc.Create(ctx, f.prop.ID, day(2026, 4, 1))
	require.NoError(t, err)

	// Fee floored at the 400 tier, no separate deduction.
	assert.True(t, rec.ManagementFee.Equal(types.MustMoney("400.00")), "fee %s", rec.ManagementFee)
	assert.True(t, rec.OrderMinimumFee.Equal(types.MustMoney("400.00")))

	// 1000 - 0 - 400 - 0
	assert.True(t, rec.NetToOwner.Equal(types.MustMoney("600.00")), "net %s", rec.NetToOwner)

	var orderMin *LineItem
	for i := range rec.Items {
		if rec.Items[i].ItemType == ItemTypeOrderMinimum {
			orderMin = &rec.Items[i]
		}
	}
	require.NotNil(t, orderMin)
	assert.True(t, orderMin.Amount.IsZero())
}
