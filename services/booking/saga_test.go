package booking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	balanceRepo "slotbook/database/repository/balance"
	bookingRepo "slotbook/database/repository/booking"
	"slotbook/database/repository/memstore"
	"slotbook/models"
	"slotbook/services/apperr"
	"slotbook/services/balance"

	"go.uber.org/zap"
)

var (
	now       = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	slotStart = time.Date(2025, 6, 2, 13, 0, 0, 0, time.UTC)
	admin     = models.Actor{ID: "admin-1", Role: models.RoleAdmin}
	client    = models.Actor{ID: "c1", Role: models.RoleClient}
)

type failingInserts struct {
	bookingRepo.BookingRepository
}

func (failingInserts) Insert(context.Context, *models.Booking) error {
	return errors.New("insert timed out")
}

// cancellingInserts simulates a client that disconnects while the booking is being stored.
type cancellingInserts struct {
	bookingRepo.BookingRepository
	cancel context.CancelFunc
}

func (c cancellingInserts) Insert(ctx context.Context, _ *models.Booking) error {
	c.cancel()
	return ctx.Err()
}

type failingRefunds struct {
	balanceRepo.BalanceRepository
}

func (f failingRefunds) Credit(ctx context.Context, clientID string, amount float64, kind, ref string) (*models.LedgerEntry, error) {
	if kind == models.EntryRefund {
		return nil, errors.New("ledger unreachable")
	}
	return f.BalanceRepository.Credit(ctx, clientID, amount, kind, ref)
}

type recordingReconciler struct {
	mu      sync.Mutex
	records []models.ReconciliationRecord
	ctxErrs []error
}

func (r *recordingReconciler) RequestReconciliation(ctx context.Context, rec models.ReconciliationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	r.ctxErrs = append(r.ctxErrs, ctx.Err())
	return nil
}

type fixture struct {
	store      *memstore.Store
	ledger     *balance.DefaultBalanceService
	saga       *DefaultBookingSaga
	reconciler *recordingReconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New("usd")
	ledger := &balance.DefaultBalanceService{
		Repo:     store.Balances(),
		Locker:   balance.NewLocalLocker(),
		Currency: "usd",
		Logger:   zap.NewNop(),
	}
	rec := &recordingReconciler{}
	var n int64
	saga := &DefaultBookingSaga{
		Availability: store.Availability(),
		Bookings:     store.Bookings(),
		Ledger:       ledger,
		Pricing:      Pricing{Default: 10, Services: map[string]float64{"Massage": 25, "Consult": 0}},
		Reconciler:   rec,
		Now:          func() time.Time { return now },
		NewID: func() string {
			return fmt.Sprintf("bk-%d", atomic.AddInt64(&n, 1))
		},
		Logger: zap.NewNop(),
	}
	return &fixture{store: store, ledger: ledger, saga: saga, reconciler: rec}
}

func (f *fixture) slot(t *testing.T, id, loc string, start time.Time, capacity int) {
	t.Helper()
	err := f.store.Availability().Create(context.Background(), &models.Availability{
		ID: id, LocationID: loc, Start: start, End: start.Add(30 * time.Minute), Capacity: capacity,
	})
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}
}

func (f *fixture) fund(t *testing.T, clientID string, amount float64) {
	t.Helper()
	if _, err := f.ledger.TopUp(context.Background(), admin, models.TopUpRequest{ClientID: clientID, Amount: amount}); err != nil {
		t.Fatalf("fund: %v", err)
	}
}

func (f *fixture) balanceOf(t *testing.T, clientID string) *models.Balance {
	t.Helper()
	bal, err := f.ledger.Balance(context.Background(), admin, clientID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return bal
}

func rangeAt(loc string, start time.Time, d time.Duration) models.RequestedRange {
	return models.RequestedRange{LocationID: loc, Start: start, End: start.Add(d)}
}

func TestReserveDebitsAndMarksFull(t *testing.T) {
	f := newFixture(t)
	f.slot(t, "a1", "loc-a", slotStart, 1)
	f.fund(t, "c1", 25)

	booking, state, err := f.saga.Reserve(context.Background(), client, "c1", rangeAt("loc-a", slotStart, 30*time.Minute))
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if state != models.StatePersisted || booking.Charge != 10 {
		t.Fatalf("unexpected outcome state=%s booking=%+v", state, booking)
	}
	if bal := f.balanceOf(t, "c1"); bal.Amount != 15 {
		t.Fatalf("expected 15 left, got %.2f", bal.Amount)
	}
	row, _ := f.store.Availability().GetByID(context.Background(), "a1")
	if !row.IsFull || row.Claimed != 1 {
		t.Fatalf("row should be full with one claim, got %+v", row)
	}
}

func TestSecondAttemptOnFullSlotLeavesBalanceAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.slot(t, "a1", "loc-a", slotStart, 1)
	f.fund(t, "c1", 50)
	_ = f.store.Bookings().Insert(ctx, &models.Booking{ClientID: "c0", LocationID: "loc-a", Start: slotStart, End: slotStart.Add(30 * time.Minute)})

	before := f.balanceOf(t, "c1")
	_, state, err := f.saga.Reserve(ctx, client, "c1", rangeAt("loc-a", slotStart, 30*time.Minute))
	if !apperr.Is(err, apperr.SlotUnavailable) {
		t.Fatalf("expected SlotUnavailable, got %v", err)
	}
	if state != models.StatePending {
		t.Fatalf("no step past pending should run, got %s", state)
	}
	after := f.balanceOf(t, "c1")
	if after.Amount != before.Amount || after.Version != before.Version {
		t.Fatalf("balance touched: before %+v after %+v", before, after)
	}
}

func TestInsufficientBalanceBeforeAnyMutation(t *testing.T) {
	f := newFixture(t)
	f.slot(t, "a1", "loc-a", slotStart, 1)
	f.fund(t, "c1", 5)

	_, state, err := f.saga.Reserve(context.Background(), client, "c1", rangeAt("loc-a", slotStart, 30*time.Minute))
	if !apperr.Is(err, apperr.InsufficientBalance) {
		t.Fatalf("expected InsufficientBalance, got %v", err)
	}
	if state != models.StatePending {
		t.Fatalf("unexpected state %s", state)
	}
	if bal := f.balanceOf(t, "c1"); bal.Version != 1 {
		t.Fatalf("ledger mutated: %+v", bal)
	}
	row, _ := f.store.Availability().GetByID(context.Background(), "a1")
	if row.Claimed != 0 {
		t.Fatalf("capacity claimed without a booking: %+v", row)
	}
}

func TestFreeServiceNeedsNoBalance(t *testing.T) {
	f := newFixture(t)
	f.slot(t, "a1", "loc-a", slotStart, 2)

	rng := rangeAt("loc-a", slotStart, 30*time.Minute)
	rng.Service = "consult"
	booking, _, err := f.saga.Reserve(context.Background(), client, "c1", rng)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if booking.Charge != 0 {
		t.Fatalf("expected free booking, got %.2f", booking.Charge)
	}
}

func TestPersistenceFailureRestoresBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.slot(t, "a1", "loc-a", slotStart, 3)
	f.fund(t, "c1", 30)
	f.saga.Bookings = failingInserts{f.store.Bookings()}

	before := f.balanceOf(t, "c1").Amount
	summary, err := f.saga.Book(ctx, client, models.BookingRequest{
		ClientID: "c1",
		Ranges:   []models.RequestedRange{rangeAt("loc-a", slotStart, 30*time.Minute)},
	})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if summary.Failed != 1 || len(summary.Failures) != 1 || summary.Created != 0 {
		t.Fatalf("expected exactly one failure, got %+v", summary)
	}
	failure := summary.Failures[0]
	if failure.Code != string(apperr.PersistenceFailure) || failure.State != models.StateDebitRolledBack {
		t.Fatalf("unexpected failure %+v", failure)
	}
	if after := f.balanceOf(t, "c1").Amount; math.Abs(after-before) > 1e-9 {
		t.Fatalf("balance not restored: before %.2f after %.2f", before, after)
	}
	row, _ := f.store.Availability().GetByID(ctx, "a1")
	if row.Claimed != 0 {
		t.Fatalf("claim not released: %+v", row)
	}
	if len(f.reconciler.records) != 0 {
		t.Fatal("successful refund must not be queued for reconciliation")
	}
}

func TestRefundFailureRequiresReconciliation(t *testing.T) {
	f := newFixture(t)
	f.slot(t, "a1", "loc-a", slotStart, 3)
	f.fund(t, "c1", 30)
	f.saga.Bookings = failingInserts{f.store.Bookings()}
	f.ledger.Repo = failingRefunds{f.ledger.Repo}

	_, state, err := f.saga.Reserve(context.Background(), client, "c1", rangeAt("loc-a", slotStart, 30*time.Minute))
	if !apperr.Is(err, apperr.ReconciliationRequired) {
		t.Fatalf("expected ReconciliationRequired, got %v", err)
	}
	if msg := err.Error(); !strings.Contains(msg, "insert timed out") || !strings.Contains(msg, "ledger unreachable") {
		t.Fatalf("both causes must be surfaced, got %q", msg)
	}
	if state != models.StateDebited {
		t.Fatalf("refund did not happen, state should stay debited, got %s", state)
	}
	if len(f.reconciler.records) != 1 {
		t.Fatalf("expected one reconciliation record, got %d", len(f.reconciler.records))
	}
	rec := f.reconciler.records[0]
	if rec.ClientID != "c1" || rec.Amount != 10 || rec.PersistError == "" || rec.CompensateError == "" {
		t.Fatalf("incomplete reconciliation record %+v", rec)
	}
}

func TestMultiRowRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.slot(t, "a1", "loc-a", slotStart, 1)
	f.slot(t, "a2", "loc-a", slotStart.Add(30*time.Minute), 2)
	f.fund(t, "c1", 10)

	booking, _, err := f.saga.Reserve(ctx, client, "c1", rangeAt("loc-a", slotStart, time.Hour))
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if len(booking.AvailabilityIDs) != 2 || booking.Charge != 10 {
		t.Fatalf("expected one flat charge over two rows, got %+v", booking)
	}
	a1, _ := f.store.Availability().GetByID(ctx, "a1")
	a2, _ := f.store.Availability().GetByID(ctx, "a2")
	if !a1.IsFull || a2.IsFull {
		t.Fatalf("only the capacity-1 row should be full: a1=%v a2=%v", a1.IsFull, a2.IsFull)
	}

	if _, _, err := f.saga.Reserve(ctx, client, "c1", rangeAt("loc-a", slotStart.Add(15*time.Minute), 30*time.Minute)); !apperr.Is(err, apperr.SlotUnavailable) {
		t.Fatalf("misaligned range must be unavailable, got %v", err)
	}
}

func TestBulkPartialSuccess(t *testing.T) {
	f := newFixture(t)
	f.slot(t, "a1", "loc-a", slotStart, 1)
	f.slot(t, "a2", "loc-a", slotStart.Add(30*time.Minute), 1)
	f.fund(t, "c1", 100)

	massage := rangeAt("loc-a", slotStart.Add(30*time.Minute), 30*time.Minute)
	massage.Service = "Massage"
	summary, err := f.saga.Book(context.Background(), client, models.BookingRequest{
		ClientID: "c1",
		Ranges: []models.RequestedRange{
			rangeAt("loc-a", slotStart, 30*time.Minute),
			rangeAt("loc-b", slotStart, 30*time.Minute),
			massage,
			rangeAt("loc-a", slotStart, 30*time.Minute),
		},
	})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if summary.Created != 2 || summary.Failed != 2 || summary.TotalCharged != 35 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	for _, fl := range summary.Failures {
		if fl.Code != string(apperr.SlotUnavailable) {
			t.Fatalf("unexpected failure %+v", fl)
		}
	}
	if bal := f.balanceOf(t, "c1"); bal.Amount != 65 {
		t.Fatalf("expected 65 left, got %.2f", bal.Amount)
	}
}

func TestValidationAndPermissions(t *testing.T) {
	f := newFixture(t)
	f.slot(t, "a1", "loc-a", slotStart, 1)
	ctx := context.Background()

	if _, _, err := f.saga.Reserve(ctx, client, "c2", rangeAt("loc-a", slotStart, 30*time.Minute)); !apperr.Is(err, apperr.PermissionDenied) {
		t.Fatalf("expected permission error, got %v", err)
	}
	if _, _, err := f.saga.Reserve(ctx, client, "c1", rangeAt("loc-a", slotStart, 0)); !apperr.Is(err, apperr.Validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, _, err := f.saga.Reserve(ctx, client, "c1", rangeAt("loc-a", now.Add(-time.Hour), 30*time.Minute)); !apperr.Is(err, apperr.SlotUnavailable) {
		t.Fatalf("past slots are never selectable, got %v", err)
	}
	if _, err := f.saga.Book(ctx, client, models.BookingRequest{ClientID: "c1"}); !apperr.Is(err, apperr.Validation) {
		t.Fatalf("empty bulk request must be rejected, got %v", err)
	}
}

func TestConcurrentReservationsNeverOverbook(t *testing.T) {
	f := newFixture(t)
	f.slot(t, "a1", "loc-a", slotStart, 3)

	const attempts = 12
	for i := 0; i < attempts; i++ {
		f.fund(t, fmt.Sprintf("c%d", i), 10)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("c%d", i)
			_, _, err := f.saga.Reserve(context.Background(), models.Actor{ID: id, Role: models.RoleClient}, id, rangeAt("loc-a", slotStart, 30*time.Minute))
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			} else if !apperr.Is(err, apperr.SlotUnavailable) {
				t.Errorf("client %s: unexpected error %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	if created != 3 {
		t.Fatalf("expected exactly 3 bookings, got %d", created)
	}
	total := 0.0
	for i := 0; i < attempts; i++ {
		total += f.balanceOf(t, fmt.Sprintf("c%d", i)).Amount
	}
	if want := float64(attempts*10 - 3*10); total != want {
		t.Fatalf("losers were not refunded: total %.2f want %.2f", total, want)
	}
}

func TestAbandonedRequestStillRefunds(t *testing.T) {
	for i := 0; i < 50; i++ {
		f := newFixture(t)
		f.slot(t, "a1", "loc-a", slotStart, 3)
		f.fund(t, "c1", 30)

		ctx, cancel := context.WithCancel(context.Background())
		f.saga.Bookings = cancellingInserts{BookingRepository: f.store.Bookings(), cancel: cancel}

		_, state, err := f.saga.Reserve(ctx, client, "c1", rangeAt("loc-a", slotStart, 30*time.Minute))
		cancel()
		if !apperr.Is(err, apperr.PersistenceFailure) || state != models.StateDebitRolledBack {
			t.Fatalf("run %d: expected rolled back persistence failure, got %s %v", i, state, err)
		}
		if bal := f.balanceOf(t, "c1").Amount; bal != 30 {
			t.Fatalf("run %d: debit left unrefunded, balance %.2f", i, bal)
		}
		row, _ := f.store.Availability().GetByID(context.Background(), "a1")
		if row.Claimed != 0 {
			t.Fatalf("run %d: claim leaked: %+v", i, row)
		}
		if len(f.reconciler.records) != 0 {
			t.Fatalf("run %d: refund should not need reconciliation", i)
		}
	}
}

func TestAbandonedRequestReachesReconciler(t *testing.T) {
	f := newFixture(t)
	f.slot(t, "a1", "loc-a", slotStart, 3)
	f.fund(t, "c1", 30)
	f.ledger.Repo = failingRefunds{f.ledger.Repo}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.saga.Bookings = cancellingInserts{BookingRepository: f.store.Bookings(), cancel: cancel}

	_, _, err := f.saga.Reserve(ctx, client, "c1", rangeAt("loc-a", slotStart, 30*time.Minute))
	if !apperr.Is(err, apperr.ReconciliationRequired) {
		t.Fatalf("expected ReconciliationRequired, got %v", err)
	}
	if len(f.reconciler.records) != 1 {
		t.Fatalf("expected one reconciliation record, got %d", len(f.reconciler.records))
	}
	if f.reconciler.ctxErrs[0] != nil {
		t.Fatalf("reconciliation ran on a cancelled context: %v", f.reconciler.ctxErrs[0])
	}
}
