package balance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"slotbook/database/repository/memstore"
	"slotbook/models"
	"slotbook/services/apperr"

	"go.uber.org/zap"
)

var (
	admin  = models.Actor{ID: "admin-1", Role: models.RoleAdmin}
	client = models.Actor{ID: "c1", Role: models.RoleClient}
)

type fakeCharger struct {
	err error
}

func (f fakeCharger) Charge(_ context.Context, _ string, req models.CardTopUpRequest, currency string) (*models.CardCharge, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.CardCharge{PaymentID: "pi_123", Amount: req.Amount, Currency: currency, Status: "succeeded"}, nil
}

func newTestService() *DefaultBalanceService {
	return &DefaultBalanceService{
		Repo:     memstore.New("usd").Balances(),
		Locker:   NewLocalLocker(),
		Charger:  fakeCharger{},
		Currency: "usd",
		Logger:   zap.NewNop(),
	}
}

func TestDebitNeverGoesNegative(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	if _, err := s.Debit(ctx, "c1", 5, "b1"); !apperr.Is(err, apperr.InsufficientBalance) {
		t.Fatalf("client without balance: expected insufficient balance, got %v", err)
	}
	if _, err := s.TopUp(ctx, admin, models.TopUpRequest{ClientID: "c1", Amount: 10}); err != nil {
		t.Fatalf("TopUp: %v", err)
	}
	if _, err := s.Debit(ctx, "c1", 10.01, "b1"); !apperr.Is(err, apperr.InsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	entry, err := s.Debit(ctx, "c1", 10, "b1")
	if err != nil {
		t.Fatalf("Debit: %v", err)
	}
	if entry.BalanceAfter != 0 || entry.Seq != 2 || entry.Kind != models.EntryDebit {
		t.Fatalf("unexpected entry %+v", entry)
	}
}

func TestRefundRestoresBalanceAndExtendsLedger(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	_, _ = s.TopUp(ctx, admin, models.TopUpRequest{ClientID: "c1", Amount: 20})
	_, _ = s.Debit(ctx, "c1", 7.5, "b1")

	if _, err := s.Refund(ctx, "c1", 7.5, "b1"); err != nil {
		t.Fatalf("Refund: %v", err)
	}
	bal, err := s.Balance(ctx, client, "c1")
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if bal.Amount != 20 || bal.Version != 3 {
		t.Fatalf("expected 20 at version 3, got %+v", bal)
	}

	entries, _ := s.Entries(ctx, client, "c1", 0)
	if len(entries) != 3 {
		t.Fatalf("expected 3 ledger entries, got %d", len(entries))
	}
	for i, e := range entries {
		if want := int64(3 - i); e.Seq != want {
			t.Fatalf("entry %d has seq %d, want %d", i, e.Seq, want)
		}
	}
	if entries[0].Kind != models.EntryRefund {
		t.Fatalf("latest entry should be the refund, got %s", entries[0].Kind)
	}
}

func TestConcurrentDebitsAndTopUpsLoseNothing(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	_, _ = s.TopUp(ctx, admin, models.TopUpRequest{ClientID: "c1", Amount: 100})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.Debit(ctx, "c1", 1, "d")
		}()
		go func() {
			defer wg.Done()
			_, _ = s.TopUp(ctx, admin, models.TopUpRequest{ClientID: "c1", Amount: 1})
		}()
	}
	wg.Wait()

	bal, _ := s.Balance(ctx, admin, "c1")
	if bal.Amount != 100 || bal.Version != 101 {
		t.Fatalf("expected 100 at version 101, got %+v", bal)
	}
}

func TestPermissions(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	if _, err := s.TopUp(ctx, client, models.TopUpRequest{ClientID: "c1", Amount: 5}); !apperr.Is(err, apperr.PermissionDenied) {
		t.Fatalf("clients must not top up directly, got %v", err)
	}
	if _, err := s.Balance(ctx, client, "c2"); !apperr.Is(err, apperr.PermissionDenied) {
		t.Fatalf("clients must not read other balances, got %v", err)
	}
	if _, err := s.TopUp(ctx, admin, models.TopUpRequest{ClientID: "c1", Amount: -5}); !apperr.Is(err, apperr.Validation) {
		t.Fatalf("negative top up must be rejected, got %v", err)
	}
}

func TestCardTopUp(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	entry, err := s.CardTopUp(ctx, client, models.CardTopUpRequest{Amount: 12.5, PaymentMethodID: "pm_card_visa"})
	if err != nil {
		t.Fatalf("CardTopUp: %v", err)
	}
	if entry.Reference != "pi_123" || entry.BalanceAfter != 12.5 {
		t.Fatalf("unexpected entry %+v", entry)
	}

	s.Charger = fakeCharger{err: errors.New("card declined")}
	if _, err := s.CardTopUp(ctx, client, models.CardTopUpRequest{Amount: 5, PaymentMethodID: "pm"}); err == nil {
		t.Fatal("declined card must not credit")
	}
	bal, _ := s.Balance(ctx, client, "c1")
	if bal.Amount != 12.5 {
		t.Fatalf("balance changed after declined card: %.2f", bal.Amount)
	}
}

func TestLocalLockerHonoursContext(t *testing.T) {
	l := NewLocalLocker()
	unlock, err := l.Lock(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "c1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error while held, got %v", err)
	}
	other, err := l.Lock(context.Background(), "c2")
	if err != nil {
		t.Fatalf("other clients must not contend: %v", err)
	}
	other()
}

func TestLocalLockerTakesFreeLockOnDoneContext(t *testing.T) {
	l := NewLocalLocker()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 20; i++ {
		unlock, err := l.Lock(ctx, "c1")
		if err != nil {
			t.Fatalf("attempt %d: free lock refused: %v", i, err)
		}
		unlock()
	}
}
