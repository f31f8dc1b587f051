package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfWrappedError(t *testing.T) {
	base := Unavailablef("slot %s is full", "a1")
	wrapped := fmt.Errorf("reserve: %w", base)

	if got := KindOf(wrapped); got != SlotUnavailable {
		t.Fatalf("expected %s, got %s", SlotUnavailable, got)
	}
	if !Is(wrapped, SlotUnavailable) {
		t.Fatal("Is should see through fmt wrapping")
	}
	if Is(nil, SlotUnavailable) {
		t.Fatal("nil error must not match any kind")
	}
	if got := KindOf(errors.New("plain")); got != Internal {
		t.Fatalf("untyped errors should be internal, got %s", got)
	}
}

func TestReconciliationKeepsBothCauses(t *testing.T) {
	persist := errors.New("insert timed out")
	credit := errors.New("ledger unreachable")

	err := Reconciliation(persist, credit, "client %s", "c1")

	if KindOf(err) != ReconciliationRequired {
		t.Fatalf("unexpected kind %s", KindOf(err))
	}
	if !errors.Is(err, persist) || !errors.Is(err, credit) {
		t.Fatalf("both causes must be reachable: %v", err)
	}
	if Message(err) != "client c1" {
		t.Fatalf("unexpected message %q", Message(err))
	}
}
