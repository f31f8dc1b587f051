package utils

import (
	"testing"
	"time"

	"slotbook/models"
)

func TestTokenRoundTripCarriesRole(t *testing.T) {
	want := models.Actor{ID: "admin-1", Role: models.RoleAdmin}
	token, err := GenerateToken(want, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	got, err := ActorFromToken(token)
	if err != nil {
		t.Fatalf("ActorFromToken: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := GenerateToken(models.Actor{ID: "c1", Role: models.RoleClient}, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ActorFromToken(token); err == nil {
		t.Fatal("expired token must be rejected")
	}
}

func TestUnknownRoleRejected(t *testing.T) {
	token, err := GenerateToken(models.Actor{ID: "c1", Role: "root"}, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ActorFromToken(token); err == nil {
		t.Fatal("unknown role must be rejected")
	}
}
