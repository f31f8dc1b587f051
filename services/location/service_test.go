package location

import (
	"context"
	"testing"

	"slotbook/database/repository/memstore"
	"slotbook/models"
	"slotbook/services/apperr"

	"go.uber.org/zap"
)

var admin = models.Actor{ID: "admin-1", Role: models.RoleAdmin}

func TestLocationLifecycle(t *testing.T) {
	ctx := context.Background()
	s := &DefaultLocationService{Repo: memstore.New("usd").Locations(), Logger: zap.NewNop()}

	lat, lng := 10.5, -66.9
	loc, err := s.Create(ctx, admin, models.LocationInput{Name: " Centro ", Latitude: &lat, Longitude: &lng})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if loc.Name != "Centro" || loc.ID == "" {
		t.Fatalf("unexpected location %+v", loc)
	}

	updated, err := s.UpdateDisplay(ctx, admin, loc.ID, models.LocationInput{Name: "Centro Norte"})
	if err != nil {
		t.Fatalf("UpdateDisplay: %v", err)
	}
	if updated.Name != "Centro Norte" || updated.Latitude != nil {
		t.Fatalf("display fields not replaced: %+v", updated)
	}

	if err := s.Delete(ctx, admin, loc.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	active, _ := s.List(ctx, admin, false)
	all, _ := s.List(ctx, admin, true)
	if len(active) != 0 || len(all) != 1 {
		t.Fatalf("soft delete should hide the location: active=%d all=%d", len(active), len(all))
	}
	if err := s.Delete(ctx, admin, loc.ID); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("second delete should be NotFound, got %v", err)
	}
}

func TestLocationValidationAndPermissions(t *testing.T) {
	ctx := context.Background()
	s := &DefaultLocationService{Repo: memstore.New("usd").Locations(), Logger: zap.NewNop()}
	client := models.Actor{ID: "c1", Role: models.RoleClient}

	if _, err := s.Create(ctx, client, models.LocationInput{Name: "X"}); !apperr.Is(err, apperr.PermissionDenied) {
		t.Fatalf("expected permission error, got %v", err)
	}
	lat := 91.0
	if _, err := s.Create(ctx, admin, models.LocationInput{Name: "X", Latitude: &lat, Longitude: &lat}); !apperr.Is(err, apperr.Validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := s.List(ctx, client, true); !apperr.Is(err, apperr.PermissionDenied) {
		t.Fatalf("clients must not list deleted locations, got %v", err)
	}
}
