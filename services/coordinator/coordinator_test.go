package coordinator

import (
	"context"
	"testing"
	"time"

	"slotbook/database/repository/memstore"
	"slotbook/models"
	"slotbook/services/apperr"

	"go.uber.org/zap"
)

var (
	admin     = models.Actor{ID: "admin-1", Role: models.RoleAdmin}
	slotStart = time.Date(2025, 6, 2, 13, 0, 0, 0, time.UTC)
	slotEnd   = slotStart.Add(30 * time.Minute)
)

func setup(t *testing.T, locations ...string) (*DefaultSlotCoordinator, *memstore.Store) {
	t.Helper()
	ctx := context.Background()
	store := memstore.New("usd")
	for _, loc := range []string{"loc-a", "loc-b", "loc-c", "loc-d"} {
		_ = store.Locations().Create(ctx, &models.Location{ID: loc, Name: loc})
	}
	for _, loc := range locations {
		err := store.Availability().Create(ctx, &models.Availability{
			ID: "row-" + loc, LocationID: loc, Start: slotStart, End: slotEnd,
			Capacity: 4, Service: "Cut", BatchID: "batch-1", Source: models.SourceGenerator,
		})
		if err != nil {
			t.Fatalf("create row: %v", err)
		}
	}
	return &DefaultSlotCoordinator{
		Availability: store.Availability(),
		Bookings:     store.Bookings(),
		Locations:    store.Locations(),
		Logger:       zap.NewNop(),
	}, store
}

func book(t *testing.T, store *memstore.Store, loc string) {
	t.Helper()
	ctx := context.Background()
	if ok, _ := store.Availability().Claim(ctx, "row-"+loc); !ok {
		t.Fatalf("claim on %s failed", loc)
	}
	_ = store.Bookings().Insert(ctx, &models.Booking{ClientID: "c1", LocationID: loc, Start: slotStart, End: slotEnd})
}

func ref(locs ...string) models.SlotRef {
	return models.SlotRef{Start: slotStart, End: slotEnd, LocationIDs: locs}
}

func TestDeleteSkipsBookedSiblings(t *testing.T) {
	c, store := setup(t, "loc-a", "loc-b", "loc-c")
	book(t, store, "loc-b")

	report, err := c.Delete(context.Background(), admin, ref("loc-a", "loc-b", "loc-c"))
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if report.Removed != 2 || report.Skipped != 1 {
		t.Fatalf("expected 2 removed and 1 skipped, got %+v", report)
	}
	if len(report.SkippedIDs) != 1 || report.SkippedIDs[0] != "row-loc-b" {
		t.Fatalf("wrong row skipped: %v", report.SkippedIDs)
	}
	if _, err := store.Availability().GetByID(context.Background(), "row-loc-b"); err != nil {
		t.Fatalf("booked row must survive: %v", err)
	}
}

func TestDeleteToleratesRounding(t *testing.T) {
	c, _ := setup(t, "loc-a")
	r := ref("loc-a")
	r.Start = r.Start.Add(800 * time.Millisecond)
	r.End = r.End.Add(-800 * time.Millisecond)

	report, err := c.Delete(context.Background(), admin, r)
	if err != nil || report.Removed != 1 {
		t.Fatalf("expected the row within tolerance to be removed, got %+v %v", report, err)
	}

	c2, _ := setup(t, "loc-a")
	r.Start = slotStart.Add(2 * time.Second)
	if _, err := c2.Delete(context.Background(), admin, r); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("row outside tolerance must not match, got %v", err)
	}
}

func TestAmbiguousSiblingsAreReported(t *testing.T) {
	c, store := setup(t, "loc-a")
	_ = store.Availability().Create(context.Background(), &models.Availability{
		ID: "dup", LocationID: "loc-a", Start: slotStart.Add(500 * time.Millisecond), End: slotEnd, Capacity: 1,
	})

	if _, err := c.Delete(context.Background(), admin, ref("loc-a")); !apperr.Is(err, apperr.IdentityAmbiguity) {
		t.Fatalf("expected IdentityAmbiguity, got %v", err)
	}
	rows, _ := store.Availability().FindSiblings(context.Background(), slotStart, slotEnd, time.Second, []string{"loc-a"}, "")
	if len(rows) != 2 {
		t.Fatalf("nothing may be deleted on ambiguity, %d rows left", len(rows))
	}
}

func TestBatchIDNarrowsSiblings(t *testing.T) {
	c, store := setup(t, "loc-a")
	_ = store.Availability().Create(context.Background(), &models.Availability{
		ID: "other-batch", LocationID: "loc-a", Start: slotStart, End: slotEnd, Capacity: 1, BatchID: "batch-2",
	})

	r := ref("loc-a")
	r.BatchID = "batch-2"
	report, err := c.Delete(context.Background(), admin, r)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if report.Removed != 1 || report.RemovedIDs[0] != "other-batch" {
		t.Fatalf("expected only the batch-2 row removed, got %+v", report)
	}
}

func TestUpdateRelabelsAddsAndRemoves(t *testing.T) {
	c, store := setup(t, "loc-a", "loc-b", "loc-c")
	stamp := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	c.Now = func() time.Time { return stamp }
	c.NewID = func() string { return "added-1" }
	book(t, store, "loc-c")
	ctx := context.Background()

	service := "Colour"
	report, err := c.Update(ctx, admin, models.UpdateSlotRequest{
		Ref: ref("loc-a", "loc-b", "loc-c"),
		Update: models.SlotUpdate{
			Service:     &service,
			LocationIDs: []string{"loc-a", "loc-d"},
		},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if report.Relabeled != 1 || report.Added != 1 || report.Removal.Removed != 1 || report.Removal.Skipped != 1 {
		t.Fatalf("unexpected report %+v", report)
	}

	rows, _ := store.Availability().FindSiblings(ctx, slotStart, slotEnd, time.Second,
		[]string{"loc-a", "loc-b", "loc-c", "loc-d"}, "")
	byLoc := map[string]models.Availability{}
	for _, r := range rows {
		byLoc[r.LocationID] = r
	}
	if _, ok := byLoc["loc-b"]; ok {
		t.Fatal("unbooked removed location should be gone")
	}
	if _, ok := byLoc["loc-c"]; !ok {
		t.Fatal("booked removed location must be kept")
	}
	added := byLoc["loc-d"]
	if added.Service != "Colour" || added.Capacity != 4 || added.BatchID != "batch-1" || !added.Start.Equal(slotStart) {
		t.Fatalf("added row does not copy the slot: %+v", added)
	}
	if added.ID != "added-1" || !added.CreatedAt.Equal(stamp) {
		t.Fatalf("added row should use the injected id and clock: %s %s", added.ID, added.CreatedAt)
	}
	if byLoc["loc-a"].Service != "Colour" {
		t.Fatalf("kept row not relabeled: %+v", byLoc["loc-a"])
	}
}

func TestUpdateRejectsUnknownLocationAndNonAdmins(t *testing.T) {
	c, _ := setup(t, "loc-a")
	ctx := context.Background()

	_, err := c.Update(ctx, admin, models.UpdateSlotRequest{
		Ref:    ref("loc-a"),
		Update: models.SlotUpdate{LocationIDs: []string{"loc-a", "loc-zz"}},
	})
	if !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound for unknown location, got %v", err)
	}

	client := models.Actor{ID: "c1", Role: models.RoleClient}
	if _, err := c.Delete(ctx, client, ref("loc-a")); !apperr.Is(err, apperr.PermissionDenied) {
		t.Fatalf("expected permission error, got %v", err)
	}
}
