package catalog_test

import (
	"context"
	"errors"
	"testing"

	"packline/internal/catalog"
	"packline/internal/domain"
	"packline/internal/logging"
	"packline/internal/testsupport"
)

func TestCatalogAdministration(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	svc := catalog.NewService(st, logging.NewNop())
	ctx := context.Background()

	created, err := svc.Create(ctx, " 101 ", " Pulpa negra ", "RES")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Code != "101" || created.Name != "Pulpa negra" || !created.Active() {
		t.Fatalf("created = %+v", created)
	}
	if _, err := svc.Create(ctx, "101", "Otra", "RES"); !errors.Is(err, domain.ErrDuplicateProduct) {
		t.Fatalf("expected ErrDuplicateProduct, got %v", err)
	}
	if _, err := svc.Create(ctx, "102", "", "RES"); !errors.Is(err, domain.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}

	updated, err := svc.Update(ctx, "101", "Pulpa bola", "RES")
	if err != nil || updated.Name != "Pulpa bola" {
		t.Fatalf("Update = %+v, %v", updated, err)
	}
	if _, err := svc.Update(ctx, "999", "Nada", "RES"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}

	if err := svc.Deactivate(ctx, "101"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if _, err := svc.Active(ctx, "101"); !errors.Is(err, domain.ErrProductInactive) {
		t.Fatalf("expected ErrProductInactive, got %v", err)
	}
	listed, err := svc.List(ctx, false)
	if err != nil || len(listed) != 0 {
		t.Fatalf("active list = %+v, %v", listed, err)
	}
	if err := svc.Reactivate(ctx, "101"); err != nil {
		t.Fatalf("Reactivate: %v", err)
	}
	if _, err := svc.Active(ctx, "101"); err != nil {
		t.Fatalf("Active after reactivate: %v", err)
	}

	renamed, err := svc.Rename(ctx, "101", "201")
	if err != nil || renamed.Code != "201" {
		t.Fatalf("Rename = %+v, %v", renamed, err)
	}

	_, box := testsupport.MustOpenBox(t, st, "1234", 1)
	testsupport.MustRegister(t, st, box.ID, "201", "1.00")
	if _, err := svc.Rename(ctx, "201", "301"); !errors.Is(err, domain.ErrProductInUse) {
		t.Fatalf("expected ErrProductInUse on rename, got %v", err)
	}
	if err := svc.Delete(ctx, "201"); !errors.Is(err, domain.ErrProductInUse) {
		t.Fatalf("expected ErrProductInUse on delete, got %v", err)
	}
	if used, err := svc.Usage(ctx, "201"); err != nil || used != 1 {
		t.Fatalf("Usage = %d, %v", used, err)
	}

	upserted, err := svc.Upsert(ctx, "401", "Costilla", "CERDO")
	if err != nil || upserted.Species != "CERDO" {
		t.Fatalf("Upsert = %+v, %v", upserted, err)
	}
	if err := svc.Delete(ctx, "401"); err != nil {
		t.Fatalf("Delete unused: %v", err)
	}
	if _, err := svc.Get(ctx, "401"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound after delete, got %v", err)
	}
	if _, err := svc.Active(ctx, " "); !errors.Is(err, domain.ErrEmptyCode) {
		t.Fatalf("expected ErrEmptyCode, got %v", err)
	}
}
