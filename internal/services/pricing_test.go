package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/mestermind/backend/internal/repos"
	"github.com/mestermind/backend/internal/types"
)

func TestLoadBandConfig_EmbeddedDefaults(t *testing.T) {
	bands, err := loadBandConfig(nopLog())
	if err != nil {
		t.Fatalf("load embedded bands: %v", err)
	}
	if len(bands) != 3 {
		t.Fatalf("got %d bands, want 3", len(bands))
	}
	last := bands[len(bands)-1]
	if last.MaxValue != 0 {
		t.Fatalf("last band must be the catch-all, max_value = %v", last.MaxValue)
	}
	for _, b := range bands {
		if b.TakeRate <= 0 || b.TakeRate >= 1 {
			t.Fatalf("band %q take_rate out of range: %v", b.Code, b.TakeRate)
		}
		if b.PriceFloor > b.PriceCap {
			t.Fatalf("band %q floor above cap", b.Code)
		}
	}
}

func TestLoadBandConfig_FileOverrideAndValidation(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "bands.yaml")
	if err := os.WriteFile(good, []byte(`
bands:
  - code: only
    label: "Egyetlen"
    max_value: 0
    take_rate: 0.1
    price_floor: 100
    price_cap: 1000
`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("PRICING_BANDS_PATH", good)
	bands, err := loadBandConfig(nopLog())
	if err != nil {
		t.Fatalf("load override: %v", err)
	}
	if len(bands) != 1 || bands[0].Code != "only" {
		t.Fatalf("override not applied: %+v", bands)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte(`
bands:
  - code: broken
    max_value: 0
    take_rate: 1.5
    price_floor: 100
    price_cap: 1000
`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("PRICING_BANDS_PATH", bad)
	if _, err := loadBandConfig(nopLog()); err == nil {
		t.Fatalf("take_rate >= 1 should be rejected")
	}
}

func TestSelectBand_Boundaries(t *testing.T) {
	bands, err := loadBandConfig(nopLog())
	if err != nil {
		t.Fatalf("load bands: %v", err)
	}

	tests := []struct {
		value float64
		want  string
	}{
		{10000, "basic"},
		{50000, "basic"},
		{50001, "standard"},
		{200000, "standard"},
		{200001, "premium"},
		{5000000, "premium"},
	}
	for _, tt := range tests {
		if got := selectBand(bands, tt.value); got.Code != tt.want {
			t.Fatalf("selectBand(%v) = %q, want %q", tt.value, got.Code, tt.want)
		}
	}
}

func TestPricingService_PriceForJob(t *testing.T) {
	db := newTestDB(t)
	log := nopLog()
	ctx := context.Background()

	svc, err := NewPricingService(db, log, repos.NewJobRepo(db, log), repos.NewServiceRepo(db, log), "HUF")
	if err != nil {
		t.Fatalf("pricing service: %v", err)
	}

	if _, err := svc.PriceForJob(ctx, uuid.New()); err == nil {
		t.Fatalf("unknown job should be not_found")
	}

	customer := createUser(t, db, types.RoleCustomer)
	category := createService(t, db, 80000, 160000)
	job := createJob(t, db, customer.ID, category.ID)

	price, err := svc.PriceForJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("price for job: %v", err)
	}
	// Expected value 120000 falls into the standard band.
	if price.Band.Code != "standard" {
		t.Fatalf("band = %q, want standard", price.Band.Code)
	}
	if price.Currency != "HUF" {
		t.Fatalf("currency = %q", price.Currency)
	}
	if price.FinalPrice < price.Breakdown.PriceFloor || price.FinalPrice > price.Breakdown.PriceCap {
		t.Fatalf("final price %v outside [%v, %v]", price.FinalPrice, price.Breakdown.PriceFloor, price.Breakdown.PriceCap)
	}
	if price.SeatsAvailable != job.SeatsAvailable {
		t.Fatalf("seats = %d, want %d", price.SeatsAvailable, job.SeatsAvailable)
	}

	// Pricing is read-only: calling it twice returns the same number and
	// persists nothing.
	again, err := svc.PriceForJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("second price: %v", err)
	}
	if again.FinalPrice != price.FinalPrice {
		t.Fatalf("price not stable: %v then %v", price.FinalPrice, again.FinalPrice)
	}
	var purchases int64
	if err := db.Model(&types.LeadPurchase{}).Count(&purchases).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if purchases != 0 {
		t.Fatalf("pricing must not persist anything")
	}
}
