package settings

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, want := s.TaxRate().String(), "0.16"; got != want {
		t.Errorf("TaxRate = %s, want %s", got, want)
	}
	if got, want := s.TipRate().String(), "0.15"; got != want {
		t.Errorf("TipRate = %s, want %s", got, want)
	}
	if got, want := s.Currency(), "MXN"; got != want {
		t.Errorf("Currency = %s, want %s", got, want)
	}
}

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	body := `{"name":"La Terraza","tax_rate":"0.08"}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, want := s.Name(), "La Terraza"; got != want {
		t.Errorf("Name = %s, want %s", got, want)
	}
	if got, want := s.TaxRate().String(), "0.08"; got != want {
		t.Errorf("TaxRate = %s, want %s", got, want)
	}
	// Omitted fields keep their defaults.
	if got, want := s.TipRate().String(), "0.15"; got != want {
		t.Errorf("TipRate = %s, want %s", got, want)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted malformed JSON")
	}
}

func TestSetTaxRateRejectsOutOfRange(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	err = s.SetTaxRate(decimal.RequireFromString("1.5"))
	if !errors.Is(err, ErrRateOutOfRange) {
		t.Fatalf("SetTaxRate(1.5) error = %v, want ErrRateOutOfRange", err)
	}
	if got, want := s.TaxRate().String(), "0.16"; got != want {
		t.Errorf("TaxRate after rejected set = %s, want unchanged %s", got, want)
	}

	err = s.SetTaxRate(decimal.RequireFromString("-0.01"))
	if !errors.Is(err, ErrRateOutOfRange) {
		t.Fatalf("SetTaxRate(-0.01) error = %v, want ErrRateOutOfRange", err)
	}
}

func TestSetTipRateBoundaries(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.SetTipRate(decimal.Zero); err != nil {
		t.Errorf("SetTipRate(0) rejected: %v", err)
	}
	if err := s.SetTipRate(decimal.NewFromInt(1)); err != nil {
		t.Errorf("SetTipRate(1) rejected: %v", err)
	}
}

func TestSetMaxCapacityRejectsNonPositive(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := s.SetMaxCapacity(0); !errors.Is(err, ErrCapacityNotPositive) {
		t.Fatalf("SetMaxCapacity(0) error = %v, want ErrCapacityNotPositive", err)
	}
	if got, want := s.MaxCapacity(), 50; got != want {
		t.Errorf("MaxCapacity after rejected set = %d, want unchanged %d", got, want)
	}

	if err := s.SetMaxCapacity(80); err != nil {
		t.Fatalf("SetMaxCapacity(80): %v", err)
	}
	if got, want := s.MaxCapacity(), 80; got != want {
		t.Errorf("MaxCapacity = %d, want %d", got, want)
	}
}

func TestTotalsWithTax(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tax, total := s.TotalsWithTax(decimal.RequireFromString("100.00"))
	if got, want := tax.StringFixed(2), "16.00"; got != want {
		t.Errorf("tax = %s, want %s", got, want)
	}
	if got, want := total.StringFixed(2), "116.00"; got != want {
		t.Errorf("total = %s, want %s", got, want)
	}
}

func TestSuggestedTip(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, want := s.SuggestedTip(decimal.RequireFromString("200.00")).StringFixed(2), "30.00"; got != want {
		t.Errorf("SuggestedTip = %s, want %s", got, want)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s.SetName("El Patio")
	if err := s.SetTaxRate(decimal.RequireFromString("0.10")); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got, want := reloaded.Name(), "El Patio"; got != want {
		t.Errorf("Name = %s, want %s", got, want)
	}
	if got, want := reloaded.TaxRate().String(), "0.1"; got != want {
		t.Errorf("TaxRate = %s, want %s", got, want)
	}
}

func TestConcurrentAccess(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.SetTaxRate(decimal.RequireFromString("0.16"))
		}()
		go func() {
			defer wg.Done()
			_ = s.Tax(decimal.NewFromInt(100))
		}()
	}
	wg.Wait()
}
