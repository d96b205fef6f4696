// Package settings holds the runtime restaurant configuration: identity
// fields shown on tickets and invoices plus the tax and tip rates used by
// totals computation. A single *Settings is created at startup and handed
// to every component that needs it.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	ErrRateOutOfRange      = errors.New("settings: rate must be between 0 and 1")
	ErrCapacityNotPositive = errors.New("settings: capacity must be positive")
)

// Defaults applied when no overlay file exists or the overlay omits a field.
var (
	defaultTaxRate = decimal.RequireFromString("0.16")
	defaultTipRate = decimal.RequireFromString("0.15")
)

const (
	defaultName        = "Mesa POS"
	defaultAddress     = ""
	defaultPhone       = ""
	defaultCurrency    = "MXN"
	defaultMaxCapacity = 50
)

// Settings is safe for concurrent use. Reads far outnumber writes, so a
// RWMutex guards the fields rather than copying the struct around.
type Settings struct {
	mu          sync.RWMutex
	path        string
	name        string
	address     string
	phone       string
	currency    string
	taxRate     decimal.Decimal
	tipRate     decimal.Decimal
	maxCapacity int
}

type fileOverlay struct {
	Name        *string `json:"name,omitempty"`
	Address     *string `json:"address,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Currency    *string `json:"currency,omitempty"`
	TaxRate     *string `json:"tax_rate,omitempty"`
	TipRate     *string `json:"tip_rate,omitempty"`
	MaxCapacity *int    `json:"max_capacity,omitempty"`
}

// Load builds Settings from defaults overlaid with the JSON file at path.
// A missing file is not an error; a malformed one is.
func Load(path string) (*Settings, error) {
	s := &Settings{
		path:        path,
		name:        defaultName,
		address:     defaultAddress,
		phone:       defaultPhone,
		currency:    defaultCurrency,
		taxRate:     defaultTaxRate,
		tipRate:     defaultTipRate,
		maxCapacity: defaultMaxCapacity,
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	var ov fileOverlay
	if err := json.Unmarshal(data, &ov); err != nil {
		return nil, fmt.Errorf("parse settings file: %w", err)
	}
	if ov.Name != nil {
		s.name = *ov.Name
	}
	if ov.Address != nil {
		s.address = *ov.Address
	}
	if ov.Phone != nil {
		s.phone = *ov.Phone
	}
	if ov.Currency != nil {
		s.currency = *ov.Currency
	}
	if ov.TaxRate != nil {
		rate, err := decimal.NewFromString(*ov.TaxRate)
		if err != nil {
			return nil, fmt.Errorf("parse tax_rate: %w", err)
		}
		if err := s.SetTaxRate(rate); err != nil {
			return nil, err
		}
	}
	if ov.TipRate != nil {
		rate, err := decimal.NewFromString(*ov.TipRate)
		if err != nil {
			return nil, fmt.Errorf("parse tip_rate: %w", err)
		}
		if err := s.SetTipRate(rate); err != nil {
			return nil, err
		}
	}
	if ov.MaxCapacity != nil {
		if err := s.SetMaxCapacity(*ov.MaxCapacity); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Settings) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *Settings) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.address
}

func (s *Settings) Phone() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phone
}

func (s *Settings) Currency() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currency
}

func (s *Settings) TaxRate() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.taxRate
}

func (s *Settings) TipRate() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tipRate
}

func (s *Settings) MaxCapacity() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxCapacity
}

func (s *Settings) SetName(name string) {
	s.mu.Lock()
	s.name = name
	s.mu.Unlock()
}

func (s *Settings) SetAddress(address string) {
	s.mu.Lock()
	s.address = address
	s.mu.Unlock()
}

func (s *Settings) SetPhone(phone string) {
	s.mu.Lock()
	s.phone = phone
	s.mu.Unlock()
}

func (s *Settings) SetCurrency(currency string) {
	s.mu.Lock()
	s.currency = currency
	s.mu.Unlock()
}

// SetTaxRate rejects rates outside [0, 1]. The previous value is kept on
// rejection.
func (s *Settings) SetTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: got %s", ErrRateOutOfRange, rate)
	}
	s.mu.Lock()
	s.taxRate = rate
	s.mu.Unlock()
	return nil
}

func (s *Settings) SetTipRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: got %s", ErrRateOutOfRange, rate)
	}
	s.mu.Lock()
	s.tipRate = rate
	s.mu.Unlock()
	return nil
}

// SetMaxCapacity rejects non-positive values. The previous value is kept on
// rejection.
func (s *Settings) SetMaxCapacity(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: got %d", ErrCapacityNotPositive, n)
	}
	s.mu.Lock()
	s.maxCapacity = n
	s.mu.Unlock()
	return nil
}

// Tax returns the tax owed on subtotal at the current rate, rounded to two
// decimal places.
func (s *Settings) Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(s.TaxRate()).Round(2)
}

// TotalsWithTax returns (tax, total) for a subtotal at the current rate.
func (s *Settings) TotalsWithTax(subtotal decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	tax := s.Tax(subtotal)
	return tax, subtotal.Add(tax)
}

// SuggestedTip returns the tip suggestion for an amount at the current tip
// rate, rounded to two decimal places.
func (s *Settings) SuggestedTip(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(s.TipRate()).Round(2)
}

// Snapshot is the JSON representation used by both Save and the settings
// API handlers.
type Snapshot struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Currency    string `json:"currency"`
	TaxRate     string `json:"tax_rate"`
	TipRate     string `json:"tip_rate"`
	MaxCapacity int    `json:"max_capacity"`
}

func (s *Settings) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Name:        s.name,
		Address:     s.address,
		Phone:       s.phone,
		Currency:    s.currency,
		TaxRate:     s.taxRate.String(),
		TipRate:     s.tipRate.String(),
		MaxCapacity: s.maxCapacity,
	}
}

// Save writes the current values back to the overlay file so they survive a
// restart.
func (s *Settings) Save() error {
	snap := s.Snapshot()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}
