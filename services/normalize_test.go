package services

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"cayman-scraper/config"
	"cayman-scraper/models"
)

func newTestNormalizer() *Normalizer {
	rate, _ := decimal.NewFromString(config.DefaultCIToUSDRate)
	return &Normalizer{
		ciToUSDRate:         rate,
		residentialFloorUSD: decimal.NewFromInt(100000),
		landFloorUSD:        decimal.NewFromInt(25000),
	}
}

func TestNormalizePrice(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		raw      string
		currency string
		want     string
	}{
		{"410,000", "CI$", "500000"},
		{"2,050,000", "CI$", "2500000"},
		{"450000", "CI$", "548780.49"},
		{"150,000", "US$", "150000"},
		{"99.50", "US$", "99.5"},
	}

	for _, tt := range tests {
		got, err := n.NormalizePrice(tt.raw, tt.currency)
		if err != nil {
			t.Errorf("NormalizePrice(%q, %q) returned error: %v", tt.raw, tt.currency, err)
			continue
		}
		want, _ := decimal.NewFromString(tt.want)
		if !got.Equal(want) {
			t.Errorf("NormalizePrice(%q, %q) = %s; want %s", tt.raw, tt.currency, got, want)
		}
	}
}

func TestNormalizePriceIsDeterministic(t *testing.T) {
	n := newTestNormalizer()

	first, err := n.NormalizePrice("1,234,567", "CI$")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := n.NormalizePrice("1,234,567", "CI$")
		if err != nil {
			t.Fatalf("unexpected error on repeat: %v", err)
		}
		if !again.Equal(first) {
			t.Fatalf("conversion not deterministic: %s vs %s", again, first)
		}
	}
}

func TestNormalizePriceErrors(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		name     string
		raw      string
		currency string
	}{
		{"empty", "", "CI$"},
		{"garbage", "call agent", "CI$"},
		{"zero", "0", "CI$"},
		{"negative", "-5000", "US$"},
		{"unknown currency", "100000", "EUR"},
	}

	for _, tt := range tests {
		_, err := n.NormalizePrice(tt.raw, tt.currency)
		if err == nil {
			t.Errorf("%s: NormalizePrice(%q, %q) succeeded; want ConversionError",
				tt.name, tt.raw, tt.currency)
			continue
		}
		var convErr *models.ConversionError
		if !errors.As(err, &convErr) {
			t.Errorf("%s: error is %T; want *models.ConversionError", tt.name, err)
		}
	}
}

func TestNormalizeCategory(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		raw  string
		want models.Category
	}{
		{"Houses", models.CategoryHome},
		{"Single Family Home", models.CategoryHome},
		{"Condos", models.CategoryCondo},
		{"apartments", models.CategoryCondo},
		{"Duplexes", models.CategoryDuplex},
		{"Townhouses", models.CategoryTownhouse},
		{"Lots & Lands", models.CategoryLand},
		{"Commercial", models.CategoryCommercial},
	}

	for _, tt := range tests {
		got, err := n.NormalizeCategory(tt.raw)
		if err != nil {
			t.Errorf("NormalizeCategory(%q) returned error: %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeCategory(%q) = %s; want %s", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeCategoryUnmappedFails(t *testing.T) {
	n := newTestNormalizer()

	for _, raw := range []string{"Houseboat", "Timeshare", ""} {
		_, err := n.NormalizeCategory(raw)
		if err == nil {
			t.Errorf("NormalizeCategory(%q) succeeded; want ConversionError", raw)
			continue
		}
		var convErr *models.ConversionError
		if !errors.As(err, &convErr) {
			t.Errorf("NormalizeCategory(%q) error is %T; want *models.ConversionError", raw, err)
		}
	}
}

func TestNormalizeCount(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		raw     string
		want    int
		wantNil bool
		wantErr bool
	}{
		{"3", 3, false, false},
		{"3.5", 3, false, false},
		{"0", 0, false, false},
		{"", 0, true, false},
		{"four", 0, false, true},
		{"-2", 0, false, true},
	}

	for _, tt := range tests {
		got, err := n.NormalizeCount("beds", tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Errorf("NormalizeCount(%q) succeeded; want error", tt.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeCount(%q) returned error: %v", tt.raw, err)
			continue
		}
		if tt.wantNil {
			if got != nil {
				t.Errorf("NormalizeCount(%q) = %d; want nil", tt.raw, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("NormalizeCount(%q) = %v; want %d", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeArea(t *testing.T) {
	n := newTestNormalizer()

	got, err := n.NormalizeArea("3,200")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || *got != 3200 {
		t.Errorf("NormalizeArea(\"3,200\") = %v; want 3200", got)
	}

	if got, err := n.NormalizeArea(""); err != nil || got != nil {
		t.Errorf("NormalizeArea(\"\") = %v, %v; want nil, nil", got, err)
	}

	if _, err := n.NormalizeArea("large"); err == nil {
		t.Error("NormalizeArea(\"large\") succeeded; want error")
	}
}

func TestBelowFloor(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		category models.Category
		priceUSD int64
		want     bool
	}{
		{models.CategoryHome, 80000, true},
		{models.CategoryHome, 100000, false},
		{models.CategoryCondo, 99999, true},
		{models.CategoryLand, 24999, true},
		{models.CategoryLand, 25000, false},
		{models.CategoryLand, 80000, false},
	}

	for _, tt := range tests {
		got := n.BelowFloor(tt.category, decimal.NewFromInt(tt.priceUSD))
		if got != tt.want {
			t.Errorf("BelowFloor(%s, %d) = %v; want %v", tt.category, tt.priceUSD, got, tt.want)
		}
	}
}
