package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"cayman-scraper/config"
	"cayman-scraper/models"
)

// Normalizer converts raw textual fields into typed, source-currency-
// corrected values. Every coercion either succeeds or returns a
// ConversionError; there is no default-to-zero path, because a field that
// fails to convert means the source markup has drifted.
type Normalizer struct {
	ciToUSDRate         decimal.Decimal
	residentialFloorUSD decimal.Decimal
	landFloorUSD        decimal.Decimal
}

// NewNormalizer creates a Normalizer from the configured fixed rate and
// price floors.
func NewNormalizer(cfg *config.Config) *Normalizer {
	return &Normalizer{
		ciToUSDRate:         cfg.CIToUSDRate,
		residentialFloorUSD: cfg.ResidentialFloorUSD,
		landFloorUSD:        cfg.LandFloorUSD,
	}
}

// Rate returns the fixed CI$→US$ conversion rate in use.
func (n *Normalizer) Rate() decimal.Decimal { return n.ciToUSDRate }

// categoryMap is the fixed mapping from advertised property-type strings to
// the category enum. Keys are lowercased.
var categoryMap = map[string]models.Category{
	"home":               models.CategoryHome,
	"house":              models.CategoryHome,
	"houses":             models.CategoryHome,
	"single family home": models.CategoryHome,
	"condo":              models.CategoryCondo,
	"condos":             models.CategoryCondo,
	"residential condo":  models.CategoryCondo,
	"apartment":          models.CategoryCondo,
	"apartments":         models.CategoryCondo,
	"duplex":             models.CategoryDuplex,
	"duplexes":           models.CategoryDuplex,
	"townhouse":          models.CategoryTownhouse,
	"townhouses":         models.CategoryTownhouse,
	"land":               models.CategoryLand,
	"lot":                models.CategoryLand,
	"lots & lands":       models.CategoryLand,
	"lots and lands":     models.CategoryLand,
	"commercial":         models.CategoryCommercial,
}

// NormalizePrice converts a raw price string in the advertised currency to
// a positive USD amount, rounded once to currency precision. CI$ amounts are
// multiplied by the fixed rate; US$ amounts pass through. Anything that does
// not resolve to a positive amount is a ConversionError.
func (n *Normalizer) NormalizePrice(rawPrice, currency string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(rawPrice, ",", ""))
	if cleaned == "" {
		return decimal.Zero, &models.ConversionError{Field: "price", Value: rawPrice,
			Err: fmt.Errorf("empty price")}
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, &models.ConversionError{Field: "price", Value: rawPrice, Err: err}
	}

	var usd decimal.Decimal
	switch currency {
	case "CI$":
		usd = amount.Mul(n.ciToUSDRate).Round(2)
	case "US$":
		usd = amount.Round(2)
	default:
		return decimal.Zero, &models.ConversionError{Field: "currency", Value: currency,
			Err: fmt.Errorf("unknown currency")}
	}

	if !usd.IsPositive() {
		return decimal.Zero, &models.ConversionError{Field: "price", Value: rawPrice,
			Err: fmt.Errorf("non-positive amount after conversion")}
	}

	return usd, nil
}

// NormalizeCategory maps an advertised property-type string to the category
// enum. Unmapped strings are a ConversionError rather than passed through.
func (n *Normalizer) NormalizeCategory(raw string) (models.Category, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if cat, ok := categoryMap[key]; ok {
		return cat, nil
	}
	return "", &models.ConversionError{Field: "category", Value: raw}
}

// NormalizeCount parses an optional whole-number field (beds, baths). The
// sources occasionally advertise "3.5 Baths"; fractional values truncate the
// way the marketplaces themselves display them. Empty input yields nil.
func (n *Normalizer) NormalizeCount(field, raw string) (*int, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return nil, nil
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil, &models.ConversionError{Field: field, Value: raw, Err: err}
	}
	if f < 0 {
		return nil, &models.ConversionError{Field: field, Value: raw,
			Err: fmt.Errorf("negative count")}
	}

	v := int(f)
	return &v, nil
}

// NormalizeArea parses an optional comma-grouped square-footage value.
func (n *Normalizer) NormalizeArea(raw string) (*int, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if cleaned == "" {
		return nil, nil
	}

	v, err := strconv.Atoi(cleaned)
	if err != nil {
		return nil, &models.ConversionError{Field: "sqft", Value: raw, Err: err}
	}
	if v < 0 {
		return nil, &models.ConversionError{Field: "sqft", Value: raw,
			Err: fmt.Errorf("negative area")}
	}

	return &v, nil
}

// NormalizeAcres parses an optional acreage value for land listings.
func (n *Normalizer) NormalizeAcres(raw string) (*float64, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return nil, nil
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil, &models.ConversionError{Field: "acres", Value: raw, Err: err}
	}
	if v < 0 {
		return nil, &models.ConversionError{Field: "acres", Value: raw,
			Err: fmt.Errorf("negative acreage")}
	}

	return &v, nil
}

// BelowFloor reports whether a validly priced listing falls under the
// minimum-price floor for its category. Floors are a filter, not a
// validation failure: listings under the floor are excluded, never errors.
func (n *Normalizer) BelowFloor(cat models.Category, priceUSD decimal.Decimal) bool {
	floor := n.residentialFloorUSD
	if cat == models.CategoryLand {
		floor = n.landFloorUSD
	}
	return priceUSD.LessThan(floor)
}
