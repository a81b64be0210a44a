package ecaytrade

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cayman-scraper/config"
	"cayman-scraper/fetch"
	"cayman-scraper/models"
	"cayman-scraper/services"
)

// Name is the script name used in job-run audit rows and notifications.
const Name = "ecaytrade"

// ContainerSelector is the listing results container the content extractor
// serializes.
const ContainerSelector = "div#listing-results"

// Domain is the marketplace host.
const Domain = "ecaytrade.com"

// grandCaymanDistricts is the location filter covering every Grand Cayman
// district the site recognizes, already URL-encoded the way its query
// string expects.
const grandCaymanDistricts = "Bodden%20Town/Breakers,East%20End/High%20Rock," +
	"George%20Town,North%20Side,Red%20Bay/Prospect,Rum%20Point/Kaibo," +
	"Savannah/Newlands,Seven%20Mile%20Beach,Seven%20Mile%20Beach%20Corridor," +
	"South%20Sound,Spotts,West%20Bay"

// baseQuery is one (island, segment) crawl seed. Residential queries span
// several advertised types, so the category comes from the card itself; the
// minimum price in the query pre-filters server-side and mirrors the floor
// the normalizer applies.
type baseQuery struct {
	island      string
	location    string
	types       string
	residential bool
}

var baseQueries = []baseQuery{
	{"Grand Cayman", grandCaymanDistricts, "apartments+condos+duplexes+houses+townhouses", true},
	{"Cayman Brac", "Cayman%20Brac", "apartments+condos+duplexes+houses+townhouses", true},
	{"Little Cayman", "Little%20Cayman", "apartments+condos+duplexes+houses+townhouses", true},
	{"Grand Cayman", grandCaymanDistricts, "lots--lands", false},
	{"Cayman Brac", "Cayman%20Brac", "lots--lands", false},
	{"Little Cayman", "Little%20Cayman", "lots--lands", false},
}

// cardPattern captures one advert card: cover image, advertised type,
// price (or "Price Upon Request"), district marker, and the detail link.
var cardPattern = regexp.MustCompile(
	`(?s)\[ !\[(.*?)\]\(([^\)]*)\)\s*` +
		`(Condos|Apartments|Houses|Townhouses|Duplexes|Lots & Lands)\s*` +
		`(?:(CI\$|US\$)\s*([\d,]+)|Price Upon Request)` +
		`(.*?)__([^_]+)__\s*` +
		`\]\((https://ecaytrade\.com/advert/\d+)\)`)

var islands = map[string]bool{
	"Grand Cayman":  true,
	"Cayman Brac":   true,
	"Little Cayman": true,
}

// Source is the secondary-marketplace crawl definition.
type Source struct {
	cfg  *config.Config
	norm *services.Normalizer
}

// New creates the EcayTrade source.
func New(cfg *config.Config, norm *services.Normalizer) *Source {
	return &Source{cfg: cfg, norm: norm}
}

func (s *Source) Name() string { return Name }

// Units enumerates every (island, segment, page) fetch unit up to the
// page cap.
func (s *Source) Units() []fetch.Unit {
	var units []fetch.Unit
	for _, q := range baseQueries {
		minPrice := s.cfg.ResidentialFloorUSD.IntPart()
		category := models.Category("")
		if !q.residential {
			minPrice = s.cfg.LandFloorUSD.IntPart()
			category = models.CategoryLand
		}

		for page := 1; page <= s.cfg.PageCap; page++ {
			units = append(units, fetch.Unit{
				Category: category,
				Island:   q.island,
				Page:     page,
				URL: fmt.Sprintf(
					"https://ecaytrade.com/real-estate/for-sale?page=%d&minprice=%d&type=%s&location=%s&sort=date-high",
					page, minPrice, q.types, q.location),
			})
		}
	}
	return units
}

// ParsePage turns one raw page into zero or more listings. Cards advertised
// as "Price Upon Request" are a recognized format, not markup drift: they
// carry no convertible amount and are excluded the same way the price floor
// excludes, never treated as errors.
func (s *Source) ParsePage(page fetch.Page) ([]*models.Listing, error) {
	var listings []*models.Listing
	for _, m := range cardPattern.FindAllStringSubmatch(page.Content, -1) {
		l, err := s.buildListing(m, page.Unit)
		if err != nil {
			return nil, &models.ParseError{URL: page.Unit.URL, Err: err}
		}
		if l == nil {
			continue
		}
		listings = append(listings, l)
	}
	return listings, nil
}

func (s *Source) buildListing(m []string, unit fetch.Unit) (*models.Listing, error) {
	var (
		title    = strings.TrimSpace(m[1])
		image    = strings.TrimSpace(m[2])
		rawType  = m[3]
		currency = m[4]
		rawPrice = m[5]
		district = strings.TrimSpace(m[7])
		link     = m[8]
	)

	if rawPrice == "" {
		// Price Upon Request
		return nil, nil
	}

	category, err := s.norm.NormalizeCategory(rawType)
	if err != nil {
		return nil, fmt.Errorf("listing %q: %w", title, err)
	}

	priceUSD, err := s.norm.NormalizePrice(rawPrice, currency)
	if err != nil {
		return nil, fmt.Errorf("listing %q: %w", title, err)
	}

	if s.norm.BelowFloor(category, priceUSD) {
		return nil, nil
	}

	// The card repeats the island name where no finer district is shown.
	if islands[district] {
		district = ""
	}

	var imageURLs []string
	if image != "" {
		imageURLs = append(imageURLs, image)
	}

	fxRate := s.norm.Rate()
	if currency == "US$" {
		fxRate = decimal.NewFromInt(1)
	}

	return &models.Listing{
		Source:     models.SourceEcayTrade,
		Link:       link,
		Category:   category,
		Island:     unit.Island,
		District:   district,
		PriceUSD:   priceUSD,
		ImageURLs:  imageURLs,
		RawPrice:   rawPrice,
		Currency:   currency,
		FXRateUsed: fxRate,
		ScrapedAt:  time.Now().UTC(),
	}, nil
}
