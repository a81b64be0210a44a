package cireba

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"cayman-scraper/config"
	"cayman-scraper/fetch"
	"cayman-scraper/models"
	"cayman-scraper/services"
)

// Name is the script name used in job-run audit rows and notifications.
const Name = "cireba"

// ContainerSelector is the listing grid the content extractor serializes.
const ContainerSelector = "div#grid-view"

// Domain is the marketplace host.
const Domain = "www.cireba.com"

// baseQuery is one category crawl seed. The listing-type segment in the URL
// fixes the category for every listing the query returns.
type baseQuery struct {
	url      string
	category models.Category
}

var baseQueries = []baseQuery{
	{"https://www.cireba.com/cayman-residential-property-for-sale/listingtype_14/filterby_N", models.CategoryCondo},
	{"https://www.cireba.com/cayman-residential-property-for-sale/listingtype_4/filterby_N", models.CategoryHome},
	{"https://www.cireba.com/cayman-residential-property-for-sale/listingtype_5/filterby_N", models.CategoryDuplex},
	{"https://www.cireba.com/cayman-land-for-sale/filterby_N", models.CategoryLand},
}

var (
	// listingPattern captures every CIREBA card across all islands and both
	// layouts: properties carry SqFt/Beds/Baths bullets, land carries Acres.
	listingPattern = regexp.MustCompile(
		`(?s)\[ MLS#: (\d+)\s+([^\n]*?)\n` +
			`\s*\*\s*` +
			`(?:` +
			`([\d,]+)\s+SqFt\n\s*\*\s*(\d+(?:\.\d+)?)\s+Beds?\n\s*\*\s*(\d+(?:\.\d+)?)\s+Baths?` +
			`|` +
			`([\d.]+)\s+Acres` +
			`)\n\n` +
			`([^,\n]+),\s*` +
			`(Grand Cayman|Little Cayman|Cayman Brac)\s+` +
			`(CI\$|US\$)([\d,\.]+)\s*` +
			`\]\((https://www\.cireba\.com/property-detail/[^\s)]+)\s+"[^"]*"\)`)

	// imagePattern associates a card's cover image with its detail link.
	imagePattern = regexp.MustCompile(
		`\[ !\[([^\]]*)\]\(([^)]*)\) \]\((https://www\.cireba\.com/property-detail/[^\s)]+)\s+"[^"]*"\)`)
)

// Source is the primary-marketplace crawl definition.
type Source struct {
	cfg  *config.Config
	norm *services.Normalizer
}

// New creates the CIREBA source.
func New(cfg *config.Config, norm *services.Normalizer) *Source {
	return &Source{cfg: cfg, norm: norm}
}

func (s *Source) Name() string { return Name }

// Units enumerates every (category, page) fetch unit up to the page cap.
// Page 1 is the base query URL; deeper pages use the site's fragment paging.
func (s *Source) Units() []fetch.Unit {
	var units []fetch.Unit
	for _, q := range baseQueries {
		for page := 1; page <= s.cfg.PageCap; page++ {
			url := q.url
			if page > 1 {
				url = fmt.Sprintf("%s#%d", q.url, page)
			}
			units = append(units, fetch.Unit{
				Category: q.category,
				Page:     page,
				URL:      url,
			})
		}
	}
	return units
}

// ParsePage turns one raw page into zero or more listings. A page past the
// end of a category's results simply yields no matches. Listings under the
// category price floor are excluded, not errors; any field that fails to
// convert aborts the run.
func (s *Source) ParsePage(page fetch.Page) ([]*models.Listing, error) {
	images := make(map[string]string)
	for _, m := range imagePattern.FindAllStringSubmatch(page.Content, -1) {
		if _, ok := images[m[3]]; !ok {
			images[m[3]] = m[2]
		}
	}

	var listings []*models.Listing
	for _, m := range listingPattern.FindAllStringSubmatch(page.Content, -1) {
		l, err := s.buildListing(m, page.Unit, images)
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

// buildListing converts one regex match. A nil listing with nil error means
// the record was validly parsed but excluded by the price floor.
func (s *Source) buildListing(m []string, unit fetch.Unit, images map[string]string) (*models.Listing, error) {
	var (
		mlsNumber = m[1]
		title     = m[2]
		sqftRaw   = m[3]
		bedsRaw   = m[4]
		bathsRaw  = m[5]
		acresRaw  = m[6]
		district  = m[7]
		island    = m[8]
		currency  = m[9]
		rawPrice  = m[10]
		link      = m[11]
	)

	priceUSD, err := s.norm.NormalizePrice(rawPrice, currency)
	if err != nil {
		return nil, fmt.Errorf("listing %s (%s): %w", mlsNumber, title, err)
	}

	// Every base query fixes the category through its listing-type segment.
	category := unit.Category

	if s.norm.BelowFloor(category, priceUSD) {
		return nil, nil
	}

	sqft, err := s.norm.NormalizeArea(sqftRaw)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", mlsNumber, err)
	}
	beds, err := s.norm.NormalizeCount("beds", bedsRaw)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", mlsNumber, err)
	}
	baths, err := s.norm.NormalizeCount("baths", bathsRaw)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", mlsNumber, err)
	}
	acres, err := s.norm.NormalizeAcres(acresRaw)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", mlsNumber, err)
	}

	var imageURLs []string
	if img := images[link]; img != "" {
		imageURLs = append(imageURLs, img)
	}

	fxRate := s.norm.Rate()
	if currency == "US$" {
		fxRate = decimalOne
	}

	return &models.Listing{
		Source:        models.SourceCIREBA,
		Link:          link,
		MLSNumber:     mlsNumber,
		Category:      category,
		Island:        island,
		District:      district,
		PriceUSD:      priceUSD,
		Beds:          beds,
		Baths:         baths,
		SquareFootage: sqft,
		Acres:         acres,
		ImageURLs:     imageURLs,
		RawPrice:      rawPrice,
		Currency:      currency,
		FXRateUsed:    fxRate,
		ScrapedAt:     time.Now().UTC(),
	}, nil
}

var decimalOne = decimal.NewFromInt(1)
