package services

import (
	"testing"

	"cayman-scraper/models"
)

func listingWithLink(link string) *models.Listing {
	return &models.Listing{Source: models.SourceCIREBA, Link: link}
}

func TestDeduplicateKeepsFirstOccurrence(t *testing.T) {
	a1 := listingWithLink("https://www.cireba.com/property-detail/a")
	b := listingWithLink("https://www.cireba.com/property-detail/b")
	a2 := listingWithLink("https://www.cireba.com/property-detail/a")
	c := listingWithLink("https://www.cireba.com/property-detail/c")

	got := Deduplicate([]*models.Listing{a1, b, a2, c})

	if len(got) != 3 {
		t.Fatalf("got %d listings; want 3", len(got))
	}
	if got[0] != a1 || got[1] != b || got[2] != c {
		t.Error("deduplication did not preserve first-seen order")
	}
}

func TestDeduplicateIsIdempotent(t *testing.T) {
	in := []*models.Listing{
		listingWithLink("https://www.cireba.com/property-detail/a"),
		listingWithLink("https://www.cireba.com/property-detail/a"),
		listingWithLink("https://www.cireba.com/property-detail/b"),
	}

	once := Deduplicate(in)
	twice := Deduplicate(once)

	if len(twice) != len(once) {
		t.Fatalf("second pass changed size: %d vs %d", len(twice), len(once))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Fatalf("second pass changed element %d", i)
		}
	}
}

func TestDeduplicateEmptyInput(t *testing.T) {
	if got := Deduplicate(nil); len(got) != 0 {
		t.Errorf("got %d listings from nil input; want 0", len(got))
	}
}
