package market

import (
	"fmt"
	"testing"
)

func sampleMarkets() []*Market {
	return []*Market{
		{
			ID:       1,
			Name:     "Downtown Farmers Market",
			Category: CategoryFarmersMarket,
			Status:   StatusActive,
			Location: Location{City: "Portland", State: "OR"},
			Tags:     []string{"organic", "produce"},
			Accessibility: Accessibility{
				WheelchairAccess: true,
				Parking:          true,
			},
			Stats:    Stats{Views: 100, Favorites: 10},
			Schedule: Schedule{Sessions: []Session{{StartDate: "2026-06-01", EndDate: "2026-06-01"}}},
		},
		{
			ID:       2,
			Name:     "Riverside Craft Fair",
			Category: CategoryCraftFair,
			Status:   StatusActive,
			Location: Location{City: "Salem", State: "OR"},
			Tags:     []string{"handmade"},
			Stats:    Stats{Views: 50, Favorites: 40},
			Schedule: Schedule{Sessions: []Session{{StartDate: "2026-07-01", EndDate: "2026-07-01"}}},
		},
		{
			ID:       3,
			Name:     "Night Bazaar",
			Category: CategoryNightMarket,
			Status:   StatusPending,
			Location: Location{City: "Eugene", State: "OR"},
			Tags:     []string{"food", "music"},
			Accessibility: Accessibility{
				Parking: true,
			},
			Stats:    Stats{Views: 500},
			Schedule: Schedule{Sessions: []Session{{StartDate: "2026-05-01", EndDate: "2026-05-01"}}},
		},
	}
}

func TestApplyNoFilters(t *testing.T) {
	markets := sampleMarkets()
	page := Apply(markets, Filters{})

	if page.Total != 3 {
		t.Errorf("total = %d, want 3", page.Total)
	}
	if len(page.Markets) != 3 {
		t.Errorf("got %d markets, want 3", len(page.Markets))
	}
}

func TestApplySearchAndCategoryScenario(t *testing.T) {
	markets := sampleMarkets()
	page := Apply(markets, Filters{
		Categories: []Category{CategoryFarmersMarket},
		Search:     "downtown",
	})

	if len(page.Markets) != 1 {
		t.Fatalf("got %d markets, want 1", len(page.Markets))
	}
	if page.Markets[0].ID != 1 {
		t.Errorf("matched market %d, want 1", page.Markets[0].ID)
	}
}

func TestApplySearchMatchesTagsAndCity(t *testing.T) {
	tests := []struct {
		name   string
		search string
		wantID int64
	}{
		{"tag match", "handmade", 2},
		{"city match", "eugene", 3},
		{"name match case-insensitive", "DOWNTOWN", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Apply(sampleMarkets(), Filters{Search: tt.search})
			if len(page.Markets) != 1 {
				t.Fatalf("got %d markets, want 1", len(page.Markets))
			}
			if page.Markets[0].ID != tt.wantID {
				t.Errorf("matched market %d, want %d", page.Markets[0].ID, tt.wantID)
			}
		})
	}
}

func TestApplyStatusFilter(t *testing.T) {
	page := Apply(sampleMarkets(), Filters{Statuses: []Status{StatusActive}})

	if len(page.Markets) != 2 {
		t.Fatalf("got %d markets, want 2", len(page.Markets))
	}
	for _, m := range page.Markets {
		if m.Status != StatusActive {
			t.Errorf("market %d has status %s", m.ID, m.Status)
		}
	}
}

func TestApplyLocationFilter(t *testing.T) {
	page := Apply(sampleMarkets(), Filters{Location: "salem"})

	if len(page.Markets) != 1 || page.Markets[0].ID != 2 {
		t.Fatalf("location filter failed: %+v", page.Markets)
	}

	// State matches too
	page = Apply(sampleMarkets(), Filters{Location: "or"})
	if len(page.Markets) != 3 {
		t.Errorf("state match: got %d markets, want 3", len(page.Markets))
	}
}

func TestApplyAccessibilityANDSemantics(t *testing.T) {
	// Parking alone matches two markets
	page := Apply(sampleMarkets(), Filters{Accessibility: []string{"parking"}})
	if len(page.Markets) != 2 {
		t.Fatalf("parking: got %d markets, want 2", len(page.Markets))
	}

	// Parking AND wheelchair access narrows to one
	page = Apply(sampleMarkets(), Filters{Accessibility: []string{"parking", "wheelchairAccess"}})
	if len(page.Markets) != 1 || page.Markets[0].ID != 1 {
		t.Fatalf("AND semantics failed: %+v", page.Markets)
	}
}

func TestApplyTagIntersection(t *testing.T) {
	page := Apply(sampleMarkets(), Filters{Tags: []string{"music", "organic"}})

	if len(page.Markets) != 2 {
		t.Fatalf("got %d markets, want 2 (any-tag semantics)", len(page.Markets))
	}
}

func TestApplyResultIsSubset(t *testing.T) {
	markets := sampleMarkets()
	byID := make(map[int64]bool)
	for _, m := range markets {
		byID[m.ID] = true
	}

	filters := []Filters{
		{Search: "market"},
		{Categories: []Category{CategoryCraftFair}},
		{Statuses: []Status{StatusPending}, Tags: []string{"food"}},
		{Accessibility: []string{"wifi"}},
	}

	for i, f := range filters {
		page := Apply(markets, f)
		for _, m := range page.Markets {
			if !byID[m.ID] {
				t.Errorf("filter %d produced market %d not in input", i, m.ID)
			}
		}
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	markets := sampleMarkets()
	order := []int64{markets[0].ID, markets[1].ID, markets[2].ID}

	Apply(markets, Filters{Sort: SortNameDesc})

	for i, m := range markets {
		if m.ID != order[i] {
			t.Fatalf("input order changed at %d: got %d, want %d", i, m.ID, order[i])
		}
	}
}

func TestApplySortKeys(t *testing.T) {
	tests := []struct {
		name string
		sort SortKey
		want []int64
	}{
		{"date newest", SortDateNewest, []int64{2, 1, 3}},
		{"date oldest", SortDateOldest, []int64{3, 1, 2}},
		{"name asc", SortNameAsc, []int64{1, 3, 2}},
		{"name desc", SortNameDesc, []int64{2, 3, 1}},
		{"popularity", SortPopularity, []int64{3, 2, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Apply(sampleMarkets(), Filters{Sort: tt.sort})
			if len(page.Markets) != len(tt.want) {
				t.Fatalf("got %d markets, want %d", len(page.Markets), len(tt.want))
			}
			for i, id := range tt.want {
				if page.Markets[i].ID != id {
					t.Errorf("position %d = market %d, want %d", i, page.Markets[i].ID, id)
				}
			}
		})
	}
}

func TestApplyPagination(t *testing.T) {
	var markets []*Market
	for i := 1; i <= 7; i++ {
		markets = append(markets, &Market{
			ID:       int64(i),
			Name:     fmt.Sprintf("Market %d", i),
			Category: CategoryOther,
			Status:   StatusActive,
		})
	}

	page1 := Apply(markets, Filters{Page: 1, Limit: 3})
	if page1.Total != 7 || page1.TotalPages != 3 {
		t.Fatalf("total = %d, totalPages = %d, want 7 and 3", page1.Total, page1.TotalPages)
	}
	if len(page1.Markets) != 3 {
		t.Fatalf("page 1 has %d markets, want 3", len(page1.Markets))
	}

	// Concatenating all pages reproduces the full set exactly once
	var seen []int64
	for p := 1; p <= page1.TotalPages; p++ {
		page := Apply(markets, Filters{Page: p, Limit: 3})
		for _, m := range page.Markets {
			seen = append(seen, m.ID)
		}
	}
	if len(seen) != 7 {
		t.Fatalf("pages yielded %d markets, want 7", len(seen))
	}
	for i, id := range seen {
		if id != int64(i+1) {
			t.Errorf("position %d = market %d, want %d", i, id, i+1)
		}
	}
}

func TestApplyOutOfRangePage(t *testing.T) {
	page := Apply(sampleMarkets(), Filters{Page: 99, Limit: 10})

	if len(page.Markets) != 0 {
		t.Errorf("got %d markets, want empty slice", len(page.Markets))
	}
	if page.Total != 3 {
		t.Errorf("total = %d, want 3", page.Total)
	}
}

func TestApplyEmptyResultIsNotAnError(t *testing.T) {
	page := Apply(sampleMarkets(), Filters{Search: "no such market anywhere"})

	if page.Total != 0 {
		t.Errorf("total = %d, want 0", page.Total)
	}
	if len(page.Markets) != 0 {
		t.Errorf("got %d markets, want 0", len(page.Markets))
	}
}
