package market

import (
	"sort"
	"strings"
)

// SortKey selects how a filtered market list is ordered.
type SortKey string

const (
	SortDateNewest SortKey = "date-newest"
	SortDateOldest SortKey = "date-oldest"
	SortNameAsc    SortKey = "name-asc"
	SortNameDesc   SortKey = "name-desc"
	SortPopularity SortKey = "popularity"
)

// Filters narrows and orders an in-memory market list. The zero value
// matches everything. Filters are ephemeral UI state, never persisted.
type Filters struct {
	Search        string
	Categories    []Category
	Statuses      []Status
	Location      string
	Accessibility []string
	Tags          []string
	Sort          SortKey
	Page          int
	Limit         int
}

// Page is one page of filtered results plus the total match count, so
// callers can compute total pages without refiltering.
type Page struct {
	Markets    []*Market `json:"markets"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"totalPages"`
}

// Apply runs the filter stages in order, sorts stably, and paginates.
// The input list is never mutated. An empty result is not an error; an
// out-of-range page yields an empty slice.
func Apply(markets []*Market, f Filters) Page {
	filtered := make([]*Market, 0, len(markets))
	for _, m := range markets {
		if f.matches(m) {
			filtered = append(filtered, m)
		}
	}

	sortMarkets(filtered, f.Sort)

	total := len(filtered)

	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit <= 0 {
		return Page{Markets: filtered, Total: total, Page: 1, Limit: total, TotalPages: 1}
	}

	totalPages := (total + limit - 1) / limit
	lo := (page - 1) * limit
	hi := lo + limit
	if lo > total {
		lo, hi = total, total
	} else if hi > total {
		hi = total
	}

	return Page{
		Markets:    filtered[lo:hi],
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}

// matches applies every predicate stage; all must pass.
func (f Filters) matches(m *Market) bool {
	if f.Search != "" && !matchesSearch(m, f.Search) {
		return false
	}

	if len(f.Categories) > 0 && !containsCategory(f.Categories, m.Category) {
		return false
	}

	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, m.Status) {
		return false
	}

	if f.Location != "" {
		loc := strings.ToLower(f.Location)
		if !strings.Contains(strings.ToLower(m.Location.City), loc) &&
			!strings.Contains(strings.ToLower(m.Location.State), loc) {
			return false
		}
	}

	// AND semantics: every requested flag must be set on the market
	for _, flag := range f.Accessibility {
		if !m.Accessibility.Has(flag) {
			return false
		}
	}

	if len(f.Tags) > 0 {
		any := false
		for _, tag := range f.Tags {
			if m.HasTag(tag) {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}

	return true
}

// matchesSearch does a case-insensitive substring match against name,
// description, city, and tags.
func matchesSearch(m *Market, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(m.Name), q) ||
		strings.Contains(strings.ToLower(m.Description), q) ||
		strings.Contains(strings.ToLower(m.Location.City), q) {
		return true
	}
	for _, tag := range m.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// sortMarkets orders in place. The sort is stable so ties keep input
// order, which makes pagination reproduce the full set exactly once.
func sortMarkets(markets []*Market, key SortKey) {
	switch key {
	case SortDateNewest:
		sort.SliceStable(markets, func(i, j int) bool {
			return markets[i].FirstSessionDate() > markets[j].FirstSessionDate()
		})
	case SortDateOldest:
		sort.SliceStable(markets, func(i, j int) bool {
			return markets[i].FirstSessionDate() < markets[j].FirstSessionDate()
		})
	case SortNameAsc:
		sort.SliceStable(markets, func(i, j int) bool {
			return strings.ToLower(markets[i].Name) < strings.ToLower(markets[j].Name)
		})
	case SortNameDesc:
		sort.SliceStable(markets, func(i, j int) bool {
			return strings.ToLower(markets[i].Name) > strings.ToLower(markets[j].Name)
		})
	case SortPopularity:
		sort.SliceStable(markets, func(i, j int) bool {
			return markets[i].popularityScore() > markets[j].popularityScore()
		})
	}
}

func containsCategory(list []Category, c Category) bool {
	for _, v := range list {
		if v == c {
			return true
		}
	}
	return false
}

func containsStatus(list []Status, s Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
