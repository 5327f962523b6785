package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/rumfor/market-tracker/internal/auth"
	"github.com/rumfor/market-tracker/internal/market"
	"github.com/rumfor/market-tracker/internal/tracking"
)

// handleAPIMarkets routes /api/markets requests.
func (s *Server) handleAPIMarkets(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/markets")
	path = strings.TrimPrefix(path, "/")

	// /api/markets — list or create
	if path == "" || path == "search" {
		switch r.Method {
		case http.MethodGet:
			s.apiListMarkets(w, r)
		case http.MethodPost:
			s.apiCreateMarket(w, r)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// /api/markets/{id}/comments
	if rest, ok := trimIDSuffix(path, "/comments"); ok {
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			apiError(w, "invalid market ID", http.StatusBadRequest)
			return
		}
		switch r.Method {
		case http.MethodGet:
			s.apiListComments(w, id)
		case http.MethodPost:
			s.apiAddComment(w, r, id)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// /api/markets/{id}/track
	if rest, ok := trimIDSuffix(path, "/track"); ok {
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			apiError(w, "invalid market ID", http.StatusBadRequest)
			return
		}
		switch r.Method {
		case http.MethodPost:
			s.apiTrackMarket(w, r, id)
		case http.MethodDelete:
			s.apiUntrackMarket(w, r, id)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// /api/markets/{id}/untrack
	if rest, ok := trimIDSuffix(path, "/untrack"); ok {
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			apiError(w, "invalid market ID", http.StatusBadRequest)
			return
		}
		if r.Method != http.MethodPost && r.Method != http.MethodDelete {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiUntrackMarket(w, r, id)
		return
	}

	// /api/markets/{id}/status
	if rest, ok := trimIDSuffix(path, "/status"); ok {
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			apiError(w, "invalid market ID", http.StatusBadRequest)
			return
		}
		if r.Method != http.MethodPut {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiUpdateMarketStatus(w, r, id)
		return
	}

	// /api/markets/{id} — show, update, or cancel
	id, err := strconv.ParseInt(path, 10, 64)
	if err != nil {
		apiError(w, "invalid market ID", http.StatusBadRequest)
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.apiGetMarket(w, r, id)
	case http.MethodPut:
		s.apiUpdateMarket(w, r, id)
	case http.MethodDelete:
		s.apiCancelMarket(w, r, id)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// trimIDSuffix splits "{id}{suffix}" and reports whether the suffix
// matched.
func trimIDSuffix(path, suffix string) (string, bool) {
	if !strings.HasSuffix(path, suffix) {
		return "", false
	}
	return strings.TrimSuffix(path, suffix), true
}

// apiListMarkets runs the filter pipeline over the full market list.
func (s *Server) apiListMarkets(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	markets, err := s.marketRepo.List(market.ListOptions{})
	if err != nil {
		apiError(w, fmt.Sprintf("listing markets: %v", err), http.StatusInternalServerError)
		return
	}

	// Anonymous browsing only sees live markets. Authenticated callers
	// asking for specific statuses get what they asked for.
	if len(filters.Statuses) == 0 && auth.FromContext(r.Context()) == nil {
		filters.Statuses = []market.Status{market.StatusActive}
	}

	page := market.Apply(markets, filters)
	if page.Markets == nil {
		page.Markets = []*market.Market{}
	}

	apiPage(w, page.Markets, pagination{
		Page:       page.Page,
		Limit:      page.Limit,
		Total:      page.Total,
		TotalPages: page.TotalPages,
	})
}

// parseFilters builds the in-memory filter set from query parameters.
func parseFilters(r *http.Request) (market.Filters, error) {
	q := r.URL.Query()
	f := market.Filters{
		Search:        strings.TrimSpace(q.Get("search")),
		Location:      strings.TrimSpace(q.Get("location")),
		Accessibility: splitParam(q.Get("accessibility")),
		Tags:          splitParam(q.Get("tags")),
	}
	// The search endpoint uses "q".
	if f.Search == "" {
		f.Search = strings.TrimSpace(q.Get("q"))
	}

	for _, c := range splitParam(q.Get("category")) {
		cat := market.Category(c)
		if !cat.IsValid() {
			return f, fmt.Errorf("invalid category: %q", c)
		}
		f.Categories = append(f.Categories, cat)
	}

	for _, st := range splitParam(q.Get("status")) {
		status := market.Status(st)
		if !status.IsValid() {
			return f, fmt.Errorf("invalid status: %q", st)
		}
		f.Statuses = append(f.Statuses, status)
	}

	if sort := q.Get("sort"); sort != "" {
		switch key := market.SortKey(sort); key {
		case market.SortDateNewest, market.SortDateOldest,
			market.SortNameAsc, market.SortNameDesc, market.SortPopularity:
			f.Sort = key
		default:
			return f, fmt.Errorf("invalid sort: %q", sort)
		}
	}

	if pageStr := q.Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			return f, fmt.Errorf("page must be a positive integer")
		}
		f.Page = page
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			return f, fmt.Errorf("limit must be a positive integer")
		}
		f.Limit = limit
	}

	return f, nil
}

func splitParam(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// apiCreateMarket adds a new market owned by the caller.
func (s *Server) apiCreateMarket(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}

	var m market.Market
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(m.Name) == "" {
		apiError(w, "name is required", http.StatusBadRequest)
		return
	}
	if !m.Category.IsValid() {
		apiError(w, fmt.Sprintf("invalid category: %q", m.Category), http.StatusBadRequest)
		return
	}

	m.PromoterID = id.UserID
	m.Status = market.StatusDraft

	created, err := s.marketRepo.Insert(&m)
	if err != nil {
		apiError(w, fmt.Sprintf("creating market: %v", err), http.StatusInternalServerError)
		return
	}

	apiJSON(w, created, http.StatusCreated)
}

// apiGetMarket returns one market and counts the view.
func (s *Server) apiGetMarket(w http.ResponseWriter, r *http.Request, id int64) {
	m, err := s.marketRepo.GetByID(id)
	if err != nil {
		apiError(w, "market not found", http.StatusNotFound)
		return
	}

	if err := s.marketRepo.IncrementViews(id); err == nil {
		m.Stats.Views++
	}

	// Annotate tracking state for logged-in callers.
	type response struct {
		Market  *market.Market `json:"market"`
		Tracked bool           `json:"tracked"`
	}
	resp := response{Market: m}
	if caller := auth.FromContext(r.Context()); caller != nil {
		tracked, err := s.trackingRepo.IsTracked(caller.UserID, id)
		if err == nil {
			resp.Tracked = tracked
		}
	}

	apiJSON(w, resp, http.StatusOK)
}

// canManageMarket checks whether the caller owns the market or is an admin.
func (s *Server) canManageMarket(id *auth.Identity, m *market.Market) bool {
	if id == nil {
		return false
	}
	if m.PromoterID == id.UserID {
		return true
	}
	u, err := s.users.GetByID(id.UserID)
	if err != nil {
		return false
	}
	return s.users.IsAdmin(u)
}

// apiUpdateMarket rewrites a market's editable fields.
func (s *Server) apiUpdateMarket(w http.ResponseWriter, r *http.Request, id int64) {
	caller, ok := s.identity(w, r)
	if !ok {
		return
	}

	existing, err := s.marketRepo.GetByID(id)
	if err != nil {
		apiError(w, "market not found", http.StatusNotFound)
		return
	}
	if !s.canManageMarket(caller, existing) {
		apiError(w, "not your market", http.StatusForbidden)
		return
	}

	var m market.Market
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(m.Name) == "" {
		apiError(w, "name is required", http.StatusBadRequest)
		return
	}

	m.ID = id
	updated, err := s.marketRepo.Update(&m)
	if err != nil {
		if strings.Contains(err.Error(), "invalid") {
			apiError(w, err.Error(), http.StatusBadRequest)
			return
		}
		apiError(w, fmt.Sprintf("updating market: %v", err), http.StatusInternalServerError)
		return
	}

	apiJSON(w, updated, http.StatusOK)
}

// apiUpdateMarketStatus transitions a market's lifecycle status.
func (s *Server) apiUpdateMarketStatus(w http.ResponseWriter, r *http.Request, id int64) {
	caller, ok := s.identity(w, r)
	if !ok {
		return
	}

	existing, err := s.marketRepo.GetByID(id)
	if err != nil {
		apiError(w, "market not found", http.StatusNotFound)
		return
	}
	if !s.canManageMarket(caller, existing) {
		apiError(w, "not your market", http.StatusForbidden)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	status := market.Status(req.Status)
	if !status.IsValid() {
		apiError(w, fmt.Sprintf("invalid status: %q", req.Status), http.StatusBadRequest)
		return
	}

	if err := s.marketRepo.UpdateStatus(id, status); err != nil {
		apiError(w, fmt.Sprintf("updating status: %v", err), http.StatusInternalServerError)
		return
	}

	apiJSON(w, map[string]interface{}{"id": id, "status": status}, http.StatusOK)
}

// apiCancelMarket soft-removes a market by transitioning to cancelled.
func (s *Server) apiCancelMarket(w http.ResponseWriter, r *http.Request, id int64) {
	caller, ok := s.identity(w, r)
	if !ok {
		return
	}

	existing, err := s.marketRepo.GetByID(id)
	if err != nil {
		apiError(w, "market not found", http.StatusNotFound)
		return
	}
	if !s.canManageMarket(caller, existing) {
		apiError(w, "not your market", http.StatusForbidden)
		return
	}

	if err := s.marketRepo.UpdateStatus(id, market.StatusCancelled); err != nil {
		apiError(w, fmt.Sprintf("cancelling market: %v", err), http.StatusInternalServerError)
		return
	}

	apiJSON(w, map[string]interface{}{"id": id, "status": market.StatusCancelled}, http.StatusOK)
}

// apiTrackMarket starts tracking a market for the caller.
func (s *Server) apiTrackMarket(w http.ResponseWriter, r *http.Request, marketID int64) {
	caller, ok := s.identity(w, r)
	if !ok {
		return
	}

	if _, err := s.marketRepo.GetByID(marketID); err != nil {
		apiError(w, "market not found", http.StatusNotFound)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apiError(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
	}

	tr, err := s.trackingRepo.Track(caller.UserID, marketID, tracking.Status(req.Status))
	if err != nil {
		if strings.Contains(err.Error(), "already tracked") {
			apiError(w, err.Error(), http.StatusConflict)
			return
		}
		if strings.Contains(err.Error(), "invalid") {
			apiError(w, err.Error(), http.StatusBadRequest)
			return
		}
		apiError(w, fmt.Sprintf("tracking market: %v", err), http.StatusInternalServerError)
		return
	}

	// A new tracker counts as a favorite. The tracking row is already
	// committed, so a stale counter must not fail the request.
	if err := s.marketRepo.AdjustFavorites(marketID, 1); err != nil {
		slog.Warn("adjusting favorites", "marketId", marketID, "error", err)
	}

	apiJSON(w, tr, http.StatusCreated)
}

// apiUntrackMarket stops tracking a market for the caller.
func (s *Server) apiUntrackMarket(w http.ResponseWriter, r *http.Request, marketID int64) {
	caller, ok := s.identity(w, r)
	if !ok {
		return
	}

	if err := s.trackingRepo.Untrack(caller.UserID, marketID); err != nil {
		if strings.Contains(err.Error(), "not tracked") {
			apiError(w, err.Error(), http.StatusNotFound)
			return
		}
		apiError(w, fmt.Sprintf("untracking market: %v", err), http.StatusInternalServerError)
		return
	}

	if err := s.marketRepo.AdjustFavorites(marketID, -1); err != nil {
		slog.Warn("adjusting favorites", "marketId", marketID, "error", err)
	}

	apiJSON(w, map[string]interface{}{"marketId": marketID, "tracked": false}, http.StatusOK)
}
