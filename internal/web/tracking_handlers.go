package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rumfor/market-tracker/internal/tracking"
)

// handleAPITrackings routes /api/trackings requests. Everything here
// is scoped to the authenticated caller.
func (s *Server) handleAPITrackings(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.identity(w, r)
	if !ok {
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/trackings")
	path = strings.TrimPrefix(path, "/")

	// /api/trackings — list the caller's tracked markets
	if path == "" {
		if r.Method != http.MethodGet {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiListTrackings(w, caller.UserID)
		return
	}

	// /api/trackings/todos/{todoID} — toggle completion
	if todoStr := strings.TrimPrefix(path, "todos/"); todoStr != path {
		todoID, err := strconv.ParseInt(todoStr, 10, 64)
		if err != nil {
			apiError(w, "invalid todo ID", http.StatusBadRequest)
			return
		}
		if r.Method != http.MethodPatch && r.Method != http.MethodPut {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiSetTodoDone(w, r, todoID)
		return
	}

	segments := strings.SplitN(path, "/", 2)
	trackingID, err := strconv.ParseInt(segments[0], 10, 64)
	if err != nil {
		apiError(w, "invalid tracking ID", http.StatusBadRequest)
		return
	}

	// Ownership check before touching sub-resources.
	tr, err := s.trackingRepo.GetByID(trackingID)
	if err != nil {
		apiError(w, "tracking not found", http.StatusNotFound)
		return
	}
	if tr.UserID != caller.UserID {
		apiError(w, "not your tracking", http.StatusForbidden)
		return
	}

	if len(segments) == 1 {
		if r.Method != http.MethodGet {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		apiJSON(w, tr, http.StatusOK)
		return
	}

	switch segments[1] {
	case "status":
		if r.Method != http.MethodPut {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiUpdateTrackingStatus(w, r, tr)
	case "notes":
		if r.Method != http.MethodPut {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiUpdateTrackingNotes(w, r, tr)
	case "todos":
		switch r.Method {
		case http.MethodGet:
			s.apiListTodos(w, trackingID)
		case http.MethodPost:
			s.apiAddTodo(w, r, trackingID)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	case "expenses":
		switch r.Method {
		case http.MethodGet:
			s.apiListExpenses(w, trackingID)
		case http.MethodPost:
			s.apiAddExpense(w, r, trackingID)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	default:
		apiError(w, "not found", http.StatusNotFound)
	}
}

// apiListTrackings returns the caller's tracked markets with aggregates.
func (s *Server) apiListTrackings(w http.ResponseWriter, userID int64) {
	trackings, err := s.trackingRepo.ListByUser(userID)
	if err != nil {
		apiError(w, fmt.Sprintf("listing trackings: %v", err), http.StatusInternalServerError)
		return
	}

	if trackings == nil {
		trackings = make([]*tracking.Tracking, 0)
	}

	apiJSON(w, trackings, http.StatusOK)
}

// apiUpdateTrackingStatus moves a tracking to a new status. Reaching
// applied also counts as a vendor application on the market.
func (s *Server) apiUpdateTrackingStatus(w http.ResponseWriter, r *http.Request, tr *tracking.Tracking) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	status := tracking.Status(req.Status)
	if !status.IsValid() {
		apiError(w, fmt.Sprintf("invalid tracking status: %q", req.Status), http.StatusBadRequest)
		return
	}

	if err := s.trackingRepo.UpdateStatus(tr.UserID, tr.MarketID, status); err != nil {
		apiError(w, fmt.Sprintf("updating status: %v", err), http.StatusInternalServerError)
		return
	}

	if status == tracking.StatusApplied && tr.Status != tracking.StatusApplied {
		if err := s.marketRepo.IncrementApplications(tr.MarketID); err != nil {
			apiError(w, fmt.Sprintf("updating applications: %v", err), http.StatusInternalServerError)
			return
		}
	}

	updated, err := s.trackingRepo.GetByID(tr.ID)
	if err != nil {
		apiError(w, fmt.Sprintf("reloading tracking: %v", err), http.StatusInternalServerError)
		return
	}

	apiJSON(w, updated, http.StatusOK)
}

// apiUpdateTrackingNotes replaces the free-form notes.
func (s *Server) apiUpdateTrackingNotes(w http.ResponseWriter, r *http.Request, tr *tracking.Tracking) {
	var req struct {
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if err := s.trackingRepo.UpdateNotes(tr.ID, req.Notes); err != nil {
		apiError(w, fmt.Sprintf("updating notes: %v", err), http.StatusInternalServerError)
		return
	}

	updated, err := s.trackingRepo.GetByID(tr.ID)
	if err != nil {
		apiError(w, fmt.Sprintf("reloading tracking: %v", err), http.StatusInternalServerError)
		return
	}

	apiJSON(w, updated, http.StatusOK)
}

// apiListTodos returns preparation tasks for a tracking.
func (s *Server) apiListTodos(w http.ResponseWriter, trackingID int64) {
	todos, err := s.trackingRepo.ListTodos(trackingID)
	if err != nil {
		apiError(w, fmt.Sprintf("listing todos: %v", err), http.StatusInternalServerError)
		return
	}

	if todos == nil {
		todos = make([]*tracking.Todo, 0)
	}

	apiJSON(w, todos, http.StatusOK)
}

// apiAddTodo records a preparation task.
func (s *Server) apiAddTodo(w http.ResponseWriter, r *http.Request, trackingID int64) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	todo, err := s.trackingRepo.AddTodo(trackingID, req.Title)
	if err != nil {
		if strings.Contains(err.Error(), "required") {
			apiError(w, err.Error(), http.StatusBadRequest)
			return
		}
		apiError(w, fmt.Sprintf("adding todo: %v", err), http.StatusInternalServerError)
		return
	}

	apiJSON(w, todo, http.StatusCreated)
}

// apiSetTodoDone toggles a todo's completion flag. The todo must
// belong to one of the caller's trackings.
func (s *Server) apiSetTodoDone(w http.ResponseWriter, r *http.Request, todoID int64) {
	caller, ok := s.identity(w, r)
	if !ok {
		return
	}

	var req struct {
		Done bool `json:"done"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	owned, err := s.todoBelongsToUser(todoID, caller.UserID)
	if err != nil {
		apiError(w, fmt.Sprintf("checking todo: %v", err), http.StatusInternalServerError)
		return
	}
	if !owned {
		apiError(w, "todo not found", http.StatusNotFound)
		return
	}

	if err := s.trackingRepo.SetTodoDone(todoID, req.Done); err != nil {
		apiError(w, fmt.Sprintf("updating todo: %v", err), http.StatusInternalServerError)
		return
	}

	apiJSON(w, map[string]interface{}{"id": todoID, "done": req.Done}, http.StatusOK)
}

func (s *Server) todoBelongsToUser(todoID, userID int64) (bool, error) {
	trackings, err := s.trackingRepo.ListByUser(userID)
	if err != nil {
		return false, err
	}
	for _, tr := range trackings {
		todos, err := s.trackingRepo.ListTodos(tr.ID)
		if err != nil {
			return false, err
		}
		for _, todo := range todos {
			if todo.ID == todoID {
				return true, nil
			}
		}
	}
	return false, nil
}

// apiListExpenses returns costs recorded against a tracking.
func (s *Server) apiListExpenses(w http.ResponseWriter, trackingID int64) {
	expenses, err := s.trackingRepo.ListExpenses(trackingID)
	if err != nil {
		apiError(w, fmt.Sprintf("listing expenses: %v", err), http.StatusInternalServerError)
		return
	}

	if expenses == nil {
		expenses = make([]*tracking.Expense, 0)
	}

	apiJSON(w, expenses, http.StatusOK)
}

// apiAddExpense records a cost.
func (s *Server) apiAddExpense(w http.ResponseWriter, r *http.Request, trackingID int64) {
	var req struct {
		Description string `json:"description"`
		AmountCents int64  `json:"amountCents"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	e, err := s.trackingRepo.AddExpense(trackingID, req.Description, req.AmountCents)
	if err != nil {
		if strings.Contains(err.Error(), "required") || strings.Contains(err.Error(), "negative") {
			apiError(w, err.Error(), http.StatusBadRequest)
			return
		}
		apiError(w, fmt.Sprintf("adding expense: %v", err), http.StatusInternalServerError)
		return
	}

	apiJSON(w, e, http.StatusCreated)
}
