package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rumfor/market-tracker/internal/auth"
	"github.com/rumfor/market-tracker/internal/comment"
)

// apiListComments returns comments for a market, newest first.
func (s *Server) apiListComments(w http.ResponseWriter, id int64) {
	comments, err := s.commentRepo.ListByMarketID(id)
	if err != nil {
		apiError(w, fmt.Sprintf("loading comments: %v", err), http.StatusInternalServerError)
		return
	}

	if comments == nil {
		comments = make([]*comment.Comment, 0)
	}

	apiJSON(w, comments, http.StatusOK)
}

// apiAddComment adds a comment to a market.
func (s *Server) apiAddComment(w http.ResponseWriter, r *http.Request, id int64) {
	caller, ok := s.identity(w, r)
	if !ok {
		return
	}

	if _, err := s.marketRepo.GetByID(id); err != nil {
		apiError(w, "market not found", http.StatusNotFound)
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		apiError(w, "text is required", http.StatusBadRequest)
		return
	}

	c, err := s.commentRepo.Add(id, commentAuthor(caller), strings.TrimSpace(req.Text))
	if err != nil {
		apiError(w, fmt.Sprintf("adding comment: %v", err), http.StatusInternalServerError)
		return
	}

	if err := s.marketRepo.IncrementComments(id); err != nil {
		apiError(w, fmt.Sprintf("updating comment count: %v", err), http.StatusInternalServerError)
		return
	}

	apiJSON(w, c, http.StatusCreated)
}

func commentAuthor(id *auth.Identity) string {
	if id == nil {
		return ""
	}
	return id.Email
}
