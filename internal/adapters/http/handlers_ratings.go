package httpadapter

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tradepost/internal/domain"
)

func subjectParam(r *http.Request) (domain.PrincipalRef, error) {
	kind := domain.PrincipalKind(chi.URLParam(r, "kind"))
	if kind != domain.KindIndividual && kind != domain.KindCompany {
		return domain.PrincipalRef{}, domain.ErrNotFound
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return domain.PrincipalRef{}, domain.ErrNotFound
	}
	return domain.PrincipalRef{Kind: kind, ID: id}, nil
}

func (s *Server) handleRating(w http.ResponseWriter, r *http.Request) {
	subject, err := subjectParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	avg, err := s.ratings.Average(r.Context(), subject)
	if err != nil {
		writeError(w, err)
		return
	}
	breakdown, err := s.ratings.Breakdown(r.Context(), subject)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"average":   avg,
		"breakdown": breakdown,
	})
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	subject, err := subjectParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Value int `json:"value"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.ratings.Rate(r.Context(), principalFrom(r), subject, req.Value); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	companyID, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		OrderRef string `json:"order_ref"`
		Value    int    `json:"value"`
		Body     string `json:"body"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	review, err := s.ratings.SubmitReview(r.Context(), principalFrom(r), companyID, req.OrderRef, req.Value, req.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": review.ID.String()})
}

func (s *Server) handleReviewHidden(w http.ResponseWriter, r *http.Request) {
	reviewID, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Hidden bool `json:"hidden"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.ratings.SetReviewHidden(r.Context(), principalFrom(r), reviewID, req.Hidden); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
