package httpadapter

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tradepost/internal/domain"
	"tradepost/internal/ports"
)

type listingRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	Location    string  `json:"location"`
}

func (lr listingRequest) input() ports.ListingInput {
	return ports.ListingInput{
		Title:       lr.Title,
		Description: lr.Description,
		Price:       lr.Price,
		Category:    lr.Category,
		Subcategory: lr.Subcategory,
		Location:    lr.Location,
	}
}

type listingResponse struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	CompanyName string    `json:"company_name"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory"`
	Location    string    `json:"location"`
	Status      string    `json:"status"`
	Featured    bool      `json:"featured"`
	Clicks      int64     `json:"clicks"`
	CreatedAt   time.Time `json:"created_at"`
}

func toListingResponse(l *domain.Listing) listingResponse {
	return listingResponse{
		ID:          l.ID.String(),
		CompanyID:   l.CompanyID.String(),
		CompanyName: l.CompanyName,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Category:    l.Category,
		Subcategory: l.Subcategory,
		Location:    l.Location,
		Status:      string(l.Status),
		Featured:    l.Featured,
		Clicks:      l.Clicks,
		CreatedAt:   l.CreatedAt,
	}
}

func idParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, domain.ErrNotFound
	}
	return id, nil
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	var req listingRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	l, err := s.listings.Create(r.Context(), principalFrom(r), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toListingResponse(l))
}

func (s *Server) handleViewListing(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	l, err := s.listings.View(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(l))
}

func (s *Server) handleUpdateListing(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req listingRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	l, err := s.listings.Update(r.Context(), principalFrom(r), id, req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(l))
}

func (s *Server) handleListingStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.listings.SetStatus(r.Context(), principalFrom(r), id, domain.ListingStatus(req.Status)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCompanyListings(w http.ResponseWriter, r *http.Request) {
	companyID, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	listings, err := s.listings.ListByCompany(r.Context(), companyID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]listingResponse, 0, len(listings))
	for i := range listings {
		out = append(out, toListingResponse(&listings[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"listings": out})
}

func (s *Server) handleToggleFeatured(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	nowFeatured, err := s.featured.Toggle(r.Context(), principalFrom(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"featured": nowFeatured})
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	isFavorited, err := s.favorites.Toggle(r.Context(), principalFrom(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_favorited": isFavorited})
}

func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	ids, err := s.favorites.List(r.Context(), principalFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	writeJSON(w, http.StatusOK, map[string][]string{"listing_ids": out})
}
