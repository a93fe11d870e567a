package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"tradepost/internal/domain"
	"tradepost/internal/ports"
)

// Server translates HTTP to the core services and back. All authorization
// decisions live behind the ports; this layer only resolves the bearer
// token, decodes JSON and maps sentinel errors to status codes.
type Server struct {
	auth       ports.Auth
	listings   ports.Listings
	moderation ports.Moderation
	favorites  ports.Favorites
	featured   ports.Featured
	ratings    ports.Ratings
}

func New(auth ports.Auth, listings ports.Listings, moderation ports.Moderation, favorites ports.Favorites, featured ports.Featured, ratings ports.Ratings) *Server {
	return &Server{auth: auth, listings: listings, moderation: moderation, favorites: favorites, featured: featured, ratings: ratings}
}

type ctxKey string

const principalKey ctxKey = "tradepost.principal"
const tokenKey ctxKey = "tradepost.token"

// Routes returns the chi router for the whole API surface.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.bearer)

	r.Get("/healthz", s.handleHealthz)

	r.Post("/register/individual", s.handleRegister(domain.KindIndividual))
	r.Post("/register/company", s.handleRegister(domain.KindCompany))
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)
	r.Post("/password", s.handleChangePassword)

	r.Post("/listings", s.handleCreateListing)
	r.Get("/listings/{id}", s.handleViewListing)
	r.Patch("/listings/{id}", s.handleUpdateListing)
	r.Post("/listings/{id}/status", s.handleListingStatus)
	r.Post("/listings/{id}/featured", s.handleToggleFeatured)
	r.Post("/listings/{id}/favorite", s.handleToggleFavorite)
	r.Get("/favorites", s.handleListFavorites)
	r.Get("/companies/{id}/listings", s.handleCompanyListings)

	r.Post("/listings/{id}/comments", s.handleSubmitComment)
	r.Get("/listings/{id}/comments", s.handleListComments)
	r.Post("/companies/{id}/inquiries", s.handleSubmitInquiry)
	r.Get("/companies/{id}/inbox", s.handleInbox)

	r.Post("/moderation/{id}/status", s.handleTransition)
	r.Post("/moderation/{id}/reply", s.handleReply)
	r.Post("/moderation/{id}/flags", s.handleSetFlags)
	r.Delete("/moderation/{id}", s.handleDeleteItem)
	r.Post("/moderation/bulk", s.handleBulkTransition)

	r.Get("/principals/{kind}/{id}/rating", s.handleRating)
	r.Post("/principals/{kind}/{id}/rating", s.handleRate)
	r.Post("/companies/{id}/reviews", s.handleSubmitReview)
	r.Post("/reviews/{id}/hidden", s.handleReviewHidden)

	return r
}

// bearer resolves the Authorization header once per request. Missing or bad
// credentials do not fail here; endpoints that need a principal fail with
// 401 when none is in context.
func (s *Server) bearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			ctx := context.WithValue(r.Context(), tokenKey, token)
			p, err := s.auth.Resolve(ctx, token)
			if err == nil {
				ctx = context.WithValue(ctx, principalKey, p)
			} else if !domain.IsUnauthenticated(err) {
				writeError(w, err)
				return
			}
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

func principalFrom(r *http.Request) *domain.Principal {
	p, _ := r.Context().Value(principalKey).(*domain.Principal)
	return p
}

func tokenFrom(r *http.Request) string {
	t, _ := r.Context().Value(tokenKey).(string)
	return t
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ErrValidation
	}
	return nil
}

// writeError maps the expected sentinel outcomes to status codes; anything
// else is a 500 infrastructure failure.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case domain.IsUnauthenticated(err), errors.Is(err, domain.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrCapExceeded), errors.Is(err, domain.ErrEmailTaken):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
		writeJSON(w, status, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
