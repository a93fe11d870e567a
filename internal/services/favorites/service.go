package favorites

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"tradepost/internal/domain"
	"tradepost/internal/ports"
	"tradepost/internal/services/authz"
)

// Service is each individual's favorite-listing set, exposed as an
// idempotent toggle. The repository call is a single atomic
// read-modify-write per individual, so rapid double-toggles from two tabs
// cannot lose an update.
type Service struct {
	favorites ports.FavoriteRepository
	listings  ports.ListingRepository
	gate      *authz.Gate
}

func New(favorites ports.FavoriteRepository, listings ports.ListingRepository, gate *authz.Gate) *Service {
	return &Service{favorites: favorites, listings: listings, gate: gate}
}

// Toggle adds the listing to the actor's set if absent, removes it if
// present, and reports the resulting membership.
func (s *Service) Toggle(ctx context.Context, actor *domain.Principal, listingID uuid.UUID) (bool, error) {
	if d := s.gate.Authorize(actor, authz.ToggleFavorite, domain.PrincipalRef{}); d.Deny() {
		return false, denyErr(d)
	}
	l, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return false, fmt.Errorf("load listing: %w", err)
	}
	if l == nil {
		return false, domain.ErrNotFound
	}
	return s.favorites.ToggleFavorite(ctx, actor.ID, listingID)
}

// List is a pure read of the actor's own set. No cross-individual
// visibility.
func (s *Service) List(ctx context.Context, actor *domain.Principal) ([]uuid.UUID, error) {
	if d := s.gate.Authorize(actor, authz.ToggleFavorite, domain.PrincipalRef{}); d.Deny() {
		return nil, denyErr(d)
	}
	return s.favorites.ListFavorites(ctx, actor.ID)
}

func denyErr(d authz.Decision) error {
	if d.Reason == authz.ReasonUnauthenticated {
		return domain.ErrUnauthenticated
	}
	return fmt.Errorf("%w: %s", domain.ErrForbidden, d.Reason)
}
