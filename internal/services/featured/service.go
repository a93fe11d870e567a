package featured

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"tradepost/internal/domain"
	"tradepost/internal/ports"
	"tradepost/internal/services/authz"
)

// Service allocates the scarce featured-listing slots. Turning a listing off
// always succeeds; turning it on re-checks the caps inside the same atomic
// unit as the flag write, so two concurrent callers can never jointly
// overshoot a cap. A full cap yields domain.ErrCapExceeded and leaves state
// unchanged; nothing is ever evicted to make room.
type Service struct {
	listings ports.ListingRepository
	gate     *authz.Gate
	caps     domain.FeaturedCaps
}

func New(listings ports.ListingRepository, gate *authz.Gate, caps domain.FeaturedCaps) *Service {
	return &Service{listings: listings, gate: gate, caps: caps}
}

// Toggle flips the featured flag. The contractor path requires ownership and
// honors both the global and the per-company cap; the administrator path
// honors the global cap only.
func (s *Service) Toggle(ctx context.Context, actor *domain.Principal, listingID uuid.UUID) (bool, error) {
	l, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return false, fmt.Errorf("load listing: %w", err)
	}
	if l == nil {
		return false, domain.ErrNotFound
	}
	owner := domain.PrincipalRef{Kind: domain.KindCompany, ID: l.CompanyID}
	d := s.gate.Authorize(actor, authz.ToggleFeatured, owner)
	if d.Deny() {
		if d.Reason == authz.ReasonUnauthenticated {
			return false, domain.ErrUnauthenticated
		}
		return false, fmt.Errorf("%w: %s", domain.ErrForbidden, d.Reason)
	}

	// Admin path honors the global cap only.
	skipCompanyCap := domain.CapabilitiesOf(actor).IsAdmin
	return s.listings.ToggleFeatured(ctx, listingID, s.caps.Global, s.caps.PerCompany, skipCompanyCap)
}
