package listings

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"tradepost/internal/domain"
	"tradepost/internal/ports"
	"tradepost/internal/services/authz"
)

// Service is the listing lifecycle outside the featured allocator: creation
// by a company, owner-gated updates and status changes, and the public
// detail view with its monotonic click counter. The featured flag is never
// mutated here.
type Service struct {
	listings ports.ListingRepository
	gate     *authz.Gate
}

func New(listings ports.ListingRepository, gate *authz.Gate) *Service {
	return &Service{listings: listings, gate: gate}
}

func (s *Service) Create(ctx context.Context, actor *domain.Principal, in ports.ListingInput) (*domain.Listing, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}
	if actor.Kind != domain.KindCompany {
		return nil, fmt.Errorf("%w: %s", domain.ErrForbidden, authz.ReasonNotOwner)
	}
	if err := validate(in); err != nil {
		return nil, err
	}
	l := &domain.Listing{
		ID:          uuid.New(),
		CompanyID:   actor.ID,
		CompanyName: actor.Name,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		Subcategory: in.Subcategory,
		Location:    in.Location,
		Status:      domain.ListingPending,
	}
	if err := s.listings.CreateListing(ctx, l); err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}
	return l, nil
}

func (s *Service) Update(ctx context.Context, actor *domain.Principal, id uuid.UUID, in ports.ListingInput) (*domain.Listing, error) {
	l, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := validate(in); err != nil {
		return nil, err
	}
	l.Title = strings.TrimSpace(in.Title)
	l.Description = in.Description
	l.Price = in.Price
	l.Category = in.Category
	l.Subcategory = in.Subcategory
	l.Location = in.Location
	if err := s.listings.UpdateListing(ctx, l); err != nil {
		return nil, fmt.Errorf("update listing: %w", err)
	}
	return l, nil
}

func (s *Service) SetStatus(ctx context.Context, actor *domain.Principal, id uuid.UUID, status domain.ListingStatus) error {
	switch status {
	case domain.ListingActive, domain.ListingInactive, domain.ListingPending:
	default:
		return domain.ErrValidation
	}
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	return s.listings.SetListingStatus(ctx, id, status)
}

// View fetches a listing for a detail page and bumps its click counter.
func (s *Service) View(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	l, err := s.listings.GetListing(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load listing: %w", err)
	}
	if l == nil {
		return nil, domain.ErrNotFound
	}
	clicks, err := s.listings.IncrementClicks(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count click: %w", err)
	}
	l.Clicks = clicks
	return l, nil
}

func (s *Service) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]domain.Listing, error) {
	return s.listings.ListListingsByCompany(ctx, companyID)
}

func (s *Service) owned(ctx context.Context, actor *domain.Principal, id uuid.UUID) (*domain.Listing, error) {
	l, err := s.listings.GetListing(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load listing: %w", err)
	}
	if l == nil {
		return nil, domain.ErrNotFound
	}
	owner := domain.PrincipalRef{Kind: domain.KindCompany, ID: l.CompanyID}
	if d := s.gate.Authorize(actor, authz.MutateListing, owner); d.Deny() {
		if d.Reason == authz.ReasonUnauthenticated {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrForbidden, d.Reason)
	}
	return l, nil
}

func validate(in ports.ListingInput) error {
	if strings.TrimSpace(in.Title) == "" || in.Price < 0 {
		return domain.ErrValidation
	}
	return nil
}
