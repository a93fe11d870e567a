package ports

import (
	"context"

	"github.com/google/uuid"

	"tradepost/internal/domain"
)

// PrincipalRepository stores the two authenticatable account kinds.
type PrincipalRepository interface {
	CreatePrincipal(ctx context.Context, p *domain.Principal) error
	GetPrincipal(ctx context.Context, ref domain.PrincipalRef) (*domain.Principal, error)
	GetPrincipalByEmail(ctx context.Context, kind domain.PrincipalKind, email string) (*domain.Principal, error)
	UpdatePassword(ctx context.Context, ref domain.PrincipalRef, hash string) error
}

// ListingRepository manages listings and the featured flag.
type ListingRepository interface {
	CreateListing(ctx context.Context, l *domain.Listing) error
	GetListing(ctx context.Context, id uuid.UUID) (*domain.Listing, error)
	UpdateListing(ctx context.Context, l *domain.Listing) error
	SetListingStatus(ctx context.Context, id uuid.UUID, status domain.ListingStatus) error
	IncrementClicks(ctx context.Context, id uuid.UUID) (int64, error)
	ListListingsByCompany(ctx context.Context, companyID uuid.UUID) ([]domain.Listing, error)

	// ToggleFeatured flips the featured flag as one atomic read-modify-write.
	// Turning off always succeeds. Turning on re-checks the caps inside the
	// same critical section as the flag write and returns
	// domain.ErrCapExceeded, leaving state unchanged, when a cap is met.
	// skipCompanyCap disables the per-company check (admin path); a
	// companyCap of 0 on the contractor path means no slots at all.
	ToggleFeatured(ctx context.Context, id uuid.UUID, globalCap, companyCap int, skipCompanyCap bool) (nowFeatured bool, err error)
}

// ModerationRepository stores comments and inquiries.
type ModerationRepository interface {
	InsertItem(ctx context.Context, item *domain.ModeratedItem) error
	GetItem(ctx context.Context, id uuid.UUID) (*domain.ModeratedItem, error)

	// UpdateItemStatus sets status iff the current status is in allowedFrom.
	// The read of the current status and the write happen in one atomic
	// unit; the pre-write status is returned either way so callers can
	// report invalid edges instead of silently coercing them.
	UpdateItemStatus(ctx context.Context, id uuid.UUID, to domain.ItemStatus, allowedFrom []domain.ItemStatus) (changed bool, current domain.ItemStatus, err error)

	// SetReply records a reply and moves the item to replied, subject to the
	// same atomic allowedFrom check as UpdateItemStatus. Also marks the item
	// read.
	SetReply(ctx context.Context, id uuid.UUID, reply domain.Reply, allowedFrom []domain.ItemStatus) (changed bool, current domain.ItemStatus, err error)

	SetItemFlags(ctx context.Context, id uuid.UUID, isRead, isUrgent *bool) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
	ListApprovedByListing(ctx context.Context, listingID uuid.UUID) ([]domain.ModeratedItem, error)
	ListItemsByCompany(ctx context.Context, companyID uuid.UUID) ([]domain.ModeratedItem, error)
}

// FavoriteRepository maintains each individual's set of favorited listings.
type FavoriteRepository interface {
	// ToggleFavorite adds the listing if absent, removes it if present, as a
	// single atomic read-modify-write on that individual's set.
	ToggleFavorite(ctx context.Context, individualID, listingID uuid.UUID) (nowFavorited bool, err error)
	ListFavorites(ctx context.Context, individualID uuid.UUID) ([]uuid.UUID, error)
}

// RatingRepository stores principal ratings and company reviews.
type RatingRepository interface {
	AddRating(ctx context.Context, r *domain.Rating) error
	AddReview(ctx context.Context, r *domain.Review) error
	SetReviewHidden(ctx context.Context, id uuid.UUID, hidden bool) error

	// RatingValues returns the values feeding a principal's aggregate:
	// rating rows for individuals, non-hidden review rows for companies.
	RatingValues(ctx context.Context, subject domain.PrincipalRef) ([]int, error)
}
