package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradepost/internal/domain"
)

// Auth resolves bearer credentials and manages account lifecycle.
type Auth interface {
	// Resolve maps a bearer token to exactly one principal. Fails with
	// domain.ErrUnauthenticated for unknown tokens, ErrTokenExpired or
	// ErrTokenRevoked for invalidated ones. No side effects.
	Resolve(ctx context.Context, token string) (*domain.Principal, error)

	RegisterIndividual(ctx context.Context, name, email, password string) (*domain.Principal, error)
	RegisterCompany(ctx context.Context, name, email, password string) (*domain.Principal, error)
	Login(ctx context.Context, kind domain.PrincipalKind, email, password string) (token string, p *domain.Principal, err error)
	Logout(ctx context.Context, token string) error
	ChangePassword(ctx context.Context, token string, oldPassword, newPassword string) error
}

// Moderation drives the comment/inquiry workflow.
type Moderation interface {
	SubmitComment(ctx context.Context, sender *domain.Principal, listingID uuid.UUID, body string, rating *int) (*domain.ModeratedItem, error)
	SubmitInquiry(ctx context.Context, sender *domain.Principal, companyID uuid.UUID, body string, urgent bool) (*domain.ModeratedItem, error)
	Transition(ctx context.Context, actor *domain.Principal, itemID uuid.UUID, to domain.ItemStatus) error
	Reply(ctx context.Context, actor *domain.Principal, itemID uuid.UUID, text string) (*domain.ModeratedItem, error)
	BulkTransition(ctx context.Context, actor *domain.Principal, ids []uuid.UUID, to domain.ItemStatus) (outcomes []domain.BulkOutcome, changed int, err error)
	ListApproved(ctx context.Context, listingID uuid.UUID) ([]domain.ModeratedItem, error)
	Inbox(ctx context.Context, actor *domain.Principal, companyID uuid.UUID) ([]domain.ModeratedItem, error)
	SetFlags(ctx context.Context, actor *domain.Principal, itemID uuid.UUID, isRead, isUrgent *bool) error
	Delete(ctx context.Context, actor *domain.Principal, itemID uuid.UUID) error
}

// Favorites is each individual's favorite-listing set.
type Favorites interface {
	Toggle(ctx context.Context, actor *domain.Principal, listingID uuid.UUID) (isFavorited bool, err error)
	List(ctx context.Context, actor *domain.Principal) ([]uuid.UUID, error)
}

// Featured allocates the capped featured-listing slots.
type Featured interface {
	Toggle(ctx context.Context, actor *domain.Principal, listingID uuid.UUID) (nowFeatured bool, err error)
}

// Ratings computes principal rating aggregates on demand.
type Ratings interface {
	Average(ctx context.Context, subject domain.PrincipalRef) (decimal.Decimal, error)
	Breakdown(ctx context.Context, subject domain.PrincipalRef) (map[int]int, error)
	Rate(ctx context.Context, rater *domain.Principal, subject domain.PrincipalRef, value int) error
	SubmitReview(ctx context.Context, author *domain.Principal, companyID uuid.UUID, orderRef string, value int, body string) (*domain.Review, error)
	SetReviewHidden(ctx context.Context, actor *domain.Principal, reviewID uuid.UUID, hidden bool) error
}

// ListingInput carries the mutable listing fields.
type ListingInput struct {
	Title       string
	Description string
	Price       float64
	Category    string
	Subcategory string
	Location    string
}

// Listings is the listing lifecycle outside the featured allocator.
type Listings interface {
	Create(ctx context.Context, actor *domain.Principal, in ListingInput) (*domain.Listing, error)
	Update(ctx context.Context, actor *domain.Principal, id uuid.UUID, in ListingInput) (*domain.Listing, error)
	SetStatus(ctx context.Context, actor *domain.Principal, id uuid.UUID, status domain.ListingStatus) error
	// View fetches a listing for a detail page and bumps its click counter.
	View(ctx context.Context, id uuid.UUID) (*domain.Listing, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]domain.Listing, error)
}
