package ratings

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradepost/internal/domain"
	"tradepost/internal/ports"
	"tradepost/internal/services/authz"
)

// Service computes rating aggregates on demand. Nothing is cached, so there
// is no invalidation to get wrong: every call recomputes from the stored
// values.
type Service struct {
	ratings    ports.RatingRepository
	principals ports.PrincipalRepository
	gate       *authz.Gate
}

func New(ratings ports.RatingRepository, principals ports.PrincipalRepository, gate *authz.Gate) *Service {
	return &Service{ratings: ratings, principals: principals, gate: gate}
}

// Average returns the arithmetic mean of a principal's ratings rounded to
// one decimal place, or zero when none exist.
func (s *Service) Average(ctx context.Context, subject domain.PrincipalRef) (decimal.Decimal, error) {
	values, err := s.ratings.RatingValues(ctx, subject)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load rating values: %w", err)
	}
	if len(values) == 0 {
		return decimal.Zero, nil
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(decimal.NewFromInt(int64(v)))
	}
	return sum.Div(decimal.NewFromInt(int64(len(values)))).Round(1), nil
}

// Breakdown returns the 1..5 star histogram used by contractor statistics.
func (s *Service) Breakdown(ctx context.Context, subject domain.PrincipalRef) (map[int]int, error) {
	values, err := s.ratings.RatingValues(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("load rating values: %w", err)
	}
	out := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for _, v := range values {
		if v >= 1 && v <= 5 {
			out[v]++
		}
	}
	return out, nil
}

// Rate records a general principal rating from an authenticated rater. The
// subject must exist; ratings never accumulate against phantom principals.
func (s *Service) Rate(ctx context.Context, rater *domain.Principal, subject domain.PrincipalRef, value int) error {
	if d := s.gate.Authorize(rater, authz.SubmitComment, domain.PrincipalRef{}); d.Deny() {
		return domain.ErrUnauthenticated
	}
	if value < 1 || value > 5 {
		return domain.ErrValidation
	}
	if err := s.subjectExists(ctx, subject); err != nil {
		return err
	}
	r := &domain.Rating{
		ID:      uuid.New(),
		RaterID: rater.ID,
		Subject: subject,
		Value:   value,
	}
	return s.ratings.AddRating(ctx, r)
}

// SubmitReview records a per-company review tied to an order reference.
func (s *Service) SubmitReview(ctx context.Context, author *domain.Principal, companyID uuid.UUID, orderRef string, value int, body string) (*domain.Review, error) {
	if d := s.gate.Authorize(author, authz.SubmitComment, domain.PrincipalRef{}); d.Deny() {
		return nil, domain.ErrUnauthenticated
	}
	if value < 1 || value > 5 {
		return nil, domain.ErrValidation
	}
	if err := s.subjectExists(ctx, domain.PrincipalRef{Kind: domain.KindCompany, ID: companyID}); err != nil {
		return nil, err
	}
	r := &domain.Review{
		ID:        uuid.New(),
		CompanyID: companyID,
		AuthorID:  author.ID,
		OrderRef:  orderRef,
		Value:     value,
		Body:      body,
	}
	if err := s.ratings.AddReview(ctx, r); err != nil {
		return nil, fmt.Errorf("insert review: %w", err)
	}
	return r, nil
}

// SetReviewHidden suppresses or restores a review. Visible vs suppressed is
// the review counterpart of the moderation workflow; only an administrator
// flips it.
func (s *Service) SetReviewHidden(ctx context.Context, actor *domain.Principal, reviewID uuid.UUID, hidden bool) error {
	if d := s.gate.Authorize(actor, authz.ModerateAsAdmin, domain.PrincipalRef{}); d.Deny() {
		if d.Reason == authz.ReasonUnauthenticated {
			return domain.ErrUnauthenticated
		}
		return fmt.Errorf("%w: %s", domain.ErrForbidden, d.Reason)
	}
	return s.ratings.SetReviewHidden(ctx, reviewID, hidden)
}

func (s *Service) subjectExists(ctx context.Context, subject domain.PrincipalRef) error {
	p, err := s.principals.GetPrincipal(ctx, subject)
	if err != nil {
		return fmt.Errorf("load subject: %w", err)
	}
	if p == nil {
		return domain.ErrNotFound
	}
	return nil
}
