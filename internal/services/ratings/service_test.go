package ratings

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradepost/internal/adapters/memory"
	"tradepost/internal/domain"
	"tradepost/internal/services/authz"
)

func newService() (*Service, *memory.Store) {
	st := memory.New()
	return New(st, st, authz.New()), st
}

func rater() *domain.Principal {
	return &domain.Principal{Kind: domain.KindIndividual, ID: uuid.New()}
}

func seedSubject(t *testing.T, st *memory.Store, kind domain.PrincipalKind) domain.PrincipalRef {
	t.Helper()
	p := &domain.Principal{Kind: kind, ID: uuid.New(), Name: "Subject", Email: uuid.NewString() + "@example.com"}
	require.NoError(t, st.CreatePrincipal(context.Background(), p))
	return p.Ref()
}

func TestAverageRoundsToOneDecimal(t *testing.T) {
	ctx := context.Background()
	svc, st := newService()
	subject := seedSubject(t, st, domain.KindIndividual)

	for _, v := range []int{5, 5, 4, 3, 1} {
		require.NoError(t, svc.Rate(ctx, rater(), subject, v))
	}

	avg, err := svc.Average(ctx, subject)
	require.NoError(t, err)
	// 18/5 = 3.6 exactly; the decimal path never yields 3.5999....
	assert.Equal(t, "3.6", avg.String())
}

func TestAverageEmptyIsZero(t *testing.T) {
	svc, _ := newService()
	avg, err := svc.Average(context.Background(), domain.PrincipalRef{Kind: domain.KindCompany, ID: uuid.New()})
	require.NoError(t, err)
	assert.True(t, avg.IsZero())
}

func TestAverageRepeatingDecimal(t *testing.T) {
	ctx := context.Background()
	svc, st := newService()
	subject := seedSubject(t, st, domain.KindIndividual)

	for _, v := range []int{5, 4, 4} {
		require.NoError(t, svc.Rate(ctx, rater(), subject, v))
	}
	avg, err := svc.Average(ctx, subject)
	require.NoError(t, err)
	assert.Equal(t, "4.3", avg.String()) // 13/3 rounded
}

func TestRateIsIdempotentPerRater(t *testing.T) {
	ctx := context.Background()
	svc, st := newService()
	subject := seedSubject(t, st, domain.KindIndividual)
	r := rater()

	require.NoError(t, svc.Rate(ctx, r, subject, 2))
	require.NoError(t, svc.Rate(ctx, r, subject, 5))

	avg, err := svc.Average(ctx, subject)
	require.NoError(t, err)
	assert.Equal(t, "5", avg.String())
}

func TestRateValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	subject := domain.PrincipalRef{Kind: domain.KindIndividual, ID: uuid.New()}

	assert.ErrorIs(t, svc.Rate(ctx, rater(), subject, 0), domain.ErrValidation)
	assert.ErrorIs(t, svc.Rate(ctx, rater(), subject, 6), domain.ErrValidation)
	assert.ErrorIs(t, svc.Rate(ctx, nil, subject, 3), domain.ErrUnauthenticated)
}

func TestBreakdown(t *testing.T) {
	ctx := context.Background()
	svc, st := newService()
	subject := seedSubject(t, st, domain.KindIndividual)

	for _, v := range []int{5, 5, 4, 3, 1} {
		require.NoError(t, svc.Rate(ctx, rater(), subject, v))
	}

	got, err := svc.Breakdown(ctx, subject)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 1, 2: 0, 3: 1, 4: 1, 5: 2}, got)
}

func TestHiddenReviewsExcludedFromAverage(t *testing.T) {
	ctx := context.Background()
	svc, st := newService()
	subject := seedSubject(t, st, domain.KindCompany)
	companyID := subject.ID
	admin := &domain.Principal{Kind: domain.KindIndividual, ID: uuid.New(), IsAdmin: true}

	_, err := svc.SubmitReview(ctx, rater(), companyID, "ord-1", 5, "great")
	require.NoError(t, err)
	bad, err := svc.SubmitReview(ctx, rater(), companyID, "ord-2", 1, "spam rant")
	require.NoError(t, err)

	avg, err := svc.Average(ctx, subject)
	require.NoError(t, err)
	assert.Equal(t, "3", avg.String())

	require.NoError(t, svc.SetReviewHidden(ctx, admin, bad.ID, true))
	avg, err = svc.Average(ctx, subject)
	require.NoError(t, err)
	assert.Equal(t, "5", avg.String())

	// Restoring brings the value back in.
	require.NoError(t, svc.SetReviewHidden(ctx, admin, bad.ID, false))
	avg, err = svc.Average(ctx, subject)
	require.NoError(t, err)
	assert.Equal(t, "3", avg.String())
}

func TestSetReviewHiddenIsAdminOnly(t *testing.T) {
	ctx := context.Background()
	svc, st := newService()
	companyID := seedSubject(t, st, domain.KindCompany).ID
	rev, err := svc.SubmitReview(ctx, rater(), companyID, "ord-1", 4, "fine")
	require.NoError(t, err)

	company := &domain.Principal{Kind: domain.KindCompany, ID: companyID}
	assert.ErrorIs(t, svc.SetReviewHidden(ctx, company, rev.ID, true), domain.ErrForbidden)
	assert.ErrorIs(t, svc.SetReviewHidden(ctx, nil, rev.ID, true), domain.ErrUnauthenticated)
}

func TestRateUnknownSubject(t *testing.T) {
	ctx := context.Background()
	svc, st := newService()
	phantom := domain.PrincipalRef{Kind: domain.KindIndividual, ID: uuid.New()}

	err := svc.Rate(ctx, rater(), phantom, 4)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	values, err := st.RatingValues(ctx, phantom)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestSubmitReviewUnknownCompany(t *testing.T) {
	ctx := context.Background()
	svc, st := newService()

	_, err := svc.SubmitReview(ctx, rater(), uuid.New(), "ord-1", 5, "great")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// A review for an individual's id must not pass as a company either.
	individual := seedSubject(t, st, domain.KindIndividual)
	_, err = svc.SubmitReview(ctx, rater(), individual.ID, "ord-2", 5, "great")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSubmitReviewValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	_, err := svc.SubmitReview(ctx, rater(), uuid.New(), "ord-1", 0, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.SubmitReview(ctx, nil, uuid.New(), "ord-1", 3, "")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}
