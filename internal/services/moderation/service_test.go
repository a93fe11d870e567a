package moderation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradepost/internal/adapters/memory"
	"tradepost/internal/domain"
	"tradepost/internal/services/authz"
)

type fixture struct {
	svc     *Service
	store   *memory.Store
	admin   *domain.Principal
	user    *domain.Principal
	owner   *domain.Principal
	rival   *domain.Principal
	listing *domain.Listing
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()

	f := &fixture{
		store: st,
		svc:   New(st, st, st, authz.New()),
		admin: &domain.Principal{Kind: domain.KindIndividual, ID: uuid.New(), Name: "Root", Email: "root@example.com", IsAdmin: true},
		user: &domain.Principal{Kind: domain.KindIndividual, ID: uuid.New(), Name: "Ursula", Email: "ursula@example.com",
			Settings: map[string]any{"phone": "+1 555 0100"}},
		owner: &domain.Principal{Kind: domain.KindCompany, ID: uuid.New(), Name: "Acme", Email: "acme@example.com"},
		rival: &domain.Principal{Kind: domain.KindCompany, ID: uuid.New(), Name: "Rival", Email: "rival@example.com"},
	}
	for _, p := range []*domain.Principal{f.admin, f.user, f.owner, f.rival} {
		require.NoError(t, st.CreatePrincipal(ctx, p))
	}
	f.listing = &domain.Listing{
		ID:        uuid.New(),
		CompanyID: f.owner.ID,
		Title:     "Gutter cleaning",
		Status:    domain.ListingActive,
		CreatedAt: time.Now(),
	}
	require.NoError(t, st.CreateListing(ctx, f.listing))
	return f
}

func (f *fixture) submit(t *testing.T, rating *int) *domain.ModeratedItem {
	t.Helper()
	item, err := f.svc.SubmitComment(context.Background(), f.user, f.listing.ID, "Great service", rating)
	require.NoError(t, err)
	return item
}

func TestSubmitCommentStampsSenderIdentity(t *testing.T) {
	f := newFixture(t)
	item := f.submit(t, nil)

	assert.Equal(t, domain.StatusPending, item.Status)
	assert.Equal(t, domain.ItemComment, item.Kind)
	assert.Equal(t, f.owner.ID, item.CompanyID)
	assert.Equal(t, "Ursula", item.SenderName)
	assert.Equal(t, "ursula@example.com", item.SenderEmail)
	assert.Equal(t, "+1 555 0100", item.SenderPhone)
	require.NotNil(t, item.SenderID)
	assert.Equal(t, f.user.ID, *item.SenderID)
}

func TestSubmitCommentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitComment(ctx, f.user, f.listing.ID, "   ", nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	bad := 6
	_, err = f.svc.SubmitComment(ctx, f.user, f.listing.ID, "ok", &bad)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.SubmitComment(ctx, f.user, uuid.New(), "ok", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.SubmitComment(ctx, nil, f.listing.ID, "ok", nil)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestSubmitInquiry(t *testing.T) {
	f := newFixture(t)
	item, err := f.svc.SubmitInquiry(context.Background(), f.user, f.owner.ID, "Do you ship?", true)
	require.NoError(t, err)
	assert.Equal(t, domain.ItemInquiry, item.Kind)
	assert.Nil(t, item.ListingID)
	assert.Nil(t, item.Rating)
	assert.True(t, item.IsUrgent)
	assert.Equal(t, domain.StatusPending, item.Status)
}

// An inquiry must land in a real company's inbox; an unknown recipient is
// NotFound, never a stored orphan.
func TestSubmitInquiryUnknownCompany(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitInquiry(ctx, f.user, uuid.New(), "is anyone there?", false)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// An individual's id is not a company id.
	_, err = f.svc.SubmitInquiry(ctx, f.user, f.admin.ID, "hello", false)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	items, err := f.store.ListItemsByCompany(ctx, f.admin.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestTransitionEdges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.submit(t, nil)

	// resolved is only reachable from replied.
	err := f.svc.Transition(ctx, f.admin, item.ID, domain.StatusResolved)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	require.NoError(t, f.svc.Transition(ctx, f.admin, item.ID, domain.StatusApproved))
	err = f.svc.Transition(ctx, f.admin, item.ID, domain.StatusResolved)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.svc.Reply(ctx, f.owner, item.ID, "Thanks!")
	require.NoError(t, err)
	require.NoError(t, f.svc.Transition(ctx, f.admin, item.ID, domain.StatusResolved))
}

func TestTransitionSpamIsAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, setup := range []domain.ItemStatus{domain.StatusPending, domain.StatusApproved} {
		item := f.submit(t, nil)
		if setup != domain.StatusPending {
			require.NoError(t, f.svc.Transition(ctx, f.admin, item.ID, setup))
		}
		// The owning company may moderate, but never into spam.
		err := f.svc.Transition(ctx, f.owner, item.ID, domain.StatusSpam)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)

		require.NoError(t, f.svc.Transition(ctx, f.admin, item.ID, domain.StatusSpam))
	}
}

func TestTransitionAuthorizationBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.submit(t, nil)

	// A rival company holds a valid session but not this item.
	err := f.svc.Transition(ctx, f.rival, item.ID, domain.StatusApproved)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.Reply(ctx, f.rival, item.ID, "mine now")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	err = f.svc.Transition(ctx, f.user, item.ID, domain.StatusApproved)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := f.store.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestReplyAttribution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	companyItem := f.submit(t, nil)
	require.NoError(t, f.svc.Transition(ctx, f.admin, companyItem.ID, domain.StatusApproved))
	got, err := f.svc.Reply(ctx, f.owner, companyItem.ID, "Thanks!")
	require.NoError(t, err)
	require.NotNil(t, got.Reply)
	assert.Equal(t, domain.RepliedByCompany, got.Reply.RepliedBy)
	assert.Equal(t, f.owner.ID, got.Reply.ReplierID)
	assert.Equal(t, domain.StatusReplied, got.Status)
	assert.True(t, got.IsRead)

	adminItem := f.submit(t, nil)
	require.NoError(t, f.svc.Transition(ctx, f.admin, adminItem.ID, domain.StatusApproved))
	got, err = f.svc.Reply(ctx, f.admin, adminItem.ID, "Handled.")
	require.NoError(t, err)
	require.NotNil(t, got.Reply)
	assert.Equal(t, domain.RepliedByAdmin, got.Reply.RepliedBy)
	assert.Equal(t, f.admin.ID, got.Reply.ReplierID)

	// The stored items alone distinguish the two cases.
	assert.NotEqual(t, got.Reply.RepliedBy, domain.RepliedByCompany)
}

func TestReplyRequiresApproved(t *testing.T) {
	f := newFixture(t)
	item := f.submit(t, nil)

	_, err := f.svc.Reply(context.Background(), f.owner, item.ID, "too soon")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestImportLegacyReply(t *testing.T) {
	companyID := uuid.New()
	adminID := uuid.New()
	at := time.Now()

	// Legacy rows with no replier id were company replies.
	r := ImportLegacyReply("text", at, nil, companyID)
	assert.Equal(t, domain.RepliedByCompany, r.RepliedBy)
	assert.Equal(t, companyID, r.ReplierID)

	r = ImportLegacyReply("text", at, &adminID, companyID)
	assert.Equal(t, domain.RepliedByAdmin, r.RepliedBy)
	assert.Equal(t, adminID, r.ReplierID)
}

func TestListApprovedNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	older := f.submit(t, nil)
	newer := f.submit(t, nil)
	hidden := f.submit(t, nil)

	// Force distinct timestamps; the memory store keeps what we submit.
	bump := func(id uuid.UUID, at time.Time) {
		got, err := f.store.GetItem(ctx, id)
		require.NoError(t, err)
		got.CreatedAt = at
		require.NoError(t, f.store.InsertItem(ctx, got))
	}
	base := time.Now()
	bump(older.ID, base.Add(-time.Hour))
	bump(newer.ID, base)
	bump(hidden.ID, base.Add(time.Hour))

	require.NoError(t, f.svc.Transition(ctx, f.admin, older.ID, domain.StatusApproved))
	require.NoError(t, f.svc.Transition(ctx, f.admin, newer.ID, domain.StatusApproved))
	// hidden stays pending: not publicly visible.

	items, err := f.svc.ListApproved(ctx, f.listing.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, newer.ID, items[0].ID)
	assert.Equal(t, older.ID, items[1].ID)
}

func TestBulkTransitionSkipsAndCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := f.submit(t, nil)
	approved := f.submit(t, nil)
	require.NoError(t, f.svc.Transition(ctx, f.admin, approved.ID, domain.StatusApproved))
	unknown := uuid.New()

	ids := []uuid.UUID{pending.ID, approved.ID, unknown}
	outcomes, changed, err := f.svc.BulkTransition(ctx, f.admin, ids, domain.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	require.Len(t, outcomes, 3)
	assert.True(t, outcomes[0].Changed)
	assert.False(t, outcomes[1].Changed)
	assert.Equal(t, domain.SkipInvalidTransition, outcomes[1].Reason)
	assert.False(t, outcomes[2].Changed)
	assert.Equal(t, domain.SkipNotFound, outcomes[2].Reason)
}

func TestBulkTransitionSkipsForeignItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.submit(t, nil)

	outcomes, changed, err := f.svc.BulkTransition(ctx, f.rival, []uuid.UUID{item.ID}, domain.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
	require.Len(t, outcomes, 1)
	assert.Equal(t, domain.SkipDenied, outcomes[0].Reason)
}

func TestSetFlagsAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.submit(t, nil)

	urgent := true
	require.NoError(t, f.svc.SetFlags(ctx, f.owner, item.ID, nil, &urgent))
	got, err := f.store.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, got.IsUrgent)
	assert.False(t, got.IsRead)

	assert.ErrorIs(t, f.svc.Delete(ctx, f.owner, item.ID), domain.ErrForbidden)
	require.NoError(t, f.svc.Delete(ctx, f.admin, item.ID))
	got, err = f.store.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInboxAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.submit(t, nil)
	_, err := f.svc.SubmitInquiry(ctx, f.user, f.owner.ID, "hello", false)
	require.NoError(t, err)

	items, err := f.svc.Inbox(ctx, f.owner, f.owner.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = f.svc.Inbox(ctx, f.admin, f.owner.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, err = f.svc.Inbox(ctx, f.rival, f.owner.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// The full lifecycle: submit, approve, public listing, company reply,
// resolve, then a bulk spam sweep that skips the unknown id.
func TestCommentLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rating := 5
	item, err := f.svc.SubmitComment(ctx, f.user, f.listing.ID, "Spotless gutters!", &rating)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, item.Status)

	require.NoError(t, f.svc.Transition(ctx, f.admin, item.ID, domain.StatusApproved))

	visible, err := f.svc.ListApproved(ctx, f.listing.ID)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, item.ID, visible[0].ID)

	replied, err := f.svc.Reply(ctx, f.owner, item.ID, "Thanks!")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReplied, replied.Status)
	assert.Equal(t, domain.RepliedByCompany, replied.Reply.RepliedBy)

	require.NoError(t, f.svc.Transition(ctx, f.admin, item.ID, domain.StatusResolved))

	_, changed, err := f.svc.BulkTransition(ctx, f.admin, []uuid.UUID{item.ID, uuid.New()}, domain.StatusSpam)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
}
