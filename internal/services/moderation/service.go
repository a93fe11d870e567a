package moderation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tradepost/internal/domain"
	"tradepost/internal/ports"
	"tradepost/internal/services/authz"
)

// Service drives the shared comment/inquiry workflow: submission, status
// transitions, replies and bulk moderation.
type Service struct {
	items      ports.ModerationRepository
	listings   ports.ListingRepository
	principals ports.PrincipalRepository
	gate       *authz.Gate
	now        func() time.Time
}

func New(items ports.ModerationRepository, listings ports.ListingRepository, principals ports.PrincipalRepository, gate *authz.Gate) *Service {
	return &Service{items: items, listings: listings, principals: principals, gate: gate, now: time.Now}
}

// SubmitComment creates a pending comment on a listing. Sender identity is
// stamped from the authenticated principal, never from client input.
func (s *Service) SubmitComment(ctx context.Context, sender *domain.Principal, listingID uuid.UUID, body string, rating *int) (*domain.ModeratedItem, error) {
	if d := s.gate.Authorize(sender, authz.SubmitComment, domain.PrincipalRef{}); d.Deny() {
		return nil, denyErr(d)
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, domain.ErrValidation
	}
	if rating != nil && (*rating < 1 || *rating > 5) {
		return nil, domain.ErrValidation
	}
	l, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("load listing: %w", err)
	}
	if l == nil {
		return nil, domain.ErrNotFound
	}
	item := s.newItem(sender, domain.ItemComment, body)
	item.ListingID = &l.ID
	item.CompanyID = l.CompanyID
	item.Rating = rating
	if err := s.items.InsertItem(ctx, item); err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	return item, nil
}

// SubmitInquiry creates a pending inquiry addressed to a company. The
// recipient must exist; an inquiry to an unknown company is NotFound, not a
// stored orphan.
func (s *Service) SubmitInquiry(ctx context.Context, sender *domain.Principal, companyID uuid.UUID, body string, urgent bool) (*domain.ModeratedItem, error) {
	if d := s.gate.Authorize(sender, authz.SubmitComment, domain.PrincipalRef{}); d.Deny() {
		return nil, denyErr(d)
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, domain.ErrValidation
	}
	recipient, err := s.principals.GetPrincipal(ctx, domain.PrincipalRef{Kind: domain.KindCompany, ID: companyID})
	if err != nil {
		return nil, fmt.Errorf("load recipient: %w", err)
	}
	if recipient == nil {
		return nil, domain.ErrNotFound
	}
	item := s.newItem(sender, domain.ItemInquiry, body)
	item.CompanyID = companyID
	item.IsUrgent = urgent
	if err := s.items.InsertItem(ctx, item); err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	return item, nil
}

func (s *Service) newItem(sender *domain.Principal, kind domain.ItemKind, body string) *domain.ModeratedItem {
	senderID := sender.ID
	return &domain.ModeratedItem{
		ID:          uuid.New(),
		Kind:        kind,
		SenderID:    &senderID,
		SenderName:  sender.Name,
		SenderEmail: sender.Email,
		SenderPhone: settingsPhone(sender),
		Body:        body,
		Status:      domain.StatusPending,
		CreatedAt:   s.now(),
	}
}

// Transition moves an item to a new status. The actor must pass the gate and
// the edge must exist in the state table; the current status is checked
// inside the same transaction as the write, so two conflicting moderators
// cannot both succeed silently.
func (s *Service) Transition(ctx context.Context, actor *domain.Principal, itemID uuid.UUID, to domain.ItemStatus) error {
	if !domain.ValidItemStatus(to) {
		return domain.ErrValidation
	}
	item, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return fmt.Errorf("load item: %w", err)
	}
	if item == nil {
		return domain.ErrNotFound
	}
	admin, err := s.moderatorRole(actor, item)
	if err != nil {
		return err
	}
	allowedFrom := domain.TransitionSources(to, admin)
	changed, _, err := s.items.UpdateItemStatus(ctx, itemID, to, allowedFrom)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if !changed {
		return domain.ErrInvalidTransition
	}
	return nil
}

// Reply records an answer to an item and moves it to replied. Attribution is
// decided in one place (replyAttribution) so the storage shape can evolve
// without touching callers.
func (s *Service) Reply(ctx context.Context, actor *domain.Principal, itemID uuid.UUID, text string) (*domain.ModeratedItem, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrValidation
	}
	item, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("load item: %w", err)
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	if _, err := s.moderatorRole(actor, item); err != nil {
		return nil, err
	}
	role, replierID := replyAttribution(actor)
	reply := domain.Reply{
		Text:      text,
		RepliedAt: s.now(),
		RepliedBy: role,
		ReplierID: replierID,
	}
	changed, _, err := s.items.SetReply(ctx, itemID, reply, []domain.ItemStatus{domain.StatusApproved})
	if err != nil {
		return nil, fmt.Errorf("set reply: %w", err)
	}
	if !changed {
		return nil, domain.ErrInvalidTransition
	}
	return s.items.GetItem(ctx, itemID)
}

// BulkTransition applies Transition to each id, skipping rather than failing
// ids the actor cannot change, and reports a per-id outcome plus the count
// actually changed. A partial bulk action beats an all-or-nothing failure
// across unrelated items.
func (s *Service) BulkTransition(ctx context.Context, actor *domain.Principal, ids []uuid.UUID, to domain.ItemStatus) ([]domain.BulkOutcome, int, error) {
	if !domain.ValidItemStatus(to) {
		return nil, 0, domain.ErrValidation
	}
	outcomes := make([]domain.BulkOutcome, 0, len(ids))
	changedCount := 0
	for _, id := range ids {
		item, err := s.items.GetItem(ctx, id)
		if err != nil {
			return outcomes, changedCount, fmt.Errorf("load item %s: %w", id, err)
		}
		if item == nil {
			outcomes = append(outcomes, domain.BulkOutcome{ID: id, Reason: domain.SkipNotFound})
			continue
		}
		admin, err := s.moderatorRole(actor, item)
		if err != nil {
			outcomes = append(outcomes, domain.BulkOutcome{ID: id, Reason: domain.SkipDenied})
			continue
		}
		changed, _, err := s.items.UpdateItemStatus(ctx, id, to, domain.TransitionSources(to, admin))
		if err != nil {
			return outcomes, changedCount, fmt.Errorf("update item %s: %w", id, err)
		}
		if !changed {
			outcomes = append(outcomes, domain.BulkOutcome{ID: id, Reason: domain.SkipInvalidTransition})
			continue
		}
		outcomes = append(outcomes, domain.BulkOutcome{ID: id, Changed: true})
		changedCount++
	}
	return outcomes, changedCount, nil
}

// ListApproved returns the publicly visible comments of a listing, newest
// first.
func (s *Service) ListApproved(ctx context.Context, listingID uuid.UUID) ([]domain.ModeratedItem, error) {
	return s.items.ListApprovedByListing(ctx, listingID)
}

// Inbox returns every item addressed to a company, for that company or an
// administrator.
func (s *Service) Inbox(ctx context.Context, actor *domain.Principal, companyID uuid.UUID) ([]domain.ModeratedItem, error) {
	target := domain.PrincipalRef{Kind: domain.KindCompany, ID: companyID}
	if d := s.gate.CanModerate(actor, target); d.Deny() {
		return nil, denyErr(d)
	}
	return s.items.ListItemsByCompany(ctx, companyID)
}

// SetFlags updates the read/urgent flags through the same gate as the other
// moderation actions.
func (s *Service) SetFlags(ctx context.Context, actor *domain.Principal, itemID uuid.UUID, isRead, isUrgent *bool) error {
	item, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return fmt.Errorf("load item: %w", err)
	}
	if item == nil {
		return domain.ErrNotFound
	}
	if _, err := s.moderatorRole(actor, item); err != nil {
		return err
	}
	return s.items.SetItemFlags(ctx, itemID, isRead, isUrgent)
}

// Delete physically removes an item. Explicit administrator action is the
// only path that ever hard-deletes.
func (s *Service) Delete(ctx context.Context, actor *domain.Principal, itemID uuid.UUID) error {
	if d := s.gate.Authorize(actor, authz.ModerateAsAdmin, domain.PrincipalRef{}); d.Deny() {
		return denyErr(d)
	}
	item, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return fmt.Errorf("load item: %w", err)
	}
	if item == nil {
		return domain.ErrNotFound
	}
	return s.items.DeleteItem(ctx, itemID)
}

// moderatorRole authorizes actor against the item and reports whether the
// administrator path applies. Spam marking and re-moderation need the
// distinction; the gate alone does not.
func (s *Service) moderatorRole(actor *domain.Principal, item *domain.ModeratedItem) (admin bool, err error) {
	if d := s.gate.Authorize(actor, authz.ModerateAsAdmin, item.Target()); d.Allowed {
		return true, nil
	}
	if d := s.gate.Authorize(actor, authz.ModerateAsOwner, item.Target()); d.Allowed {
		return false, nil
	}
	if actor == nil {
		return false, domain.ErrUnauthenticated
	}
	return false, domain.ErrForbidden
}

// replyAttribution is the single place that decides who a reply is recorded
// as coming from: an administrator replies as admin under their own id, the
// owning company replies as company under the company id.
func replyAttribution(actor *domain.Principal) (domain.ReplierRole, uuid.UUID) {
	if domain.CapabilitiesOf(actor).IsAdmin {
		return domain.RepliedByAdmin, actor.ID
	}
	return domain.RepliedByCompany, actor.ID
}

// ImportLegacyReply maps the historical encoding, where a missing replier id
// meant the company answered, onto the explicit attribution field. One-time
// import concern; nothing at runtime depends on the null convention.
func ImportLegacyReply(text string, repliedAt time.Time, replierID *uuid.UUID, companyID uuid.UUID) domain.Reply {
	if replierID == nil {
		return domain.Reply{Text: text, RepliedAt: repliedAt, RepliedBy: domain.RepliedByCompany, ReplierID: companyID}
	}
	return domain.Reply{Text: text, RepliedAt: repliedAt, RepliedBy: domain.RepliedByAdmin, ReplierID: *replierID}
}

func settingsPhone(p *domain.Principal) string {
	if p.Settings == nil {
		return ""
	}
	if v, ok := p.Settings["phone"].(string); ok {
		return v
	}
	return ""
}

func denyErr(d authz.Decision) error {
	if d.Reason == authz.ReasonUnauthenticated {
		return domain.ErrUnauthenticated
	}
	return fmt.Errorf("%w: %s", domain.ErrForbidden, d.Reason)
}
