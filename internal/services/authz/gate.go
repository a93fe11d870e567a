package authz

import (
	"tradepost/internal/domain"
)

// Action names a gated operation on some resource.
type Action string

const (
	// MutateListing covers update/delete/status changes on a listing via
	// the contractor path.
	MutateListing Action = "mutate_listing"
	// ModerateAsAdmin covers status changes and replies on a moderated item
	// via the administrator path.
	ModerateAsAdmin Action = "moderate_as_admin"
	// ModerateAsOwner covers replies and visibility changes on a moderated
	// item via the contractor path.
	ModerateAsOwner Action = "moderate_as_owner"
	// SubmitComment requires authentication only.
	SubmitComment Action = "submit_comment"
	// ToggleFavorite requires an authenticated individual.
	ToggleFavorite Action = "toggle_favorite"
	// ToggleFeatured is allowed for the owning company or an administrator.
	ToggleFeatured Action = "toggle_featured"
)

type Reason string

const (
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonNotOwner        Reason = "not_owner"
	ReasonNotAdmin        Reason = "not_admin"
	ReasonNotIndividual   Reason = "not_individual"
)

// Decision is Allow or Deny with a machine-readable reason. Callers
// translate denials to transport responses; this package never does.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision        { return Decision{Allowed: true} }
func deny(r Reason) Decision { return Decision{Reason: r} }

func (d Decision) Deny() bool { return !d.Allowed }

// Gate composes principal capabilities with resource ownership. It is the
// single source of truth for who may do what; every mutating service calls
// through it.
type Gate struct{}

func New() *Gate { return &Gate{} }

// Authorize decides whether principal may perform action on a resource owned
// by owner. Ownership is matched on the durable identifier only; the legacy
// company-name fallback is a data-migration concern, not an authorization
// rule.
func (g *Gate) Authorize(p *domain.Principal, action Action, owner domain.PrincipalRef) Decision {
	if p == nil {
		return deny(ReasonUnauthenticated)
	}
	caps := domain.CapabilitiesOf(p)

	switch action {
	case MutateListing, ModerateAsOwner:
		if !caps.IsCompany {
			return deny(ReasonNotOwner)
		}
		if !p.Ref().Equal(owner) {
			return deny(ReasonNotOwner)
		}
		return allow()

	case ModerateAsAdmin:
		if !caps.IsAdmin {
			return deny(ReasonNotAdmin)
		}
		return allow()

	case SubmitComment:
		// Any authenticated principal; companies may act as reviewers.
		return allow()

	case ToggleFavorite:
		if p.Kind != domain.KindIndividual {
			return deny(ReasonNotIndividual)
		}
		return allow()

	case ToggleFeatured:
		if caps.IsAdmin {
			return allow()
		}
		if caps.IsCompany && p.Ref().Equal(owner) {
			return allow()
		}
		if caps.IsCompany {
			return deny(ReasonNotOwner)
		}
		return deny(ReasonNotAdmin)
	}
	return deny(ReasonNotAdmin)
}

// CanModerate reports whether actor may moderate an item addressed to
// target, through either the administrator or the contractor path.
func (g *Gate) CanModerate(p *domain.Principal, target domain.PrincipalRef) Decision {
	if d := g.Authorize(p, ModerateAsAdmin, target); d.Allowed {
		return d
	}
	return g.Authorize(p, ModerateAsOwner, target)
}
