package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"tradepost/internal/domain"
)

func individual(admin bool) *domain.Principal {
	return &domain.Principal{Kind: domain.KindIndividual, ID: uuid.New(), IsAdmin: admin}
}

func company() *domain.Principal {
	return &domain.Principal{Kind: domain.KindCompany, ID: uuid.New()}
}

func TestAuthorize(t *testing.T) {
	gate := New()
	owner := company()
	other := company()
	admin := individual(true)
	user := individual(false)
	ownerRef := owner.Ref()

	tests := []struct {
		name    string
		p       *domain.Principal
		action  Action
		owner   domain.PrincipalRef
		allowed bool
		reason  Reason
	}{
		{"nil principal", nil, MutateListing, ownerRef, false, ReasonUnauthenticated},
		{"owner mutates own listing", owner, MutateListing, ownerRef, true, ""},
		{"other company mutates foreign listing", other, MutateListing, ownerRef, false, ReasonNotOwner},
		{"individual mutates listing", user, MutateListing, ownerRef, false, ReasonNotOwner},
		{"admin moderates", admin, ModerateAsAdmin, ownerRef, true, ""},
		{"plain user on admin path", user, ModerateAsAdmin, ownerRef, false, ReasonNotAdmin},
		{"company on admin path", owner, ModerateAsAdmin, ownerRef, false, ReasonNotAdmin},
		{"owner moderates own items", owner, ModerateAsOwner, ownerRef, true, ""},
		{"other company moderates foreign items", other, ModerateAsOwner, ownerRef, false, ReasonNotOwner},
		{"anyone submits a comment", user, SubmitComment, domain.PrincipalRef{}, true, ""},
		{"company submits as reviewer", owner, SubmitComment, domain.PrincipalRef{}, true, ""},
		{"individual toggles favorite", user, ToggleFavorite, domain.PrincipalRef{}, true, ""},
		{"company toggles favorite", owner, ToggleFavorite, domain.PrincipalRef{}, false, ReasonNotIndividual},
		{"owner toggles featured", owner, ToggleFeatured, ownerRef, true, ""},
		{"admin toggles featured on any listing", admin, ToggleFeatured, ownerRef, true, ""},
		{"other company toggles foreign featured", other, ToggleFeatured, ownerRef, false, ReasonNotOwner},
		{"plain user toggles featured", user, ToggleFeatured, ownerRef, false, ReasonNotAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := gate.Authorize(tt.p, tt.action, tt.owner)
			assert.Equal(t, tt.allowed, d.Allowed)
			if !tt.allowed {
				assert.Equal(t, tt.reason, d.Reason)
			}
		})
	}
}

func TestAuthorizeIDCollisionAcrossKinds(t *testing.T) {
	// An individual whose id happens to equal the company id must never pass
	// an ownership check: the two id spaces are not interchangeable.
	gate := New()
	owner := company()
	impostor := &domain.Principal{Kind: domain.KindIndividual, ID: owner.ID}

	d := gate.Authorize(impostor, MutateListing, owner.Ref())
	assert.False(t, d.Allowed)
}

func TestCanModerate(t *testing.T) {
	gate := New()
	owner := company()

	assert.True(t, gate.CanModerate(individual(true), owner.Ref()).Allowed)
	assert.True(t, gate.CanModerate(owner, owner.Ref()).Allowed)
	assert.False(t, gate.CanModerate(individual(false), owner.Ref()).Allowed)
	assert.False(t, gate.CanModerate(company(), owner.Ref()).Allowed)
	assert.False(t, gate.CanModerate(nil, owner.Ref()).Allowed)
}
