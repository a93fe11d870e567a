package domain

import (
	"time"

	"github.com/google/uuid"
)

// Core domain models. Transport/JSON shapes live in the http adapter; keep
// these decoupled where helpful.

type PrincipalKind string

const (
	KindIndividual PrincipalKind = "individual"
	KindCompany    PrincipalKind = "company"
)

// PrincipalRef identifies a principal without loading it. Individual and
// company ids live in separate spaces; an id collision across kinds is never
// a match.
type PrincipalRef struct {
	Kind PrincipalKind
	ID   uuid.UUID
}

func (r PrincipalRef) Equal(o PrincipalRef) bool {
	return r.Kind == o.Kind && r.ID == o.ID
}

// Principal is the tagged union of the two authenticatable account kinds.
// IsAdmin is meaningful only for individuals; a company is never admin.
type Principal struct {
	Kind         PrincipalKind
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	IsAdmin      bool
	Settings     map[string]any
	CreatedAt    time.Time
}

func (p *Principal) Ref() PrincipalRef { return PrincipalRef{Kind: p.Kind, ID: p.ID} }

type Capabilities struct {
	IsAdmin   bool
	IsCompany bool
}

func CapabilitiesOf(p *Principal) Capabilities {
	if p == nil {
		return Capabilities{}
	}
	return Capabilities{
		IsAdmin:   p.Kind == KindIndividual && p.IsAdmin,
		IsCompany: p.Kind == KindCompany,
	}
}

type ListingStatus string

const (
	ListingActive   ListingStatus = "active"
	ListingInactive ListingStatus = "inactive"
	ListingPending  ListingStatus = "pending"
)

// Listing is owned by exactly one company. CompanyName is a denormalized
// display cache and must never be consulted for authorization.
type Listing struct {
	ID          uuid.UUID
	CompanyID   uuid.UUID
	CompanyName string
	// CreatedByID tags self-service listings created outside the company
	// console with the individual who created them.
	CreatedByID *uuid.UUID
	Title       string
	Description string
	Price       float64
	Category    string
	Subcategory string
	Location    string
	Status      ListingStatus
	Featured    bool
	Clicks      int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ItemKind string

const (
	ItemComment ItemKind = "comment"
	ItemInquiry ItemKind = "inquiry"
)

type ItemStatus string

const (
	StatusPending  ItemStatus = "pending"
	StatusApproved ItemStatus = "approved"
	StatusRejected ItemStatus = "rejected"
	StatusReplied  ItemStatus = "replied"
	StatusResolved ItemStatus = "resolved"
	StatusSpam     ItemStatus = "spam"
)

type ReplierRole string

const (
	RepliedByAdmin   ReplierRole = "admin"
	RepliedByCompany ReplierRole = "company"
)

// Reply records who answered a moderated item. RepliedBy is the explicit
// attribution; ReplierID is populated for both roles (the admin's id or the
// company's id), so attribution never depends on a null.
type Reply struct {
	Text      string
	RepliedAt time.Time
	RepliedBy ReplierRole
	ReplierID uuid.UUID
}

// ModeratedItem is either a comment on a listing or an inquiry to a company.
// Sender identity is copied from the authenticated principal at submit time
// and never re-resolved later.
type ModeratedItem struct {
	ID          uuid.UUID
	Kind        ItemKind
	ListingID   *uuid.UUID // comments only
	CompanyID   uuid.UUID  // listing owner, or inquiry recipient
	SenderID    *uuid.UUID
	SenderName  string
	SenderEmail string
	SenderPhone string
	Body        string
	Rating      *int // comments only, 1..5
	Status      ItemStatus
	IsRead      bool
	IsUrgent    bool
	Reply       *Reply
	CreatedAt   time.Time
}

// Target returns the principal the item is addressed to: the company owning
// the listing for comments, the recipient company for inquiries.
func (m *ModeratedItem) Target() PrincipalRef {
	return PrincipalRef{Kind: KindCompany, ID: m.CompanyID}
}

// Rating is one row per (rater, rated principal) pair.
type Rating struct {
	ID      uuid.UUID
	RaterID uuid.UUID
	Subject PrincipalRef
	Value   int
}

// Review is a per-company review carrying an order reference and a
// visibility flag. IsHidden is a separate status space from ModeratedItem
// but the same kind of workflow: visible vs suppressed.
type Review struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	AuthorID  uuid.UUID
	OrderRef  string
	Value     int
	Body      string
	IsHidden  bool
	CreatedAt time.Time
}

// FeaturedCaps are injected configuration, not hard-coded law.
type FeaturedCaps struct {
	Global     int
	PerCompany int
}
