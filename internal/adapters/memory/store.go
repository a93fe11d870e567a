package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tradepost/internal/domain"
	"tradepost/internal/ports"
)

// Store implements every repository port in memory. It backs the tests and
// local runs without a DATABASE_URL. Each concern has its own mutex so
// toggles on unrelated state do not contend; all critical sections are
// short, lock-ordered and free of I/O, mirroring the transactional
// guarantees of the postgres adapter.
type Store struct {
	mu         sync.Mutex // principals, tokens, items, ratings, reviews
	principals map[domain.PrincipalRef]*domain.Principal
	tokens     map[string]ports.TokenRecord
	items      map[uuid.UUID]*domain.ModeratedItem
	ratings    []domain.Rating
	reviews    map[uuid.UUID]*domain.Review

	listMu   sync.Mutex // listings, featured flags
	listings map[uuid.UUID]*domain.Listing

	favMu     sync.Mutex // favorite sets
	favorites map[uuid.UUID]map[uuid.UUID]bool
}

func New() *Store {
	return &Store{
		principals: map[domain.PrincipalRef]*domain.Principal{},
		tokens:     map[string]ports.TokenRecord{},
		items:      map[uuid.UUID]*domain.ModeratedItem{},
		reviews:    map[uuid.UUID]*domain.Review{},
		listings:   map[uuid.UUID]*domain.Listing{},
		favorites:  map[uuid.UUID]map[uuid.UUID]bool{},
	}
}

// PrincipalRepository

func (s *Store) CreatePrincipal(ctx context.Context, p *domain.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.principals[p.Ref()] = &cp
	return nil
}

func (s *Store) GetPrincipal(ctx context.Context, ref domain.PrincipalRef) (*domain.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.principals[ref]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *Store) GetPrincipalByEmail(ctx context.Context, kind domain.PrincipalKind, email string) (*domain.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.principals {
		if p.Kind == kind && p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) UpdatePassword(ctx context.Context, ref domain.PrincipalRef, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.principals[ref]
	if !ok {
		return domain.ErrNotFound
	}
	p.PasswordHash = hash
	return nil
}

// TokenRepository

func (s *Store) InsertToken(ctx context.Context, rec ports.TokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[rec.Hash] = rec
	return nil
}

func (s *Store) LookupToken(ctx context.Context, hash string) (ports.TokenRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tokens[hash]
	return rec, ok, nil
}

func (s *Store) RevokeToken(ctx context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tokens[hash]
	if !ok {
		return domain.ErrNotFound
	}
	now := nowUTC()
	rec.RevokedAt = &now
	s.tokens[hash] = rec
	return nil
}

func (s *Store) PurgeExpiredTokens(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for h, rec := range s.tokens {
		if rec.ExpiresAt.Before(before) || (rec.RevokedAt != nil && rec.RevokedAt.Before(before)) {
			delete(s.tokens, h)
			n++
		}
	}
	return n, nil
}

func (s *Store) RevokeOtherTokens(ctx context.Context, principal domain.PrincipalRef, keepHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := nowUTC()
	for h, rec := range s.tokens {
		if h == keepHash || !rec.Principal.Equal(principal) || rec.RevokedAt != nil {
			continue
		}
		rec.RevokedAt = &now
		s.tokens[h] = rec
	}
	return nil
}

// ListingRepository

func (s *Store) CreateListing(ctx context.Context, l *domain.Listing) error {
	s.listMu.Lock()
	defer s.listMu.Unlock()
	cp := *l
	s.listings[l.ID] = &cp
	return nil
}

func (s *Store) GetListing(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	s.listMu.Lock()
	defer s.listMu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (s *Store) UpdateListing(ctx context.Context, l *domain.Listing) error {
	s.listMu.Lock()
	defer s.listMu.Unlock()
	cur, ok := s.listings[l.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cp := *l
	// Featured and clicks are owned by their dedicated paths.
	cp.Featured = cur.Featured
	cp.Clicks = cur.Clicks
	s.listings[l.ID] = &cp
	return nil
}

func (s *Store) SetListingStatus(ctx context.Context, id uuid.UUID, status domain.ListingStatus) error {
	s.listMu.Lock()
	defer s.listMu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return domain.ErrNotFound
	}
	l.Status = status
	return nil
}

func (s *Store) IncrementClicks(ctx context.Context, id uuid.UUID) (int64, error) {
	s.listMu.Lock()
	defer s.listMu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	l.Clicks++
	return l.Clicks, nil
}

func (s *Store) ListListingsByCompany(ctx context.Context, companyID uuid.UUID) ([]domain.Listing, error) {
	s.listMu.Lock()
	defer s.listMu.Unlock()
	var out []domain.Listing
	for _, l := range s.listings {
		if l.CompanyID == companyID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ToggleFeatured does the check-then-set under the listing mutex: the cap
// read and the flag write are one critical section.
func (s *Store) ToggleFeatured(ctx context.Context, id uuid.UUID, globalCap, companyCap int, skipCompanyCap bool) (bool, error) {
	s.listMu.Lock()
	defer s.listMu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if l.Featured {
		l.Featured = false
		return false, nil
	}
	global, company := 0, 0
	for _, other := range s.listings {
		if !other.Featured {
			continue
		}
		global++
		if other.CompanyID == l.CompanyID {
			company++
		}
	}
	if global >= globalCap {
		return false, domain.ErrCapExceeded
	}
	if !skipCompanyCap && company >= companyCap {
		return false, domain.ErrCapExceeded
	}
	l.Featured = true
	return true, nil
}

// ModerationRepository

func (s *Store) InsertItem(ctx context.Context, item *domain.ModeratedItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = copyItem(item)
	return nil
}

func (s *Store) GetItem(ctx context.Context, id uuid.UUID) (*domain.ModeratedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	return copyItem(item), nil
}

func (s *Store) UpdateItemStatus(ctx context.Context, id uuid.UUID, to domain.ItemStatus, allowedFrom []domain.ItemStatus) (bool, domain.ItemStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return false, "", domain.ErrNotFound
	}
	current := item.Status
	if !contains(allowedFrom, current) {
		return false, current, nil
	}
	item.Status = to
	return true, current, nil
}

func (s *Store) SetReply(ctx context.Context, id uuid.UUID, reply domain.Reply, allowedFrom []domain.ItemStatus) (bool, domain.ItemStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return false, "", domain.ErrNotFound
	}
	current := item.Status
	if !contains(allowedFrom, current) {
		return false, current, nil
	}
	r := reply
	item.Reply = &r
	item.Status = domain.StatusReplied
	item.IsRead = true
	return true, current, nil
}

func (s *Store) SetItemFlags(ctx context.Context, id uuid.UUID, isRead, isUrgent *bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	if isRead != nil {
		item.IsRead = *isRead
	}
	if isUrgent != nil {
		item.IsUrgent = *isUrgent
	}
	return nil
}

func (s *Store) DeleteItem(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Store) ListApprovedByListing(ctx context.Context, listingID uuid.UUID) ([]domain.ModeratedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ModeratedItem
	for _, item := range s.items {
		if item.Status == domain.StatusApproved && item.ListingID != nil && *item.ListingID == listingID {
			out = append(out, *copyItem(item))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListItemsByCompany(ctx context.Context, companyID uuid.UUID) ([]domain.ModeratedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ModeratedItem
	for _, item := range s.items {
		if item.CompanyID == companyID {
			out = append(out, *copyItem(item))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// FavoriteRepository

func (s *Store) ToggleFavorite(ctx context.Context, individualID, listingID uuid.UUID) (bool, error) {
	s.favMu.Lock()
	defer s.favMu.Unlock()
	set, ok := s.favorites[individualID]
	if !ok {
		set = map[uuid.UUID]bool{}
		s.favorites[individualID] = set
	}
	if set[listingID] {
		delete(set, listingID)
		return false, nil
	}
	set[listingID] = true
	return true, nil
}

func (s *Store) ListFavorites(ctx context.Context, individualID uuid.UUID) ([]uuid.UUID, error) {
	s.favMu.Lock()
	defer s.favMu.Unlock()
	set := s.favorites[individualID]
	out := make([]uuid.UUID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out, nil
}

// RatingRepository

func (s *Store) AddRating(ctx context.Context, r *domain.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// One rating per (rater, subject); re-rating overwrites.
	for i, cur := range s.ratings {
		if cur.RaterID == r.RaterID && cur.Subject.Equal(r.Subject) {
			s.ratings[i].Value = r.Value
			return nil
		}
	}
	s.ratings = append(s.ratings, *r)
	return nil
}

func (s *Store) AddReview(ctx context.Context, r *domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.reviews[r.ID] = &cp
	return nil
}

func (s *Store) SetReviewHidden(ctx context.Context, id uuid.UUID, hidden bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.IsHidden = hidden
	return nil
}

func (s *Store) RatingValues(ctx context.Context, subject domain.PrincipalRef) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []int
	switch subject.Kind {
	case domain.KindIndividual:
		for _, r := range s.ratings {
			if r.Subject.Equal(subject) {
				out = append(out, r.Value)
			}
		}
	case domain.KindCompany:
		for _, r := range s.reviews {
			if r.CompanyID == subject.ID && !r.IsHidden {
				out = append(out, r.Value)
			}
		}
	}
	return out, nil
}

func copyItem(item *domain.ModeratedItem) *domain.ModeratedItem {
	cp := *item
	if item.ListingID != nil {
		id := *item.ListingID
		cp.ListingID = &id
	}
	if item.SenderID != nil {
		id := *item.SenderID
		cp.SenderID = &id
	}
	if item.Rating != nil {
		v := *item.Rating
		cp.Rating = &v
	}
	if item.Reply != nil {
		r := *item.Reply
		cp.Reply = &r
	}
	return &cp
}

func nowUTC() time.Time { return time.Now().UTC() }

func contains(set []domain.ItemStatus, s domain.ItemStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
