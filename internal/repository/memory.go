package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/bentansusanto/travel-api/internal/domain"
	"github.com/bentansusanto/travel-api/pkg/middleware"
)

// MemoryStore keeps every table in process memory behind one mutex.
// It backs development runs without PostgreSQL and the service tests, and
// enforces the same uniqueness rules as the schema.
type MemoryStore struct {
	mu sync.RWMutex

	users        map[string]*domain.User
	sessions     map[string]*domain.Session // token hash -> session
	countries    map[string]*domain.Country
	states       map[string]*domain.State
	categories   map[string]*domain.Category
	destinations map[string]*domain.Destination
	bookings     map[string]*domain.Booking
	items        map[string][]domain.BookingItem // bookingID -> items
	tourists     map[string]*domain.Tourist
	payments     map[string]*domain.Payment
	sales        map[string]*domain.Sale
}


// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[string]*domain.User),
		sessions:     make(map[string]*domain.Session),
		countries:    make(map[string]*domain.Country),
		states:       make(map[string]*domain.State),
		categories:   make(map[string]*domain.Category),
		destinations: make(map[string]*domain.Destination),
		bookings:     make(map[string]*domain.Booking),
		items:        make(map[string][]domain.BookingItem),
		tourists:     make(map[string]*domain.Tourist),
		payments:     make(map[string]*domain.Payment),
		sales:        make(map[string]*domain.Sale),
	}
}

// WithTx runs fn directly. Each memory operation is atomic on its own and
// multi-row writes (CreateMany) validate before mutating.
func (s *MemoryStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Users returns the user repository view
func (s *MemoryStore) Users() *MemoryUserRepository { return &MemoryUserRepository{s} }

// Catalog returns the catalog repository view
func (s *MemoryStore) Catalog() *MemoryCatalogRepository { return &MemoryCatalogRepository{s} }

// Bookings returns the booking repository view
func (s *MemoryStore) Bookings() *MemoryBookingRepository { return &MemoryBookingRepository{s} }

// Tourists returns the tourist repository view
func (s *MemoryStore) Tourists() *MemoryTouristRepository { return &MemoryTouristRepository{s} }

// Payments returns the payment repository view
func (s *MemoryStore) Payments() *MemoryPaymentRepository { return &MemoryPaymentRepository{s} }

// Sales returns the sale repository view
func (s *MemoryStore) Sales() *MemorySaleRepository { return &MemorySaleRepository{s} }

// PutUser seeds a user
func (s *MemoryStore) PutUser(u *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *u
	s.users[u.ID] = &c
}

// PutSession seeds a session token for userID
func (s *MemoryStore) PutSession(token, userID string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash := HashToken(token)
	s.sessions[hash] = &domain.Session{TokenHash: hash, UserID: userID, ExpiresAt: expiresAt, CreatedAt: time.Now()}
}

// MemoryUserRepository implements UserRepository in memory
type MemoryUserRepository struct{ s *MemoryStore }

// GetByID retrieves a user
func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

// GetByEmail retrieves a user by email, case-insensitively
func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.findLocked(func(u *domain.User) bool { return strings.EqualFold(u.Email, email) })
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

// GetByVerifyCode retrieves the user holding an outstanding code
func (r *MemoryUserRepository) GetByVerifyCode(_ context.Context, code string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.findLocked(func(u *domain.User) bool { return code != "" && u.VerifyCode == code })
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (r *MemoryUserRepository) findLocked(match func(*domain.User) bool) (*domain.User, bool) {
	for _, u := range r.s.users {
		if match(u) {
			c := *u
			return &c, true
		}
	}
	return nil, false
}

// Create inserts an account
func (r *MemoryUserRepository) Create(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, taken := r.findLocked(func(o *domain.User) bool { return strings.EqualFold(o.Email, u.Email) }); taken {
		return domain.ErrEmailTaken
	}
	c := *u
	r.s.users[u.ID] = &c
	return nil
}

// Update writes every mutable field of u
func (r *MemoryUserRepository) Update(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	c := *u
	r.s.users[u.ID] = &c
	return nil
}

// CountByRole counts accounts holding role
func (r *MemoryUserRepository) CountByRole(_ context.Context, role string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return lo.CountBy(lo.Values(r.s.users), func(u *domain.User) bool { return u.Role == role }), nil
}

// CreateSession stores a login
func (r *MemoryUserRepository) CreateSession(_ context.Context, s *domain.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *s
	r.s.sessions[s.TokenHash] = &c
	return nil
}

// GetSession retrieves a login by token hash, expired or not
func (r *MemoryUserRepository) GetSession(_ context.Context, tokenHash string) (*domain.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	s, ok := r.s.sessions[tokenHash]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	c := *s
	return &c, nil
}

// DeleteSession ends one login
func (r *MemoryUserRepository) DeleteSession(_ context.Context, tokenHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.sessions, tokenHash)
	return nil
}

// DeleteUserSessions ends every login of userID
func (r *MemoryUserRepository) DeleteUserSessions(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for hash, s := range r.s.sessions {
		if s.UserID == userID {
			delete(r.s.sessions, hash)
		}
	}
	return nil
}

// Verify implements middleware.TokenVerifier
func (r *MemoryUserRepository) Verify(_ context.Context, token string) (*middleware.Principal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sess, ok := r.s.sessions[HashToken(token)]
	if !ok || sess.IsExpired(time.Now()) {
		return nil, middleware.ErrInvalidToken
	}
	u, ok := r.s.users[sess.UserID]
	if !ok {
		return nil, middleware.ErrInvalidToken
	}
	return &middleware.Principal{UserID: u.ID, Email: u.Email, Role: u.Role}, nil
}

// MemoryCatalogRepository implements CatalogRepository in memory
type MemoryCatalogRepository struct{ s *MemoryStore }

// CreateCountry inserts a country
func (r *MemoryCatalogRepository) CreateCountry(_ context.Context, c *domain.Country) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.countries {
		if existing.ISO == c.ISO {
			return domain.ErrCountryExists
		}
	}
	cp := *c
	r.s.countries[c.ID] = &cp
	return nil
}

// GetCountry retrieves a country
func (r *MemoryCatalogRepository) GetCountry(_ context.Context, id string) (*domain.Country, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.countries[id]
	if !ok {
		return nil, domain.ErrCountryNotFound
	}
	cp := *c
	return &cp, nil
}

// ListCountries retrieves all countries by name
func (r *MemoryCatalogRepository) ListCountries(_ context.Context) ([]*domain.Country, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := lo.Map(lo.Values(r.s.countries), func(c *domain.Country, _ int) *domain.Country { cp := *c; return &cp })
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CreateState inserts a state
func (r *MemoryCatalogRepository) CreateState(_ context.Context, st *domain.State) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *st
	r.s.states[st.ID] = &cp
	return nil
}

// GetState retrieves a state
func (r *MemoryCatalogRepository) GetState(_ context.Context, id string) (*domain.State, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	st, ok := r.s.states[id]
	if !ok {
		return nil, domain.ErrStateNotFound
	}
	cp := *st
	return &cp, nil
}

// CreateCategory inserts a category
func (r *MemoryCatalogRepository) CreateCategory(_ context.Context, c *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *c
	r.s.categories[c.ID] = &cp
	return nil
}

// GetCategory retrieves a category
func (r *MemoryCatalogRepository) GetCategory(_ context.Context, id string) (*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.categories[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	cp := *c
	return &cp, nil
}

// ListCategories retrieves all categories
func (r *MemoryCatalogRepository) ListCategories(_ context.Context) ([]*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := lo.Map(lo.Values(r.s.categories), func(c *domain.Category, _ int) *domain.Category { cp := *c; return &cp })
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CreateDestination inserts a destination with its translations
func (r *MemoryCatalogRepository) CreateDestination(_ context.Context, d *domain.Destination) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range d.Translations {
		if r.slugTakenLocked(t.Slug) {
			return domain.ErrSlugTaken
		}
	}
	r.s.destinations[d.ID] = cloneDestination(d)
	return nil
}

// UpdateDestination writes category, state and price
func (r *MemoryCatalogRepository) UpdateDestination(_ context.Context, d *domain.Destination) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.destinations[d.ID]
	if !ok || existing.DeletedAt != nil {
		return domain.ErrDestinationNotFound
	}
	existing.CategoryID = d.CategoryID
	existing.StateID = d.StateID
	existing.CountryID = d.CountryID
	existing.Price = d.Price
	existing.UpdatedAt = d.UpdatedAt
	return nil
}

// SoftDeleteDestination hides a destination
func (r *MemoryCatalogRepository) SoftDeleteDestination(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.destinations[id]
	if !ok || d.DeletedAt != nil {
		return domain.ErrDestinationNotFound
	}
	d.DeletedAt = &at
	return nil
}

// GetDestination retrieves a live destination
func (r *MemoryCatalogRepository) GetDestination(_ context.Context, id string) (*domain.Destination, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.destinations[id]
	if !ok || d.DeletedAt != nil {
		return nil, domain.ErrDestinationNotFound
	}
	return r.withCountryLocked(cloneDestination(d)), nil
}

// GetDestinationBySlug retrieves a live destination by translation slug
func (r *MemoryCatalogRepository) GetDestinationBySlug(_ context.Context, slug string) (*domain.Destination, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, d := range r.s.destinations {
		if d.DeletedAt != nil {
			continue
		}
		if lo.ContainsBy(d.Translations, func(t domain.DestinationTranslation) bool { return t.Slug == slug }) {
			return r.withCountryLocked(cloneDestination(d)), nil
		}
	}
	return nil, domain.ErrDestinationNotFound
}

// ListDestinations retrieves live destinations, newest first
func (r *MemoryCatalogRepository) ListDestinations(_ context.Context, f DestinationFilter) ([]*domain.Destination, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*domain.Destination
	for _, d := range r.s.destinations {
		if d.DeletedAt != nil {
			continue
		}
		c := r.withCountryLocked(cloneDestination(d))
		if (f.CountryID == "" || c.CountryID == f.CountryID) && (f.CategoryID == "" || c.CategoryID == f.CategoryID) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	if f.Offset >= len(out) {
		return nil, nil
	}
	return out[f.Offset:min(len(out), f.Offset+limit)], nil
}

// AddTranslation inserts a translation
func (r *MemoryCatalogRepository) AddTranslation(_ context.Context, t *domain.DestinationTranslation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.destinations[t.DestinationID]
	if !ok {
		return domain.ErrDestinationNotFound
	}
	if r.slugTakenLocked(t.Slug) {
		return domain.ErrSlugTaken
	}
	if lo.ContainsBy(d.Translations, func(x domain.DestinationTranslation) bool { return x.LanguageCode == t.LanguageCode }) {
		return domain.ErrSlugTaken
	}
	d.Translations = append(d.Translations, *t)
	return nil
}

func (r *MemoryCatalogRepository) slugTakenLocked(slug string) bool {
	for _, d := range r.s.destinations {
		for _, t := range d.Translations {
			if t.Slug == slug {
				return true
			}
		}
	}
	return false
}

func (r *MemoryCatalogRepository) withCountryLocked(d *domain.Destination) *domain.Destination {
	if st, ok := r.s.states[d.StateID]; ok {
		d.CountryID = st.CountryID
	}
	return d
}

func cloneDestination(d *domain.Destination) *domain.Destination {
	c := *d
	c.Translations = append([]domain.DestinationTranslation(nil), d.Translations...)
	return &c
}

// MemoryBookingRepository implements BookingRepository in memory
type MemoryBookingRepository struct{ s *MemoryStore }

// Create inserts a booking, enforcing one open booking per (user, country)
func (r *MemoryBookingRepository) Create(_ context.Context, b *domain.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if b.Status.IsOpen() && r.findOpenLocked(b.UserID, b.CountryID) != nil {
		return domain.ErrOpenBookingExists
	}
	c := *b
	c.Items = nil
	r.s.bookings[b.ID] = &c
	return nil
}

// AddItem inserts a booking item
func (r *MemoryBookingRepository) AddItem(_ context.Context, item *domain.BookingItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.bookings[item.BookingID]; !ok {
		return domain.ErrBookingNotFound
	}
	r.s.items[item.BookingID] = append(r.s.items[item.BookingID], *item)
	return nil
}

// GetByID retrieves a live booking with items
func (r *MemoryBookingRepository) GetByID(_ context.Context, id string) (*domain.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.bookings[id]
	if !ok || b.DeletedAt != nil {
		return nil, domain.ErrBookingNotFound
	}
	return r.cloneLocked(b), nil
}

// ListByUser retrieves the user's bookings, newest first
func (r *MemoryBookingRepository) ListByUser(_ context.Context, userID string) ([]*domain.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.Booking
	for _, b := range r.s.bookings {
		if b.UserID == userID && b.DeletedAt == nil {
			out = append(out, r.cloneLocked(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// FindOpen retrieves the draft or pending booking for (userID, countryID)
func (r *MemoryBookingRepository) FindOpen(_ context.Context, userID, countryID string) (*domain.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b := r.findOpenLocked(userID, countryID)
	if b == nil {
		return nil, domain.ErrBookingNotFound
	}
	return r.cloneLocked(b), nil
}

// LatestVisitDate returns the user's latest booked visit
func (r *MemoryBookingRepository) LatestVisitDate(_ context.Context, userID string) (time.Time, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var latest time.Time
	found := false
	for id, b := range r.s.bookings {
		if b.UserID != userID || b.DeletedAt != nil {
			continue
		}
		for _, item := range r.s.items[id] {
			if !found || item.VisitDate.After(latest) {
				latest, found = item.VisitDate, true
			}
		}
	}
	return latest, found, nil
}

// AddToSubtotal increments the subtotal
func (r *MemoryBookingRepository) AddToSubtotal(_ context.Context, id string, delta decimal.Decimal, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok || b.DeletedAt != nil {
		return domain.ErrBookingNotFound
	}
	b.Subtotal = b.Subtotal.Add(delta)
	b.UpdatedAt = at
	return nil
}

// UpdateStatus writes a status chosen by domain.Booking.TransitionTo
func (r *MemoryBookingRepository) UpdateStatus(_ context.Context, id string, status domain.BookingStatus, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok || b.DeletedAt != nil {
		return domain.ErrBookingNotFound
	}
	if status.IsOpen() && !b.Status.IsOpen() {
		if other := r.findOpenLocked(b.UserID, b.CountryID); other != nil && other.ID != id {
			return domain.ErrOpenBookingExists
		}
	}
	b.Status = status
	b.UpdatedAt = at
	return nil
}

func (r *MemoryBookingRepository) findOpenLocked(userID, countryID string) *domain.Booking {
	for _, b := range r.s.bookings {
		if b.UserID == userID && b.CountryID == countryID && b.Status.IsOpen() && b.DeletedAt == nil {
			return b
		}
	}
	return nil
}

func (r *MemoryBookingRepository) cloneLocked(b *domain.Booking) *domain.Booking {
	c := *b
	c.Items = append([]domain.BookingItem(nil), r.s.items[b.ID]...)
	sort.SliceStable(c.Items, func(i, j int) bool { return c.Items[i].VisitDate.Before(c.Items[j].VisitDate) })
	return &c
}

// MemoryTouristRepository implements TouristRepository in memory
type MemoryTouristRepository struct{ s *MemoryStore }

// Create inserts one tourist
func (r *MemoryTouristRepository) Create(_ context.Context, t *domain.Tourist) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.byPassportLocked(t.PassportNo) != nil {
		return &domain.PassportConflictError{Passports: []string{t.PassportNo}}
	}
	c := *t
	r.s.tourists[t.ID] = &c
	return nil
}

// CreateMany inserts all tourists or none
func (r *MemoryTouristRepository) CreateMany(_ context.Context, tourists []*domain.Tourist) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := make(map[string]bool, len(tourists))
	var taken []string
	for _, t := range tourists {
		if seen[t.PassportNo] || r.byPassportLocked(t.PassportNo) != nil {
			taken = append(taken, t.PassportNo)
		}
		seen[t.PassportNo] = true
	}
	if len(taken) > 0 {
		return &domain.PassportConflictError{Passports: taken}
	}
	for _, t := range tourists {
		c := *t
		r.s.tourists[t.ID] = &c
	}
	return nil
}

// GetByID retrieves a tourist
func (r *MemoryTouristRepository) GetByID(_ context.Context, id string) (*domain.Tourist, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tourists[id]
	if !ok {
		return nil, domain.ErrTouristNotFound
	}
	c := *t
	return &c, nil
}

// GetByPassport retrieves the tourist holding passportNo
func (r *MemoryTouristRepository) GetByPassport(_ context.Context, passportNo string) (*domain.Tourist, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t := r.byPassportLocked(passportNo)
	if t == nil {
		return nil, domain.ErrTouristNotFound
	}
	c := *t
	return &c, nil
}

// ExistingPassports returns which of passports are already registered
func (r *MemoryTouristRepository) ExistingPassports(_ context.Context, passports []string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	found := lo.Filter(lo.Uniq(passports), func(p string, _ int) bool { return r.byPassportLocked(p) != nil })
	sort.Strings(found)
	return found, nil
}

// ListByBooking retrieves the tourists of a booking
func (r *MemoryTouristRepository) ListByBooking(_ context.Context, bookingID string) ([]*domain.Tourist, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.filterLocked(func(t *domain.Tourist) bool { return t.BookingID == bookingID }), nil
}

// ListByUser retrieves the tourists on every booking of userID
func (r *MemoryTouristRepository) ListByUser(_ context.Context, userID string) ([]*domain.Tourist, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.filterLocked(func(t *domain.Tourist) bool {
		b, ok := r.s.bookings[t.BookingID]
		return ok && b.UserID == userID && b.DeletedAt == nil
	}), nil
}

// Update writes the editable fields
func (r *MemoryTouristRepository) Update(_ context.Context, t *domain.Tourist) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.tourists[t.ID]
	if !ok {
		return domain.ErrTouristNotFound
	}
	if holder := r.byPassportLocked(t.PassportNo); holder != nil && holder.ID != t.ID {
		return domain.ErrPassportConflict
	}
	bookingID := existing.BookingID
	c := *t
	c.BookingID = bookingID
	r.s.tourists[t.ID] = &c
	return nil
}

// Delete removes a tourist
func (r *MemoryTouristRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tourists[id]; !ok {
		return domain.ErrTouristNotFound
	}
	delete(r.s.tourists, id)
	return nil
}

func (r *MemoryTouristRepository) byPassportLocked(passportNo string) *domain.Tourist {
	for _, t := range r.s.tourists {
		if t.PassportNo == passportNo {
			return t
		}
	}
	return nil
}

func (r *MemoryTouristRepository) filterLocked(keep func(*domain.Tourist) bool) []*domain.Tourist {
	var out []*domain.Tourist
	for _, t := range r.s.tourists {
		if keep(t) {
			c := *t
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// MemoryPaymentRepository implements PaymentRepository in memory
type MemoryPaymentRepository struct{ s *MemoryStore }

// Create inserts a payment
func (r *MemoryPaymentRepository) Create(_ context.Context, p *domain.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.payments {
		if existing.InvoiceCode == p.InvoiceCode {
			return domain.ErrInvoiceCodeTaken
		}
	}
	c := *p
	r.s.payments[p.ID] = &c
	return nil
}

// InvoiceCodeExists checks whether code is already used
func (r *MemoryPaymentRepository) InvoiceCodeExists(_ context.Context, code string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return lo.ContainsBy(lo.Values(r.s.payments), func(p *domain.Payment) bool { return p.InvoiceCode == code }), nil
}

// GetByID retrieves a payment
func (r *MemoryPaymentRepository) GetByID(_ context.Context, id string) (*domain.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	c := *p
	return &c, nil
}

// GetByTransactionID retrieves a payment by processor order id
func (r *MemoryPaymentRepository) GetByTransactionID(_ context.Context, transactionID string) (*domain.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.payments {
		if transactionID != "" && p.TransactionID == transactionID {
			c := *p
			return &c, nil
		}
	}
	return nil, domain.ErrPaymentNotFound
}

// ListByUser retrieves the user's payments, newest first
func (r *MemoryPaymentRepository) ListByUser(_ context.Context, userID string) ([]*domain.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.Payment
	for _, p := range r.s.payments {
		if p.UserID == userID {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Update writes status and processor fields
func (r *MemoryPaymentRepository) Update(_ context.Context, p *domain.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.payments[p.ID]
	if !ok {
		return domain.ErrPaymentNotFound
	}
	existing.Status = p.Status
	existing.TransactionID = p.TransactionID
	existing.PayerEmail = p.PayerEmail
	existing.RedirectURL = p.RedirectURL
	existing.UpdatedAt = p.UpdatedAt
	return nil
}

// CompareAndSetStatus updates the payment only while its status is expected
func (r *MemoryPaymentRepository) CompareAndSetStatus(_ context.Context, p *domain.Payment, expected domain.PaymentStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.payments[p.ID]
	if !ok {
		return false, domain.ErrPaymentNotFound
	}
	if existing.Status != expected {
		return false, nil
	}
	existing.Status = p.Status
	existing.PayerEmail = p.PayerEmail
	existing.RedirectURL = p.RedirectURL
	existing.UpdatedAt = p.UpdatedAt
	return true, nil
}

// MemorySaleRepository implements SaleRepository in memory
type MemorySaleRepository struct{ s *MemoryStore }

// Create inserts a sale, one per payment
func (r *MemorySaleRepository) Create(_ context.Context, sale *domain.Sale) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.sales {
		if existing.PaymentID == sale.PaymentID {
			return domain.ErrSaleExists
		}
	}
	c := *sale
	r.s.sales[sale.ID] = &c
	return nil
}

// ExistsForPayment checks whether a sale was recorded for paymentID
func (r *MemorySaleRepository) ExistsForPayment(_ context.Context, paymentID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return lo.ContainsBy(lo.Values(r.s.sales), func(s *domain.Sale) bool { return s.PaymentID == paymentID }), nil
}

// List returns every sale, newest first
func (r *MemorySaleRepository) List(_ context.Context) ([]*domain.Sale, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := lo.Map(lo.Values(r.s.sales), func(s *domain.Sale, _ int) *domain.Sale { c := *s; return &c })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Aggregate sums completed sales per period bucket and currency
func (r *MemorySaleRepository) Aggregate(_ context.Context, period domain.SalesPeriod) ([]domain.SalesBucket, error) {
	if _, err := domain.ParseSalesPeriod(string(period)); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	type bucketKey struct{ label, currency string }
	byKey := make(map[bucketKey]*domain.SalesBucket)
	for _, sale := range r.s.sales {
		if sale.Status != domain.SaleStatusCompleted {
			continue
		}
		key := bucketKey{label: period.Label(sale.CreatedAt), currency: sale.Currency}
		b, ok := byKey[key]
		if !ok {
			b = &domain.SalesBucket{Label: key.label, Currency: key.currency, TotalAmount: decimal.Zero}
			byKey[key] = b
		}
		b.TotalAmount = b.TotalAmount.Add(sale.Amount)
		b.Orders++
	}

	out := lo.Map(lo.Values(byKey), func(b *domain.SalesBucket, _ int) domain.SalesBucket { return *b })
	sort.Slice(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].Currency < out[j].Currency
	})
	return out, nil
}

// Summary returns lifetime totals over completed sales
func (r *MemorySaleRepository) Summary(_ context.Context) (*domain.SalesSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	byCurrency := make(map[string]*domain.CurrencyTotal)
	summary := &domain.SalesSummary{Revenue: []domain.CurrencyTotal{}}
	for _, sale := range r.s.sales {
		if sale.Status != domain.SaleStatusCompleted {
			continue
		}
		t, ok := byCurrency[sale.Currency]
		if !ok {
			t = &domain.CurrencyTotal{Currency: sale.Currency, Amount: decimal.Zero}
			byCurrency[sale.Currency] = t
		}
		t.Amount = t.Amount.Add(sale.Amount)
		t.Orders++
		summary.TotalOrders++
	}

	summary.Revenue = append(summary.Revenue, lo.Map(lo.Values(byCurrency), func(t *domain.CurrencyTotal, _ int) domain.CurrencyTotal { return *t })...)
	sort.Slice(summary.Revenue, func(i, j int) bool { return summary.Revenue[i].Currency < summary.Revenue[j].Currency })
	return summary, nil
}
