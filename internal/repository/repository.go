package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bentansusanto/travel-api/internal/domain"
)

// TxManager runs fn atomically. Repositories called with the ctx passed to
// fn join the transaction.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository reads accounts
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// AccountRepository writes accounts for sign-up and credential changes
type AccountRepository interface {
	UserRepository
	// Create inserts u; a used email yields domain.ErrEmailTaken
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByVerifyCode(ctx context.Context, code string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	CountByRole(ctx context.Context, role string) (int, error)
}

// SessionRepository stores logins by token hash
type SessionRepository interface {
	CreateSession(ctx context.Context, s *domain.Session) error
	// GetSession returns domain.ErrSessionNotFound for unknown hashes
	GetSession(ctx context.Context, tokenHash string) (*domain.Session, error)
	DeleteSession(ctx context.Context, tokenHash string) error
	DeleteUserSessions(ctx context.Context, userID string) error
}

// DestinationFilter narrows ListDestinations
type DestinationFilter struct {
	CountryID  string
	CategoryID string
	Limit      int
	Offset     int
}

// CatalogRepository defines data access for countries, states, categories
// and destinations
type CatalogRepository interface {
	CreateCountry(ctx context.Context, country *domain.Country) error
	GetCountry(ctx context.Context, id string) (*domain.Country, error)
	ListCountries(ctx context.Context) ([]*domain.Country, error)

	CreateState(ctx context.Context, state *domain.State) error
	GetState(ctx context.Context, id string) (*domain.State, error)

	CreateCategory(ctx context.Context, category *domain.Category) error
	GetCategory(ctx context.Context, id string) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)

	// CreateDestination stores the destination and its translations
	CreateDestination(ctx context.Context, destination *domain.Destination) error
	UpdateDestination(ctx context.Context, destination *domain.Destination) error
	SoftDeleteDestination(ctx context.Context, id string, at time.Time) error
	// GetDestination returns a live destination with translations and country
	GetDestination(ctx context.Context, id string) (*domain.Destination, error)
	GetDestinationBySlug(ctx context.Context, slug string) (*domain.Destination, error)
	ListDestinations(ctx context.Context, filter DestinationFilter) ([]*domain.Destination, error)
	// AddTranslation returns domain.ErrSlugTaken when the slug is used
	AddTranslation(ctx context.Context, translation *domain.DestinationTranslation) error
}

// BookingRepository defines data access for bookings and their items
type BookingRepository interface {
	// Create returns domain.ErrOpenBookingExists when the user already has an
	// open booking for the same country
	Create(ctx context.Context, booking *domain.Booking) error
	AddItem(ctx context.Context, item *domain.BookingItem) error
	// GetByID returns the booking with its items
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Booking, error)
	// FindOpen returns the draft or pending booking for (userID, countryID)
	FindOpen(ctx context.Context, userID, countryID string) (*domain.Booking, error)
	// LatestVisitDate returns the latest item visit date across all of the
	// user's bookings
	LatestVisitDate(ctx context.Context, userID string) (time.Time, bool, error)
	AddToSubtotal(ctx context.Context, id string, delta decimal.Decimal, at time.Time) error
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus, at time.Time) error
}

// TouristRepository defines data access for tourists
type TouristRepository interface {
	// Create returns domain.ErrPassportAlreadyRegistered on a duplicate passport
	Create(ctx context.Context, tourist *domain.Tourist) error
	CreateMany(ctx context.Context, tourists []*domain.Tourist) error
	GetByID(ctx context.Context, id string) (*domain.Tourist, error)
	GetByPassport(ctx context.Context, passportNo string) (*domain.Tourist, error)
	// ExistingPassports returns the subset of passports already stored
	ExistingPassports(ctx context.Context, passports []string) ([]string, error)
	ListByBooking(ctx context.Context, bookingID string) ([]*domain.Tourist, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Tourist, error)
	Update(ctx context.Context, tourist *domain.Tourist) error
	Delete(ctx context.Context, id string) error
}

// PaymentRepository defines data access for payments
type PaymentRepository interface {
	// Create returns domain.ErrInvoiceCodeTaken on an invoice code collision
	Create(ctx context.Context, payment *domain.Payment) error
	InvoiceCodeExists(ctx context.Context, code string) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Payment, error)
	// Update writes the mutable processor fields and status unconditionally
	Update(ctx context.Context, payment *domain.Payment) error
	// CompareAndSetStatus writes payment only if its stored status is still
	// expected. It returns false when another writer got there first.
	CompareAndSetStatus(ctx context.Context, payment *domain.Payment, expected domain.PaymentStatus) (bool, error)
}

// SaleRepository defines data access for the sales ledger
type SaleRepository interface {
	// Create returns domain.ErrSaleExists when the payment already has a sale
	Create(ctx context.Context, sale *domain.Sale) error
	ExistsForPayment(ctx context.Context, paymentID string) (bool, error)
	// List returns every sale, newest first
	List(ctx context.Context) ([]*domain.Sale, error)
	// Aggregate sums completed sales per period label, ascending
	Aggregate(ctx context.Context, period domain.SalesPeriod) ([]domain.SalesBucket, error)
	Summary(ctx context.Context) (*domain.SalesSummary, error)
}
