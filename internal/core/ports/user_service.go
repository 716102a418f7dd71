package ports

import (
	"context"

	"github.com/dtapi/user-service/internal/core/domain"
)

// UserSubmission is the bag of fields submitted when creating or editing a
// user. Every field is optional; absent values arrive as zero values and are
// defaulted by the service rather than rejected.
type UserSubmission struct {
	Role         domain.Role
	Name         string
	CompanyID    string
	DepartmentID string
	Email        string
	DobOrOrgID   string
	Phone        string
	Mobile       string
	Password     string
	Status       string

	// Customer profile.
	ConsumerType string
	CustomerType string
	Username     string
	City         string
	Country      string
	Reference    string // "yes" marks the customer as a reference
	CostPlace    string
	Fee          string
	TimeToCharge string
	TimeToPay    string
	ChargeOB     string
	CustomerID   string
	ChargeKm     string
	MaximumKm    string

	// Translator profile.
	TranslatorType     string
	WorkedFor          string
	OrganizationNumber string
	Gender             string
	TranslatorLevel    string
	Address2           string

	// Shared profile.
	PostCode       string
	Address        string
	Town           string
	AdditionalInfo string

	// Associations.
	TranslatorExclusions []int64 // blacklisted translator ids (customers)
	Languages            []int64 // spoken language ids (translators)
	Towns                []int64 // serviced town ids
	NewTown              string  // town name to create and link
}

// UpsertJob is a queued create-or-update request. ID is nil for creates.
type UpsertJob struct {
	ID         *int64
	Submission UserSubmission
}

// UserService is the use-case boundary consumed by the transport layer.
type UserService interface {
	Upsert(ctx context.Context, id *int64, sub UserSubmission) (*domain.User, error)
	Enable(ctx context.Context, id int64) error
	Disable(ctx context.Context, id int64) error
	GetUser(ctx context.Context, id int64) (*domain.UserDetails, error)
	ListTranslators(ctx context.Context) ([]*domain.User, error)
}

// PasswordHasher is a one-way credential hash.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
}

// UserLocker serializes writers of the same user across service instances.
type UserLocker interface {
	// Lock blocks until the lock for userID is held or ctx is done. The
	// returned release func must be called exactly once.
	Lock(ctx context.Context, userID int64) (release func(), err error)
}
