package ports

import (
	"context"

	"github.com/dtapi/user-service/internal/core/domain"
)

// UserRepository persists the user row.
type UserRepository interface {
	// FindUserByID loads a user for modification. Stores that support it lock
	// the row until the surrounding transaction ends.
	// Returns domain.ErrUserNotFound when no row matches.
	FindUserByID(ctx context.Context, id int64) (*domain.User, error)
	// GetUserByID loads a user for reading without taking a lock.
	// Returns domain.ErrUserNotFound when no row matches.
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	// SaveUser inserts the user when u.ID is zero (assigning u.ID) and
	// overwrites the stored row otherwise.
	SaveUser(ctx context.Context, u *domain.User) error
	// ListUsersByRole returns every user holding role, ordered by id.
	ListUsersByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)
}

// RoleRepository manages the user/role assignment table.
type RoleRepository interface {
	ClearRoles(ctx context.Context, userID int64) error
	AssignRole(ctx context.Context, userID int64, role domain.Role) error
}

// ProfileRepository persists the single RoleProfile owned by each user.
type ProfileRepository interface {
	// FindOrCreateProfile returns the profile for userID, creating a blank one
	// when none exists yet.
	FindOrCreateProfile(ctx context.Context, userID int64) (*domain.RoleProfile, error)
	SaveProfile(ctx context.Context, p *domain.RoleProfile) error
}

// EdgeRepository manages the user-scoped association tables.
type EdgeRepository interface {
	// EdgeExists reports whether (userID, targetID) is already stored for kind.
	EdgeExists(ctx context.Context, kind domain.EdgeKind, userID, targetID int64) (bool, error)
	CreateEdge(ctx context.Context, kind domain.EdgeKind, userID, targetID int64) error
	// DeleteEdgesExcept removes every edge of kind for userID whose target is
	// not listed in keep and returns the number of removed edges.
	DeleteEdgesExcept(ctx context.Context, kind domain.EdgeKind, userID int64, keep []int64) (int64, error)
	DeleteAllEdges(ctx context.Context, kind domain.EdgeKind, userID int64) (int64, error)
	// ListEdgeTargets returns the target ids currently linked to userID.
	ListEdgeTargets(ctx context.Context, kind domain.EdgeKind, userID int64) ([]int64, error)
}

// TownRepository creates towns on demand.
type TownRepository interface {
	CreateTown(ctx context.Context, name string) (int64, error)
}

// Tx is the set of repositories available inside a unit of work.
type Tx interface {
	UserRepository
	RoleRepository
	ProfileRepository
	EdgeRepository
	TownRepository
}

// Store opens units of work against the backing database.
type Store interface {
	// WithinTx runs fn inside a single transaction. The transaction commits
	// when fn returns nil and rolls back otherwise. fn must use the ctx it is
	// given for every repository call.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Ping verifies connectivity for readiness probes.
	Ping(ctx context.Context) error
}
