package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dtapi/user-service/internal/core/domain"
	"github.com/dtapi/user-service/internal/core/ports"
	"github.com/dtapi/user-service/internal/infrastructure/metrics"
)

// UserService creates and edits users and keeps their role profile and
// associations in line with each submission. One call is one transaction.
type UserService struct {
	store    ports.Store
	hasher   ports.PasswordHasher
	locker   ports.UserLocker
	roles    domain.RoleSet
	profiles *ProfileWriter
	edges    *Reconciler
	status   *StatusToggler
	log      zerolog.Logger
	now      func() time.Time
}

// NewUserService wires a UserService. locker may be nil, in which case
// serialization relies on the store's row locks alone.
func NewUserService(
	store ports.Store,
	hasher ports.PasswordHasher,
	locker ports.UserLocker,
	roles domain.RoleSet,
	log zerolog.Logger,
) *UserService {
	if locker == nil {
		locker = noopLocker{}
	}
	return &UserService{
		store:    store,
		hasher:   hasher,
		locker:   locker,
		roles:    roles,
		profiles: NewProfileWriter(),
		edges:    NewReconciler(log),
		status:   NewStatusToggler(store, log),
		log:      log,
		now:      time.Now,
	}
}

// Upsert creates a user when id is nil and updates user *id otherwise.
func (s *UserService) Upsert(ctx context.Context, id *int64, sub ports.UserSubmission) (*domain.User, error) {
	start := time.Now()
	op := "create"
	if id != nil {
		op = "update"
		release, err := s.locker.Lock(ctx, *id)
		if err != nil {
			return nil, fmt.Errorf("upsert user %d: %w", *id, err)
		}
		defer release()
	}

	var saved *domain.User
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		u, err := s.upsert(ctx, tx, id, sub)
		if err != nil {
			return err
		}
		saved = u
		return nil
	})

	outcome, timing := "ok", "ok"
	if err != nil {
		outcome, timing = "error", "error"
		if errors.Is(err, domain.ErrUserNotFound) {
			outcome = "not_found"
		}
	}
	metrics.UpsertsTotal.WithLabelValues(s.roleLabel(sub.Role), op, outcome).Inc()
	metrics.UpsertDuration.WithLabelValues(timing).Observe(time.Since(start).Seconds())

	if err != nil {
		s.log.Error().Err(err).Str("op", op).Str("role", s.roleLabel(sub.Role)).Msg("user upsert failed")
		return nil, err
	}

	s.log.Info().
		Int64("user_id", saved.ID).
		Str("op", op).
		Str("role", s.roleLabel(sub.Role)).
		Str("status", statusLabel(saved.Status)).
		Msg("user upserted")

	return saved, nil
}

// upsert runs every write of one submission inside tx.
func (s *UserService) upsert(ctx context.Context, tx ports.Tx, id *int64, sub ports.UserSubmission) (*domain.User, error) {
	u, err := s.loadOrNew(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := s.fillUser(u, sub); err != nil {
		return nil, err
	}

	if !u.IsNew() {
		if err := tx.ClearRoles(ctx, u.ID); err != nil {
			return nil, fmt.Errorf("upsert user: clear roles: %w", err)
		}
	}
	if err := tx.SaveUser(ctx, u); err != nil {
		return nil, fmt.Errorf("upsert user: save: %w", err)
	}
	if err := tx.AssignRole(ctx, u.ID, sub.Role); err != nil {
		return nil, fmt.Errorf("upsert user: assign role: %w", err)
	}

	switch sub.Role {
	case s.roles.Customer:
		if err := s.profiles.WriteCustomer(ctx, tx, u.ID, sub); err != nil {
			return nil, err
		}
		if _, err := s.edges.Sync(ctx, tx, domain.EdgeBlacklist, u.ID, sub.TranslatorExclusions); err != nil {
			return nil, err
		}
	case s.roles.Translator:
		if err := s.profiles.WriteTranslator(ctx, tx, u.ID, sub); err != nil {
			return nil, err
		}
		if _, err := s.edges.Sync(ctx, tx, domain.EdgeLanguage, u.ID, sub.Languages); err != nil {
			return nil, err
		}
	}

	towns, err := s.townTargets(ctx, tx, sub)
	if err != nil {
		return nil, err
	}
	if _, err := s.edges.Replace(ctx, tx, domain.EdgeTown, u.ID, towns); err != nil {
		return nil, err
	}

	return s.status.apply(ctx, tx, u.ID, statusFor(sub.Status))
}

func (s *UserService) loadOrNew(ctx context.Context, users ports.UserRepository, id *int64) (*domain.User, error) {
	if id == nil {
		now := s.now().UTC()
		return &domain.User{CreatedAt: now}, nil
	}
	u, err := users.FindUserByID(ctx, *id)
	if err != nil {
		return nil, fmt.Errorf("upsert user %d: %w", *id, err)
	}
	return u, nil
}

// fillUser copies the scalar fields of sub onto u. The password is only
// (re)hashed for new users or when a new one was submitted.
func (s *UserService) fillUser(u *domain.User, sub ports.UserSubmission) error {
	u.Role = sub.Role
	u.Name = sub.Name
	u.CompanyID = referenceID(sub.CompanyID)
	u.DepartmentID = referenceID(sub.DepartmentID)
	u.Email = sub.Email
	u.DobOrOrgID = sub.DobOrOrgID
	u.Phone = sub.Phone
	u.Mobile = sub.Mobile
	u.UpdatedAt = s.now().UTC()

	if u.IsNew() || sub.Password != "" {
		hash, err := s.hasher.Hash(sub.Password)
		if err != nil {
			return fmt.Errorf("upsert user: hash password: %w", err)
		}
		u.PasswordHash = hash
	}
	return nil
}

// townTargets returns the submitted town ids plus the id of the town created
// from sub.NewTown, if any.
func (s *UserService) townTargets(ctx context.Context, towns ports.TownRepository, sub ports.UserSubmission) ([]int64, error) {
	name := strings.TrimSpace(sub.NewTown)
	if name == "" {
		return sub.Towns, nil
	}

	townID, err := towns.CreateTown(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("upsert user: create town %q: %w", name, err)
	}

	targets := make([]int64, 0, len(sub.Towns)+1)
	targets = append(targets, sub.Towns...)
	return append(targets, townID), nil
}

// Enable marks user id as enabled.
func (s *UserService) Enable(ctx context.Context, id int64) error {
	release, err := s.locker.Lock(ctx, id)
	if err != nil {
		return fmt.Errorf("enable user %d: %w", id, err)
	}
	defer release()
	return s.status.Enable(ctx, id)
}

// Disable marks user id as disabled.
func (s *UserService) Disable(ctx context.Context, id int64) error {
	release, err := s.locker.Lock(ctx, id)
	if err != nil {
		return fmt.Errorf("disable user %d: %w", id, err)
	}
	defer release()
	return s.status.Disable(ctx, id)
}

// GetUser returns user id with its blacklist, language and town targets.
// Nothing is locked.
func (s *UserService) GetUser(ctx context.Context, id int64) (*domain.UserDetails, error) {
	var details *domain.UserDetails
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		u, err := tx.GetUserByID(ctx, id)
		if err != nil {
			return fmt.Errorf("get user %d: %w", id, err)
		}
		d := &domain.UserDetails{User: *u}
		for kind, dst := range map[domain.EdgeKind]*[]int64{
			domain.EdgeBlacklist: &d.Blacklist,
			domain.EdgeLanguage:  &d.Languages,
			domain.EdgeTown:      &d.Towns,
		} {
			targets, err := tx.ListEdgeTargets(ctx, kind, id)
			if err != nil {
				return fmt.Errorf("get user %d: %w", id, err)
			}
			*dst = targets
		}
		details = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return details, nil
}

// ListTranslators returns every user holding the configured translator role.
func (s *UserService) ListTranslators(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		found, err := tx.ListUsersByRole(ctx, s.roles.Translator)
		if err != nil {
			return fmt.Errorf("list translators: %w", err)
		}
		users = found
		return nil
	})
	return users, err
}

func (s *UserService) roleLabel(r domain.Role) string {
	switch r {
	case s.roles.Customer:
		return "customer"
	case s.roles.Translator:
		return "translator"
	case s.roles.Admin:
		return "admin"
	default:
		return "other"
	}
}

// referenceID parses an optional company/department id. Empty and malformed
// values fall back to domain.NoReference.
func referenceID(v string) int64 {
	v = strings.TrimSpace(v)
	if v == "" {
		return domain.NoReference
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return domain.NoReference
	}
	return n
}

type noopLocker struct{}

func (noopLocker) Lock(context.Context, int64) (func(), error) {
	return func() {}, nil
}
