package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dtapi/user-service/internal/core/domain"
	"github.com/dtapi/user-service/internal/core/ports"
	"github.com/dtapi/user-service/internal/infrastructure/metrics"
)

// StatusToggler enables and disables users.
type StatusToggler struct {
	store ports.Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewStatusToggler returns a StatusToggler writing through store.
func NewStatusToggler(store ports.Store, log zerolog.Logger) *StatusToggler {
	return &StatusToggler{store: store, log: log, now: time.Now}
}

// Enable marks the user as enabled. Enabling an enabled user is a no-op write.
func (t *StatusToggler) Enable(ctx context.Context, id int64) error {
	return t.set(ctx, id, domain.StatusEnabled)
}

// Disable marks the user as disabled.
func (t *StatusToggler) Disable(ctx context.Context, id int64) error {
	return t.set(ctx, id, domain.StatusDisabled)
}

func (t *StatusToggler) set(ctx context.Context, id int64, status domain.UserStatus) error {
	err := t.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		_, err := t.apply(ctx, tx, id, status)
		return err
	})
	if err != nil {
		return err
	}

	metrics.StatusChangesTotal.WithLabelValues(statusLabel(status)).Inc()
	t.log.Info().Int64("user_id", id).Str("status", statusLabel(status)).Msg("user status changed")
	return nil
}

// apply loads the user through users, sets status and saves it. It runs
// inside the caller's transaction.
func (t *StatusToggler) apply(ctx context.Context, users ports.UserRepository, id int64, status domain.UserStatus) (*domain.User, error) {
	u, err := users.FindUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("set status: %w", err)
	}

	u.Status = status
	u.UpdatedAt = t.now().UTC()
	if err := users.SaveUser(ctx, u); err != nil {
		return nil, fmt.Errorf("set status: save: %w", err)
	}
	return u, nil
}

// statusFor maps the submitted status value to a UserStatus: "1" enables,
// anything else disables.
func statusFor(submitted string) domain.UserStatus {
	if submitted == string(domain.StatusEnabled) {
		return domain.StatusEnabled
	}
	return domain.StatusDisabled
}

func statusLabel(s domain.UserStatus) string {
	if s == domain.StatusEnabled {
		return "enabled"
	}
	return "disabled"
}
