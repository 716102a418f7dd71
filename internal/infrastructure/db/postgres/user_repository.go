package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dtapi/user-service/internal/core/domain"
)

// tx implements ports.Tx on a gorm transaction handle. The context is already
// bound to db by Store.WithinTx.
type tx struct {
	db *gorm.DB
}

func (t *tx) FindUserByID(_ context.Context, id int64) (*domain.User, error) {
	var m userModel
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return m.toDomain(), nil
}

func (t *tx) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	var m userModel
	if err := t.db.First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return m.toDomain(), nil
}

func (t *tx) SaveUser(_ context.Context, u *domain.User) error {
	m := fromUser(u)
	if u.IsNew() {
		if err := t.db.Create(m).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrUserExists
			}
			return fmt.Errorf("insert user: %w", err)
		}
		u.ID = m.ID
		return nil
	}

	res := t.db.Model(&userModel{ID: u.ID}).Select("*").Omit("id", "created_at").Updates(m)
	if res.Error != nil {
		return fmt.Errorf("update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (t *tx) ListUsersByRole(_ context.Context, role domain.Role) ([]*domain.User, error) {
	var models []userModel
	err := t.db.
		Joins("JOIN user_roles ON user_roles.user_id = users.id").
		Where("user_roles.role_id = ?", int64(role)).
		Order("users.id").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}

	users := make([]*domain.User, 0, len(models))
	for i := range models {
		users = append(users, models[i].toDomain())
	}
	return users, nil
}

func (t *tx) ClearRoles(_ context.Context, userID int64) error {
	if err := t.db.Where("user_id = ?", userID).Delete(&roleModel{}).Error; err != nil {
		return fmt.Errorf("clear roles: %w", err)
	}
	return nil
}

func (t *tx) AssignRole(_ context.Context, userID int64, role domain.Role) error {
	if err := t.db.Create(&roleModel{UserID: userID, RoleID: int64(role)}).Error; err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

func (t *tx) FindOrCreateProfile(_ context.Context, userID int64) (*domain.RoleProfile, error) {
	var m profileModel
	if err := t.db.Where(profileModel{UserID: userID}).FirstOrCreate(&m).Error; err != nil {
		return nil, fmt.Errorf("find or create profile: %w", err)
	}
	return m.toDomain(), nil
}

func (t *tx) SaveProfile(_ context.Context, p *domain.RoleProfile) error {
	if err := t.db.Save(fromProfile(p)).Error; err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (t *tx) EdgeExists(_ context.Context, kind domain.EdgeKind, userID, targetID int64) (bool, error) {
	table, err := edgeTable(kind)
	if err != nil {
		return false, err
	}
	var n int64
	err = t.db.Table(table).
		Where("user_id = ? AND target_id = ?", userID, targetID).
		Limit(1).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("edge exists: %w", err)
	}
	return n > 0, nil
}

func (t *tx) CreateEdge(_ context.Context, kind domain.EdgeKind, userID, targetID int64) error {
	table, err := edgeTable(kind)
	if err != nil {
		return err
	}
	if err := t.db.Table(table).Create(&edgeModel{UserID: userID, TargetID: targetID}).Error; err != nil {
		return fmt.Errorf("create edge: %w", err)
	}
	return nil
}

func (t *tx) DeleteEdgesExcept(ctx context.Context, kind domain.EdgeKind, userID int64, keep []int64) (int64, error) {
	// NOT IN () renders as NOT IN (NULL), which matches nothing.
	if len(keep) == 0 {
		return t.DeleteAllEdges(ctx, kind, userID)
	}
	table, err := edgeTable(kind)
	if err != nil {
		return 0, err
	}
	res := t.db.Table(table).
		Where("user_id = ? AND target_id NOT IN ?", userID, keep).
		Delete(&edgeModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("prune edges: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (t *tx) DeleteAllEdges(_ context.Context, kind domain.EdgeKind, userID int64) (int64, error) {
	table, err := edgeTable(kind)
	if err != nil {
		return 0, err
	}
	res := t.db.Table(table).Where("user_id = ?", userID).Delete(&edgeModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete edges: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (t *tx) ListEdgeTargets(_ context.Context, kind domain.EdgeKind, userID int64) ([]int64, error) {
	table, err := edgeTable(kind)
	if err != nil {
		return nil, err
	}
	var targets []int64
	err = t.db.Table(table).
		Where("user_id = ?", userID).
		Order("target_id").
		Pluck("target_id", &targets).Error
	if err != nil {
		return nil, fmt.Errorf("list edges: %w", err)
	}
	return targets, nil
}

func (t *tx) CreateTown(_ context.Context, name string) (int64, error) {
	m := townModel{Name: name}
	if err := t.db.Create(&m).Error; err != nil {
		return 0, fmt.Errorf("create town: %w", err)
	}
	return m.ID, nil
}
