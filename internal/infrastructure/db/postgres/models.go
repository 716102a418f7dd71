package postgres

import (
	"time"

	"gorm.io/gorm"

	"github.com/dtapi/user-service/internal/core/domain"
)

type userModel struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Role         int64  `gorm:"not null"`
	Name         string `gorm:"size:255"`
	CompanyID    int64  `gorm:"not null;default:0"`
	DepartmentID int64  `gorm:"not null;default:0"`
	Email        string `gorm:"size:255;index"`
	DobOrOrgID   string `gorm:"column:dob_or_orgid;size:64"`
	Phone        string `gorm:"size:64"`
	Mobile       string `gorm:"size:64"`
	PasswordHash string `gorm:"size:255"`
	Status       string `gorm:"size:1;not null;default:'0'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userModel) TableName() string { return "users" }

type roleModel struct {
	UserID int64 `gorm:"primaryKey;autoIncrement:false"`
	RoleID int64 `gorm:"primaryKey;autoIncrement:false;index"`
}

func (roleModel) TableName() string { return "user_roles" }

type profileModel struct {
	ID                 int64 `gorm:"primaryKey;autoIncrement"`
	UserID             int64 `gorm:"not null;uniqueIndex"`
	ConsumerType       string
	CustomerType       string
	Username           string
	City               string
	Country            string
	Reference          string `gorm:"size:1"`
	CostPlace          string
	Fee                string
	TimeToCharge       string
	TimeToPay          string
	ChargeOB           string `gorm:"column:charge_ob"`
	CustomerID         string
	ChargeKm           string
	MaximumKm          string
	TranslatorType     string
	WorkedFor          string
	OrganizationNumber *string
	Gender             string
	TranslatorLevel    string
	Address2           string `gorm:"column:address_2"`
	PostCode           string
	Address            string
	Town               string
	AdditionalInfo     string `gorm:"type:text"`
}

func (profileModel) TableName() string { return "role_profiles" }

// edgeModel is the shape shared by every association table. The composite
// primary key makes each (user, target) pair unique.
type edgeModel struct {
	UserID   int64 `gorm:"primaryKey;autoIncrement:false"`
	TargetID int64 `gorm:"primaryKey;autoIncrement:false;index"`
}

type townModel struct {
	ID   int64  `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"size:255;not null"`
}

func (townModel) TableName() string { return "towns" }

var edgeTables = map[domain.EdgeKind]string{
	domain.EdgeBlacklist: "user_blacklist",
	domain.EdgeLanguage:  "user_languages",
	domain.EdgeTown:      "user_towns",
}

func edgeTable(kind domain.EdgeKind) (string, error) {
	t, ok := edgeTables[kind]
	if !ok {
		return "", domain.ErrUnknownEdgeKind{Kind: kind}
	}
	return t, nil
}

// Migrate creates or updates every table the store uses.
func Migrate(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&userModel{}, &roleModel{}, &profileModel{}, &townModel{}); err != nil {
			return err
		}
		for _, table := range edgeTables {
			if err := tx.Table(table).AutoMigrate(&edgeModel{}); err != nil {
				return err
			}
		}
		return nil
	})
}

func fromUser(u *domain.User) *userModel {
	return &userModel{
		ID:           u.ID,
		Role:         int64(u.Role),
		Name:         u.Name,
		CompanyID:    u.CompanyID,
		DepartmentID: u.DepartmentID,
		Email:        u.Email,
		DobOrOrgID:   u.DobOrOrgID,
		Phone:        u.Phone,
		Mobile:       u.Mobile,
		PasswordHash: u.PasswordHash,
		Status:       string(u.Status),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (m *userModel) toDomain() *domain.User {
	return &domain.User{
		ID:           m.ID,
		Role:         domain.Role(m.Role),
		Name:         m.Name,
		CompanyID:    m.CompanyID,
		DepartmentID: m.DepartmentID,
		Email:        m.Email,
		DobOrOrgID:   m.DobOrOrgID,
		Phone:        m.Phone,
		Mobile:       m.Mobile,
		PasswordHash: m.PasswordHash,
		Status:       domain.UserStatus(m.Status),
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

func fromProfile(p *domain.RoleProfile) *profileModel {
	return &profileModel{
		ID:                 p.ID,
		UserID:             p.UserID,
		ConsumerType:       p.ConsumerType,
		CustomerType:       p.CustomerType,
		Username:           p.Username,
		City:               p.City,
		Country:            p.Country,
		Reference:          p.Reference,
		CostPlace:          p.CostPlace,
		Fee:                p.Fee,
		TimeToCharge:       p.TimeToCharge,
		TimeToPay:          p.TimeToPay,
		ChargeOB:           p.ChargeOB,
		CustomerID:         p.CustomerID,
		ChargeKm:           p.ChargeKm,
		MaximumKm:          p.MaximumKm,
		TranslatorType:     p.TranslatorType,
		WorkedFor:          p.WorkedFor,
		OrganizationNumber: p.OrganizationNumber,
		Gender:             p.Gender,
		TranslatorLevel:    p.TranslatorLevel,
		Address2:           p.Address2,
		PostCode:           p.PostCode,
		Address:            p.Address,
		Town:               p.Town,
		AdditionalInfo:     p.AdditionalInfo,
	}
}

func (m *profileModel) toDomain() *domain.RoleProfile {
	return &domain.RoleProfile{
		ID:                 m.ID,
		UserID:             m.UserID,
		ConsumerType:       m.ConsumerType,
		CustomerType:       m.CustomerType,
		Username:           m.Username,
		City:               m.City,
		Country:            m.Country,
		Reference:          m.Reference,
		CostPlace:          m.CostPlace,
		Fee:                m.Fee,
		TimeToCharge:       m.TimeToCharge,
		TimeToPay:          m.TimeToPay,
		ChargeOB:           m.ChargeOB,
		CustomerID:         m.CustomerID,
		ChargeKm:           m.ChargeKm,
		MaximumKm:          m.MaximumKm,
		TranslatorType:     m.TranslatorType,
		WorkedFor:          m.WorkedFor,
		OrganizationNumber: m.OrganizationNumber,
		Gender:             m.Gender,
		TranslatorLevel:    m.TranslatorLevel,
		Address2:           m.Address2,
		PostCode:           m.PostCode,
		Address:            m.Address,
		Town:               m.Town,
		AdditionalInfo:     m.AdditionalInfo,
	}
}
