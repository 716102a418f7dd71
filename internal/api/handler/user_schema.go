package handler

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/dtapi/user-service/internal/core/domain"
	"github.com/dtapi/user-service/internal/core/ports"
)

// --- Request types ---

// userRequest mirrors the user edit form. Every field except role is
// optional; missing values are defaulted by the service.
type userRequest struct {
	Role         int64     `json:"role"          validate:"required,gt=0"`
	Name         string    `json:"name"          validate:"max=255"`
	CompanyID    formValue `json:"company_id"`
	DepartmentID formValue `json:"department_id"`
	Email        string    `json:"email"         validate:"omitempty,email"`
	DobOrOrgID   string    `json:"dob_or_orgid"`
	Phone        string    `json:"phone"`
	Mobile       string    `json:"mobile"`
	Password     string    `json:"password"`
	Status       formValue `json:"status"`

	ConsumerType string    `json:"consumer_type"`
	CustomerType string    `json:"customer_type"`
	Username     string    `json:"username"`
	City         string    `json:"city"`
	Country      string    `json:"country"`
	Reference    string    `json:"reference"`
	CostPlace    string    `json:"cost_place"`
	Fee          formValue `json:"fee"`
	TimeToCharge formValue `json:"time_to_charge"`
	TimeToPay    formValue `json:"time_to_pay"`
	ChargeOB     string    `json:"charge_ob"`
	CustomerID   formValue `json:"customer_id"`
	ChargeKm     formValue `json:"charge_km"`
	MaximumKm    formValue `json:"maximum_km"`

	TranslatorType     string    `json:"translator_type"`
	WorkedFor          string    `json:"worked_for"`
	OrganizationNumber formValue `json:"organization_number"`
	Gender             string    `json:"gender"`
	TranslatorLevel    string    `json:"translator_level"`
	Address2           string    `json:"address_2"`

	PostCode       formValue `json:"post_code"`
	Address        string    `json:"address"`
	Town           string    `json:"town"`
	AdditionalInfo string    `json:"additional_info"`

	TranslatorExclusions []int64 `json:"translator_ex"        validate:"omitempty,dive,gt=0"`
	Languages            []int64 `json:"user_language"        validate:"omitempty,dive,gt=0"`
	Towns                []int64 `json:"user_towns_projects"  validate:"omitempty,dive,gt=0"`
	NewTown              string  `json:"new_towns"            validate:"max=255"`
}

// formValue is a form field that clients send either as a string or as a
// number. null, objects and arrays decode to "" and are defaulted downstream.
type formValue string

func (v *formValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		*v = ""
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = formValue(s)
	case '{', '[', 'n':
		*v = ""
	default:
		*v = formValue(b)
	}
	return nil
}

type batchJobRequest struct {
	ID   *int64      `json:"id"   validate:"omitempty,gt=0"`
	User userRequest `json:"user" validate:"required"`
}

type batchRequest struct {
	Jobs []batchJobRequest `json:"jobs" validate:"required,min=1,max=500,dive"`
}

// --- Response types ---

type userLinks struct {
	Self string `json:"self"`
}

type userResponse struct {
	ID           int64     `json:"id"`
	Role         int64     `json:"role"`
	Name         string    `json:"name"`
	CompanyID    int64     `json:"company_id"`
	DepartmentID int64     `json:"department_id"`
	Email        string    `json:"email"`
	DobOrOrgID   string    `json:"dob_or_orgid"`
	Phone        string    `json:"phone"`
	Mobile       string    `json:"mobile"`
	Status       string    `json:"status"`
	CreatedAt    string    `json:"created_at"`
	UpdatedAt    string    `json:"updated_at"`
	Links        userLinks `json:"_links"`
}

// userDetailsResponse adds the association targets to userResponse, using
// the request field names so a fetched user can be sent back unchanged.
type userDetailsResponse struct {
	userResponse
	TranslatorExclusions []int64 `json:"translator_ex"`
	Languages            []int64 `json:"user_language"`
	Towns                []int64 `json:"user_towns_projects"`
}

type listUsersResponse struct {
	Users []userResponse `json:"users"`
	Total int            `json:"total"`
}

type batchResponse struct {
	Accepted int    `json:"accepted"`
	Error    string `json:"error,omitempty"`
}

// --- Mapping ---

func (r *userRequest) toSubmission() ports.UserSubmission {
	return ports.UserSubmission{
		Role:         domain.Role(r.Role),
		Name:         r.Name,
		CompanyID:    string(r.CompanyID),
		DepartmentID: string(r.DepartmentID),
		Email:        r.Email,
		DobOrOrgID:   r.DobOrOrgID,
		Phone:        r.Phone,
		Mobile:       r.Mobile,
		Password:     r.Password,
		Status:       string(r.Status),

		ConsumerType: r.ConsumerType,
		CustomerType: r.CustomerType,
		Username:     r.Username,
		City:         r.City,
		Country:      r.Country,
		Reference:    r.Reference,
		CostPlace:    r.CostPlace,
		Fee:          string(r.Fee),
		TimeToCharge: string(r.TimeToCharge),
		TimeToPay:    string(r.TimeToPay),
		ChargeOB:     r.ChargeOB,
		CustomerID:   string(r.CustomerID),
		ChargeKm:     string(r.ChargeKm),
		MaximumKm:    string(r.MaximumKm),

		TranslatorType:     r.TranslatorType,
		WorkedFor:          r.WorkedFor,
		OrganizationNumber: string(r.OrganizationNumber),
		Gender:             r.Gender,
		TranslatorLevel:    r.TranslatorLevel,
		Address2:           r.Address2,

		PostCode:       string(r.PostCode),
		Address:        r.Address,
		Town:           r.Town,
		AdditionalInfo: r.AdditionalInfo,

		TranslatorExclusions: r.TranslatorExclusions,
		Languages:            r.Languages,
		Towns:                r.Towns,
		NewTown:              r.NewTown,
	}
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:           u.ID,
		Role:         int64(u.Role),
		Name:         u.Name,
		CompanyID:    u.CompanyID,
		DepartmentID: u.DepartmentID,
		Email:        u.Email,
		DobOrOrgID:   u.DobOrOrgID,
		Phone:        u.Phone,
		Mobile:       u.Mobile,
		Status:       string(u.Status),
		CreatedAt:    formatTime(u.CreatedAt),
		UpdatedAt:    formatTime(u.UpdatedAt),
		Links:        userLinks{Self: userPath(u.ID)},
	}
}

func toUserDetailsResponse(d *domain.UserDetails) userDetailsResponse {
	return userDetailsResponse{
		userResponse:         toUserResponse(&d.User),
		TranslatorExclusions: nonNil(d.Blacklist),
		Languages:            nonNil(d.Languages),
		Towns:                nonNil(d.Towns),
	}
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
