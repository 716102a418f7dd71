package service

import (
	"context"
	"fmt"

	"github.com/dtapi/user-service/internal/core/domain"
	"github.com/dtapi/user-service/internal/core/ports"
)

// ProfileWriter fills a user's RoleProfile from a submission. Every field of
// the active shape is overwritten; absent submission fields become "".
type ProfileWriter struct{}

// NewProfileWriter returns a ProfileWriter.
func NewProfileWriter() *ProfileWriter {
	return &ProfileWriter{}
}

// WriteCustomer stores the customer shape of the profile for userID.
func (w *ProfileWriter) WriteCustomer(ctx context.Context, profiles ports.ProfileRepository, userID int64, sub ports.UserSubmission) error {
	return w.write(ctx, profiles, userID, sub, fillCustomerProfile)
}

// WriteTranslator stores the translator shape of the profile for userID.
func (w *ProfileWriter) WriteTranslator(ctx context.Context, profiles ports.ProfileRepository, userID int64, sub ports.UserSubmission) error {
	return w.write(ctx, profiles, userID, sub, fillTranslatorProfile)
}

func (w *ProfileWriter) write(
	ctx context.Context,
	profiles ports.ProfileRepository,
	userID int64,
	sub ports.UserSubmission,
	fill func(*domain.RoleProfile, ports.UserSubmission),
) error {
	p, err := profiles.FindOrCreateProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("write profile: %w", err)
	}

	fill(p, sub)

	if err := profiles.SaveProfile(ctx, p); err != nil {
		return fmt.Errorf("write profile: save: %w", err)
	}
	return nil
}

func fillCustomerProfile(p *domain.RoleProfile, sub ports.UserSubmission) {
	p.ConsumerType = sub.ConsumerType
	p.CustomerType = sub.CustomerType
	p.Username = sub.Username
	p.PostCode = sub.PostCode
	p.Address = sub.Address
	p.City = sub.City
	p.Town = sub.Town
	p.Country = sub.Country
	p.Reference = referenceFlag(sub.Reference)
	p.AdditionalInfo = sub.AdditionalInfo
	p.CostPlace = sub.CostPlace
	p.Fee = sub.Fee
	p.TimeToCharge = sub.TimeToCharge
	p.TimeToPay = sub.TimeToPay
	p.ChargeOB = sub.ChargeOB
	p.CustomerID = sub.CustomerID
	p.ChargeKm = sub.ChargeKm
	p.MaximumKm = sub.MaximumKm
}

func fillTranslatorProfile(p *domain.RoleProfile, sub ports.UserSubmission) {
	p.TranslatorType = sub.TranslatorType
	p.WorkedFor = sub.WorkedFor
	p.OrganizationNumber = organizationNumber(sub.WorkedFor, sub.OrganizationNumber)
	p.Gender = sub.Gender
	p.TranslatorLevel = sub.TranslatorLevel
	p.AdditionalInfo = sub.AdditionalInfo
	p.PostCode = sub.PostCode
	p.Address = sub.Address
	p.Address2 = sub.Address2
	p.Town = sub.Town
}

// referenceFlag maps the yes/no/absent reference answer to "1" or "0".
func referenceFlag(v string) string {
	if v == "yes" {
		return "1"
	}
	return "0"
}

// organizationNumber is only kept for translators who worked for an organisation.
func organizationNumber(workedFor, number string) *string {
	if workedFor != "yes" {
		return nil
	}
	return &number
}
