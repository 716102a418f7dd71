package domain

// RoleProfile is the per-user metadata record. A customer fills the customer
// fields, a translator the translator fields; shared columns (address, town,
// post code, additional info) are written by both.
type RoleProfile struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"user_id"`

	// Customer fields.
	ConsumerType string `json:"consumer_type"`
	CustomerType string `json:"customer_type"`
	Username     string `json:"username"`
	City         string `json:"city"`
	Country      string `json:"country"`
	Reference    string `json:"reference"`
	CostPlace    string `json:"cost_place"`
	Fee          string `json:"fee"`
	TimeToCharge string `json:"time_to_charge"`
	TimeToPay    string `json:"time_to_pay"`
	ChargeOB     string `json:"charge_ob"`
	CustomerID   string `json:"customer_id"`
	ChargeKm     string `json:"charge_km"`
	MaximumKm    string `json:"maximum_km"`

	// Translator fields.
	TranslatorType     string  `json:"translator_type"`
	WorkedFor          string  `json:"worked_for"`
	OrganizationNumber *string `json:"organization_number"`
	Gender             string  `json:"gender"`
	TranslatorLevel    string  `json:"translator_level"`
	Address2           string  `json:"address_2"`

	// Shared fields.
	PostCode       string `json:"post_code"`
	Address        string `json:"address"`
	Town           string `json:"town"`
	AdditionalInfo string `json:"additional_info"`
}
