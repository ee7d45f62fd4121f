package model

import (
	"errors"
	"fmt"
	"time"
)

type ContractType string

const (
	ContractTypeService     ContractType = "serviceAgreement"
	ContractTypeWork        ContractType = "workContract"
	ContractTypeRental      ContractType = "rentalContract"
	ContractTypeSale        ContractType = "saleContract"
	ContractTypeNDA         ContractType = "nda"
	ContractTypePartnership ContractType = "partnershipContract"
)

var contractTitles = map[ContractType]string{
	ContractTypeService:     "Contrat de prestation de service",
	ContractTypeWork:        "Contrat de travail",
	ContractTypeRental:      "Contrat de bail",
	ContractTypeSale:        "Contrat de vente",
	ContractTypeNDA:         "Accord de confidentialité",
	ContractTypePartnership: "Contrat de partenariat",
}

func (t ContractType) Valid() bool {
	_, ok := contractTitles[t]
	return ok
}

// Title returns the document heading for the contract type, or the raw
// type when it is not one of the known ones.
func (t ContractType) Title() string {
	if title, ok := contractTitles[t]; ok {
		return title
	}
	return string(t)
}

type DateUnit string

const (
	DateUnitDays   DateUnit = "days"
	DateUnitWeeks  DateUnit = "weeks"
	DateUnitMonths DateUnit = "months"
	DateUnitYears  DateUnit = "years"
)

func (u DateUnit) Valid() bool {
	switch u {
	case DateUnitDays, DateUnitWeeks, DateUnitMonths, DateUnitYears:
		return true
	}
	return false
}

// Label returns the unit name agreed with magnitude ("1 day", "3 days").
func (u DateUnit) Label(magnitude int) string {
	singular := string(u)
	if len(singular) > 0 && singular[len(singular)-1] == 's' {
		singular = singular[:len(singular)-1]
	}
	if magnitude == 1 {
		return singular
	}
	return singular + "s"
}

// Offset is the delay between signature and one installment after the first.
type Offset struct {
	Magnitude int      `json:"magnitude"`
	Unit      DateUnit `json:"unit"`
}

func (o Offset) String() string {
	return fmt.Sprintf("%d %s", o.Magnitude, o.Unit.Label(o.Magnitude))
}

var ErrInvalidPlan = errors.New("invalid payment plan")

type PaymentPlan struct {
	InstallmentCount    int      `json:"installment_count"`
	FirstPaymentPercent int      `json:"first_payment_percent"`
	Offsets             []Offset `json:"offsets,omitempty"`
}

// SinglePayment reports whether the plan is one full payment at signing.
func (p PaymentPlan) SinglePayment() bool {
	return p.InstallmentCount <= 1
}

func (p PaymentPlan) Validate() error {
	if p.InstallmentCount < 1 {
		return fmt.Errorf("%w: installment count must be at least 1", ErrInvalidPlan)
	}
	if p.SinglePayment() {
		return nil
	}
	if p.FirstPaymentPercent < 1 || p.FirstPaymentPercent > 99 {
		return fmt.Errorf("%w: first payment percent must be within [1,99]", ErrInvalidPlan)
	}
	if len(p.Offsets) != p.InstallmentCount-1 {
		return fmt.Errorf("%w: expected %d offsets, got %d", ErrInvalidPlan, p.InstallmentCount-1, len(p.Offsets))
	}
	for i, offset := range p.Offsets {
		if offset.Magnitude < 1 {
			return fmt.Errorf("%w: offset %d must be positive", ErrInvalidPlan, i+1)
		}
		if !offset.Unit.Valid() {
			return fmt.Errorf("%w: offset %d has unknown unit %q", ErrInvalidPlan, i+1, offset.Unit)
		}
	}
	return nil
}

type Party struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone,omitempty"`
}

// ContractDraft is the user input behind one contract preview. Amount is
// kept as typed so that a half-typed value still renders.
type ContractDraft struct {
	Type               ContractType `json:"contract_type"`
	Subtype            string       `json:"contract_subtype,omitempty"`
	Client             Party        `json:"client"`
	Provider           Party        `json:"provider"`
	ProjectDescription string       `json:"project_description"`
	Details            string       `json:"contract_details,omitempty"`
	Penalties          string       `json:"penalties,omitempty"`
	Amount             string       `json:"contract_amount"`
	Currency           string       `json:"currency"`
	StartDate          time.Time    `json:"start_date"`
	EndDate            *time.Time   `json:"end_date,omitempty"`
	Plan               PaymentPlan  `json:"payment_plan"`
}

// OpenEnded reports whether the contract has no end date.
func (d ContractDraft) OpenEnded() bool {
	return d.EndDate == nil || d.EndDate.IsZero()
}
