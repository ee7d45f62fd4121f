package http

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/nurpe/contratpro/internal/model"
	"github.com/nurpe/contratpro/internal/service"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 .-]{6,18}[0-9]$`)

// RegisterValidators adds the custom binding rules used by the request
// structs below.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type partyRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone" binding:"omitempty,phone"`
}

func (r partyRequest) toModel() model.Party {
	return model.Party{
		Name:    strings.TrimSpace(r.Name),
		Address: strings.TrimSpace(r.Address),
		Phone:   strings.TrimSpace(r.Phone),
	}
}

type planRequest struct {
	InstallmentCount    int            `json:"installment_count" binding:"omitempty,min=1,max=24"`
	FirstPaymentPercent int            `json:"first_payment_percent" binding:"omitempty,min=1,max=100"`
	Offsets             []model.Offset `json:"offsets" binding:"omitempty,dive"`
}

// toModel defaults an empty plan to a single payment at signing.
func (r planRequest) toModel() model.PaymentPlan {
	plan := model.PaymentPlan{
		InstallmentCount:    r.InstallmentCount,
		FirstPaymentPercent: r.FirstPaymentPercent,
		Offsets:             r.Offsets,
	}
	if plan.InstallmentCount == 0 {
		plan.InstallmentCount = 1
	}
	if plan.SinglePayment() {
		plan.FirstPaymentPercent = 100
		plan.Offsets = nil
	}
	return plan
}

type draftRequest struct {
	ContractType       string       `json:"contract_type" binding:"required"`
	ContractSubtype    string       `json:"contract_subtype"`
	Client             partyRequest `json:"client"`
	Provider           partyRequest `json:"provider"`
	ProjectDescription string       `json:"project_description"`
	ContractDetails    string       `json:"contract_details"`
	Penalties          string       `json:"penalties"`
	ContractAmount     string       `json:"contract_amount"`
	Currency           string       `json:"currency"`
	StartDate          string       `json:"start_date" binding:"required"`
	EndDate            string       `json:"end_date"`
	PaymentPlan        planRequest  `json:"payment_plan"`
	ThemeID            string       `json:"theme_id"`
}

func (r draftRequest) toModel() (model.ContractDraft, error) {
	start, err := parseDate(r.StartDate)
	if err != nil {
		return model.ContractDraft{}, err
	}
	draft := model.ContractDraft{
		Type:               model.ContractType(strings.TrimSpace(r.ContractType)),
		Subtype:            strings.TrimSpace(r.ContractSubtype),
		Client:             r.Client.toModel(),
		Provider:           r.Provider.toModel(),
		ProjectDescription: r.ProjectDescription,
		Details:            r.ContractDetails,
		Penalties:          r.Penalties,
		Amount:             strings.TrimSpace(r.ContractAmount),
		Currency:           strings.TrimSpace(r.Currency),
		StartDate:          start,
		Plan:               r.PaymentPlan.toModel(),
	}
	if strings.TrimSpace(r.EndDate) != "" {
		end, err := parseDate(r.EndDate)
		if err != nil {
			return model.ContractDraft{}, err
		}
		draft.EndDate = &end
	}
	return draft, nil
}

type scheduleRequest struct {
	Amount      string      `json:"amount"`
	PaymentPlan planRequest `json:"payment_plan"`
	StartDate   string      `json:"start_date"`
}

func (r scheduleRequest) toInput() (service.ScheduleInput, error) {
	input := service.ScheduleInput{
		Amount: r.Amount,
		Plan:   r.PaymentPlan.toModel(),
	}
	if strings.TrimSpace(r.StartDate) != "" {
		start, err := parseDate(r.StartDate)
		if err != nil {
			return service.ScheduleInput{}, err
		}
		input.StartDate = &start
	}
	return input, nil
}

type selectOptionRequest struct {
	OptionID string `json:"option_id" binding:"required"`
}

type selectMethodRequest struct {
	Method     string `json:"method" binding:"required,oneof=mobile-money card wallet"`
	Provider   string `json:"provider"`
	Phone      string `json:"phone" binding:"omitempty,phone"`
	CardNumber string `json:"card_number"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
	Email      string `json:"email" binding:"omitempty,email"`
}

func (r selectMethodRequest) detail() model.MethodDetail {
	switch model.PaymentMethod(r.Method) {
	case model.MethodMobileMoney:
		return model.MobileMoneyDetail{
			Provider: model.MobileProvider(strings.ToLower(strings.TrimSpace(r.Provider))),
			Phone:    strings.TrimSpace(r.Phone),
		}
	case model.MethodCard:
		return model.CardDetail{
			Number: strings.TrimSpace(r.CardNumber),
			Expiry: strings.TrimSpace(r.Expiry),
			CVV:    strings.TrimSpace(r.CVV),
		}
	case model.MethodWallet:
		return model.WalletDetail{
			Provider: model.WalletProvider(strings.ToLower(strings.TrimSpace(r.Provider))),
			Email:    strings.TrimSpace(r.Email),
		}
	}
	return nil
}

type submitCodeRequest struct {
	Code string `json:"code" binding:"required"`
}
