package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type CheckoutStep string

const (
	StepSelectOption      CheckoutStep = "SELECT_OPTION"
	StepAuthenticate      CheckoutStep = "AUTHENTICATE"
	StepSelectMethod      CheckoutStep = "SELECT_METHOD"
	StepAwaitExternalCode CheckoutStep = "AWAIT_EXTERNAL_CODE"
	StepSettling          CheckoutStep = "SETTLING"
	StepSucceeded         CheckoutStep = "SUCCEEDED"
	StepFailed            CheckoutStep = "FAILED"
)

func (s CheckoutStep) IsTerminal() bool {
	return s == StepSucceeded || s == StepFailed
}

func (s CheckoutStep) String() string {
	return string(s)
}

type PaymentMethod string

const (
	MethodMobileMoney PaymentMethod = "mobile-money"
	MethodCard        PaymentMethod = "card"
	MethodWallet      PaymentMethod = "wallet"
)

func (m PaymentMethod) Title() string {
	switch m {
	case MethodMobileMoney:
		return "Mobile Money"
	case MethodCard:
		return "Carte Bancaire"
	case MethodWallet:
		return "Portefeuille Électronique"
	default:
		return "Paiement"
	}
}

type MobileProvider string

const (
	ProviderOrange MobileProvider = "orange"
	ProviderFree   MobileProvider = "free"
	ProviderMTN    MobileProvider = "mtn"
	ProviderWave   MobileProvider = "wave"
)

var dialCodes = map[MobileProvider]string{
	ProviderOrange: "#144*391#",
	ProviderFree:   "#555*4*3#",
	ProviderMTN:    "#126#",
}

func (p MobileProvider) Valid() bool {
	_, ok := dialCodes[p]
	return ok || p == ProviderWave
}

// DialCode is the USSD code the payer dials to obtain a one-time
// authorization code. Empty for providers that do not use one.
func (p MobileProvider) DialCode() string {
	return dialCodes[p]
}

func (p MobileProvider) RequiresCode() bool {
	return p.DialCode() != ""
}

type WalletProvider string

const (
	WalletPayPal WalletProvider = "paypal"
	WalletStripe WalletProvider = "stripe"
	WalletSkrill WalletProvider = "skrill"
)

func (w WalletProvider) Valid() bool {
	switch w {
	case WalletPayPal, WalletStripe, WalletSkrill:
		return true
	}
	return false
}

var ErrInvalidDetail = errors.New("invalid payment detail")

// MethodDetail is the method-specific data needed to charge the payer.
// Exactly one implementation exists per PaymentMethod.
type MethodDetail interface {
	Method() PaymentMethod
	Validate() error
}

type MobileMoneyDetail struct {
	Provider MobileProvider
	Phone    string
}

func (MobileMoneyDetail) Method() PaymentMethod { return MethodMobileMoney }

func (d MobileMoneyDetail) Validate() error {
	if !d.Provider.Valid() {
		return fmt.Errorf("%w: unknown mobile money provider %q", ErrInvalidDetail, d.Provider)
	}
	if strings.TrimSpace(d.Phone) == "" {
		return fmt.Errorf("%w: phone number is required", ErrInvalidDetail)
	}
	return nil
}

// DeepLink returns the external app link for providers that settle in
// their own app.
func (d MobileMoneyDetail) DeepLink(amount string) string {
	if d.Provider != ProviderWave {
		return ""
	}
	return fmt.Sprintf("wave://payment?phone=%s&amount=%s", strings.TrimSpace(d.Phone), amount)
}

var (
	cardExpiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
	cvvPattern        = regexp.MustCompile(`^[0-9]{3}$`)
)

type CardDetail struct {
	Number string
	Expiry string
	CVV    string
}

func (CardDetail) Method() PaymentMethod { return MethodCard }

// Normalized returns the card number without spaces.
func (d CardDetail) Normalized() string {
	return strings.ReplaceAll(d.Number, " ", "")
}

func (d CardDetail) Validate() error {
	number := d.Normalized()
	if len(number) < 12 || len(number) > 19 {
		return fmt.Errorf("%w: card number must have 12 to 19 digits", ErrInvalidDetail)
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: card number must be numeric", ErrInvalidDetail)
		}
	}
	if !cardExpiryPattern.MatchString(d.Expiry) {
		return fmt.Errorf("%w: expiry must be MM/YY", ErrInvalidDetail)
	}
	if !cvvPattern.MatchString(d.CVV) {
		return fmt.Errorf("%w: cvv must have 3 digits", ErrInvalidDetail)
	}
	return nil
}

// Last4 is what may be shown or stored about the card.
func (d CardDetail) Last4() string {
	number := d.Normalized()
	if len(number) < 4 {
		return number
	}
	return number[len(number)-4:]
}

type WalletDetail struct {
	Provider WalletProvider
	Email    string
}

func (WalletDetail) Method() PaymentMethod { return MethodWallet }

func (d WalletDetail) Validate() error {
	if !d.Provider.Valid() {
		return fmt.Errorf("%w: unknown wallet provider %q", ErrInvalidDetail, d.Provider)
	}
	if !strings.Contains(d.Email, "@") {
		return fmt.Errorf("%w: wallet email is required", ErrInvalidDetail)
	}
	return nil
}

// CheckoutSession tracks one attempt to unlock a premium option.
type CheckoutSession struct {
	ID            uuid.UUID
	UserID        *uuid.UUID
	OptionID      string
	Step          CheckoutStep
	Detail        MethodDetail
	DialCode      string
	DeepLink      string
	AuthCode      string
	TransactionID string
	ErrorKind     string
	LastError     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Method returns the selected payment method, empty when none is chosen.
func (s *CheckoutSession) Method() PaymentMethod {
	if s.Detail == nil {
		return ""
	}
	return s.Detail.Method()
}

// Provider returns the sub-provider of the selected method, if any.
func (s *CheckoutSession) Provider() string {
	switch d := s.Detail.(type) {
	case MobileMoneyDetail:
		return string(d.Provider)
	case WalletDetail:
		return string(d.Provider)
	}
	return ""
}
