package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSucceeded PaymentStatus = "SUCCEEDED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// PaymentRecord is the durable trace of one settlement attempt.
type PaymentRecord struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	SessionID     uuid.UUID       `json:"session_id"`
	OptionID      string          `json:"option_id"`
	Method        PaymentMethod   `json:"method"`
	Provider      string          `json:"provider,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Description   string          `json:"description"`
	TransactionID *string         `json:"transaction_id,omitempty"`
	Status        PaymentStatus   `json:"status"`
	ErrorKind     *string         `json:"error_kind,omitempty"`
	ErrorMessage  *string         `json:"error_message,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// PaymentRequest is what the payment gateway needs to charge the payer.
type PaymentRequest struct {
	Reference   uuid.UUID
	Amount      decimal.Decimal
	Description string
	Currency    string
	Detail      MethodDetail
	AuthCode    string
}

// InitiateResult is the gateway answer to a charge. TransactionID is set
// only on success, Error only on failure.
type InitiateResult struct {
	Success       bool
	TransactionID string
	Error         string
}
