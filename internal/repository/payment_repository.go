package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/contratpro/internal/model"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `
	id,
	user_id,
	session_id,
	option_id,
	method,
	provider,
	amount,
	currency,
	description,
	transaction_id,
	status,
	error_kind,
	error_message,
	created_at,
	updated_at
`

func (r *PaymentRepository) CreatePayment(ctx context.Context, record *model.PaymentRecord) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO payment_records (
			id,
			user_id,
			session_id,
			option_id,
			method,
			provider,
			amount,
			currency,
			description,
			transaction_id,
			status,
			error_kind,
			error_message,
			created_at,
			updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID,
		record.UserID,
		record.SessionID,
		record.OptionID,
		record.Method,
		record.Provider,
		record.Amount,
		record.Currency,
		record.Description,
		record.TransactionID,
		record.Status,
		record.ErrorKind,
		record.ErrorMessage,
		record.CreatedAt,
		record.UpdatedAt,
	).Error
}

// UpdatePayment stores the outcome of a settlement attempt.
func (r *PaymentRepository) UpdatePayment(ctx context.Context, record *model.PaymentRecord) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE payment_records
		SET
			transaction_id = ?,
			status = ?,
			error_kind = ?,
			error_message = ?,
			updated_at = ?
		WHERE id = ?
	`, record.TransactionID, record.Status, record.ErrorKind, record.ErrorMessage, record.UpdatedAt, record.ID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PaymentRepository) ListPaymentsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.PaymentRecord, error) {
	var records []model.PaymentRecord
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+paymentColumns+`
		FROM payment_records
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, limit).Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ListUnlockedOptions returns the premium options the user has paid for.
func (r *PaymentRepository) ListUnlockedOptions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var options []string
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT option_id
		FROM payment_records
		WHERE user_id = ? AND status = ?
		ORDER BY option_id
	`, userID, model.PaymentStatusSucceeded).Scan(&options).Error
	if err != nil {
		return nil, err
	}
	return options, nil
}
