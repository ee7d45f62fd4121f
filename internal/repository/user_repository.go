package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/contratpro/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(ctx context.Context, user *model.User) error {
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO users (id, email, password_hash)
		VALUES (?, ?, ?)
		RETURNING created_at
	`, user.ID, user.Email, user.PasswordHash).Scan(&user.CreatedAt).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE email = ?
		LIMIT 1
	`, email).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == uuid.Nil {
		return nil, ErrNotFound
	}
	return &user, nil
}
