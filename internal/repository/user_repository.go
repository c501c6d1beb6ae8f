package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alimikegami/e-commerce/storefront-service/internal/domain"
	"github.com/alimikegami/e-commerce/storefront-service/pkg/errs"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const userColumns = "id, email, hashed_password, first_name, last_name, role, created_at, updated_at"

type UserRepositoryImpl struct {
	db *sqlx.DB
}

func CreateNewUserRepository(db *sqlx.DB) UserRepository {
	return &UserRepositoryImpl{db: db}
}

// GetUserByEmail returns a zero User when no row matches.
func (r *UserRepositoryImpl) GetUserByEmail(ctx context.Context, email string) (res domain.User, err error) {
	err = r.db.GetContext(ctx, &res, "SELECT "+userColumns+" FROM users WHERE email = $1", email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, nil
		}
		log.Ctx(ctx).Error().Err(err).Str("component", "GetUserByEmail").Msg("")
		return res, fmt.Errorf("get user by email: %w", err)
	}

	return
}

// GetUserByID returns a zero User when no row matches.
func (r *UserRepositoryImpl) GetUserByID(ctx context.Context, id string) (res domain.User, err error) {
	err = r.db.GetContext(ctx, &res, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, nil
		}
		log.Ctx(ctx).Error().Err(err).Str("component", "GetUserByID").Msg("")
		return res, fmt.Errorf("get user by id: %w", err)
	}

	return
}

func (r *UserRepositoryImpl) AddUser(ctx context.Context, data domain.User) (res domain.User, err error) {
	timestamp := time.Now().UnixMilli()
	data.CreatedAt = timestamp
	data.UpdatedAt = timestamp

	_, err = r.db.NamedExecContext(ctx, "INSERT INTO users("+userColumns+") VALUES (:id, :email, :hashed_password, :first_name, :last_name, :role, :created_at, :updated_at)", data)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "AddUser").Msg("")
		if pqErrorCode(err) == pqUniqueViolation {
			return res, errs.ErrEmailAlreadyUsed
		}
		return res, fmt.Errorf("add user: %w", err)
	}

	return data, nil
}

func (r *UserRepositoryImpl) GetUsersByRole(ctx context.Context, role domain.Role) (data []domain.User, err error) {
	data = []domain.User{}
	err = r.db.SelectContext(ctx, &data, "SELECT "+userColumns+" FROM users WHERE role = $1 ORDER BY created_at DESC", role)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetUsersByRole").Msg("")
		return nil, fmt.Errorf("get users by role: %w", err)
	}

	return data, nil
}

func (r *UserRepositoryImpl) CountUsersByRole(ctx context.Context, role domain.Role) (count int64, err error) {
	err = r.db.GetContext(ctx, &count, "SELECT COUNT(id) FROM users WHERE role = $1", role)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "CountUsersByRole").Msg("")
		return 0, fmt.Errorf("count users by role: %w", err)
	}

	return
}
