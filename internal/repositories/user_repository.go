package repositories

import (
	"context"
	"fmt"

	"dairy-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	DB *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, name, email, COALESCE(phone, '') as phone, password_hash,
	role, is_active, COALESCE(totp_secret, '') as totp_secret, totp_enabled, created_at`

func (r *UserRepository) scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash,
		&u.Role, &u.IsActive, &u.TOTPSecret, &u.TOTPEnabled, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, req *models.CreateUserRequest, passwordHash string) (*models.User, error) {
	query := `
		INSERT INTO users (name, email, phone, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns

	user, err := r.scanUser(r.DB.QueryRow(ctx, query,
		req.Name, req.Email, req.Phone, passwordHash, req.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) Get(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.DB.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.DB.QueryRow(ctx, query, email))
}

func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY name`

	rows, err := r.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// SetTOTPSecret stores a newly generated TOTP secret (not yet enabled)
func (r *UserRepository) SetTOTPSecret(ctx context.Context, userID int, secret string) error {
	_, err := r.DB.Exec(ctx,
		"UPDATE users SET totp_secret = $1, totp_enabled = FALSE WHERE id = $2",
		secret, userID)
	return err
}

// EnableTOTP marks TOTP as verified and active for a user
func (r *UserRepository) EnableTOTP(ctx context.Context, userID int) error {
	_, err := r.DB.Exec(ctx,
		"UPDATE users SET totp_enabled = TRUE WHERE id = $1", userID)
	return err
}
