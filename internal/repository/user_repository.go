package repository

import (
	"database/sql"

	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/database"
	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/models"
	"golang.org/x/crypto/bcrypt"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		db: database.DB,
	}
}

func NewUserRepositoryWithDB(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(user *models.User) error {
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	query := `
		INSERT INTO users (id, email, password, name, role, kyc_verified, account_balance, total_investment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(query, user.ID, user.Email, user.Password, user.Name,
		user.Role, user.KycVerified, user.AccountBalance, user.TotalInvestment)
	return err
}

func (r *UserRepository) GetAllUsers() ([]models.User, error) {
	users := []models.User{}
	query := `
		SELECT id, email, name, role, kyc_verified, COALESCE(account_balance, total_investment), total_investment, created_at
		FROM users`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.Name,
			&user.Role,
			&user.KycVerified,
			&user.AccountBalance,
			&user.TotalInvestment,
			&user.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func (r *UserRepository) GetUserById(id string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, email, name, role, kyc_verified, COALESCE(account_balance, total_investment), total_investment, created_at
		FROM users WHERE id = $1`

	err := r.db.QueryRow(query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Role,
		&user.KycVerified,
		&user.AccountBalance,
		&user.TotalInvestment,
		&user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, models.ErrUserNotFound
	}

	return user, err
}

func (r *UserRepository) GetUserByEmail(email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, email, password, name, role, kyc_verified, COALESCE(account_balance, total_investment), total_investment, created_at
		FROM users WHERE email = $1`

	err := r.db.QueryRow(query, email).Scan(
		&user.ID,
		&user.Email,
		&user.Password,
		&user.Name,
		&user.Role,
		&user.KycVerified,
		&user.AccountBalance,
		&user.TotalInvestment,
		&user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, models.ErrUserNotFound
	}

	return user, err
}

func (r *UserRepository) UpdateUser(user *models.User) error {
	query := `
		UPDATE users
		SET email = $1, name = $2, kyc_verified = $3
		WHERE id = $4`

	_, err := r.db.Exec(query, user.Email, user.Name, user.KycVerified, user.ID)
	return err
}

func (r *UserRepository) DeleteUser(id string) error {
	query := `DELETE FROM users WHERE id = $1`

	_, err := r.db.Exec(query, id)
	return err
}

func (r *UserRepository) UpdatePassword(email, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	query := `UPDATE users SET password = $1 WHERE email = $2`

	_, err = r.db.Exec(query, string(hashedPassword), email)
	return err
}
