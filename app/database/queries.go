package database

import (
	"database/sql"
	"errors"

	"classfund/app/models"

	"golang.org/x/crypto/bcrypt"
)

// ErrNotFound is returned when a row does not exist or is outside the
// caller's class scope. Handlers turn it into a flash + redirect.
var ErrNotFound = errors.New("not found")

// ErrAlreadyConfirmed is returned when a confirmed transaction already
// exists for the (student, payment request) pair.
var ErrAlreadyConfirmed = errors.New("payment already confirmed for this student and request")

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

const userColumns = `id, email, password, first_name, last_name, role, hide_fund_balance, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.Password, &user.FirstName, &user.LastName,
		&user.Role, &user.HideFundBalance, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func GetUserByEmail(db *sql.DB, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND is_active = true AND deleted_at IS NULL`
	return scanUser(db.QueryRow(query, email))
}

func GetUserByID(db *sql.DB, userID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND is_active = true AND deleted_at IS NULL`
	return scanUser(db.QueryRow(query, userID))
}

// CreateUser inserts a user with an already-hashed password and fills in
// the generated id.
func CreateUser(db *sql.DB, user *models.User) error {
	query := `INSERT INTO users (email, password, first_name, last_name, role)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id, created_at, updated_at`
	return db.QueryRow(query,
		user.Email, user.Password, user.FirstName, user.LastName, string(user.Role),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func UpdateUserPassword(db *sql.DB, userID, hashedPassword string) error {
	query := `UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2`
	res, err := db.Exec(query, hashedPassword, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func SetHideFundBalance(db *sql.DB, userID string, hide bool) error {
	query := `UPDATE users SET hide_fund_balance = $1, updated_at = NOW() WHERE id = $2`
	_, err := db.Exec(query, hide, userID)
	return err
}
