package identity

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brenbala/brenbala-api/internal/otp"
)

var (
	// ErrNotFound signals that no user matches the given key.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail signals a uniqueness violation on the email column.
	ErrDuplicateEmail = errors.New("email already registered")
)

// Repository persists users. It doubles as the otp.Store for the per-user
// code slot, which lives on the user row.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	List(ctx context.Context) ([]User, error)
	UpdateProfile(ctx context.Context, user User) error
	UpdatePassword(ctx context.Context, id string, hash []byte) error
	UpdateTokenVersion(ctx context.Context, id string, version int) error
	MarkVerified(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error

	otp.Store
}

const userColumns = `id, COALESCE(first_name, ''), COALESCE(last_name, ''), email,
	COALESCE(phone, ''), COALESCE(profile_picture, ''), gender, age, height, weight,
	weight_type, physical_activity_level, goals, password_hash, verified,
	email_verified_at, registration_type, COALESCE(user_type, ''), token_version,
	created_at, updated_at`

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed user repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return err
	}
	goals, err := marshalGoals(user.Goals)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users
		(id, first_name, last_name, email, phone, profile_picture, gender, age, height,
		 weight, weight_type, physical_activity_level, goals, password_hash, verified,
		 registration_type, user_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $18)`,
		userID, user.FirstName, user.LastName, user.Email, user.Phone, user.ProfilePicture,
		user.Gender, user.Age, user.Height, user.Weight, user.WeightType,
		user.PhysicalActivityLevel, goals, user.PasswordHash, user.Verified,
		user.RegistrationType, user.UserType, user.CreatedAt.UTC())
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

// FindByEmail fetches a user by its normalized email address.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, NormalizeEmail(email))
	return scanUser(row)
}

// FindByID fetches a user by id.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	return scanUser(row)
}

// List returns all users ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateProfile persists the mutable profile attributes of the user.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return ErrNotFound
	}
	goals, err := marshalGoals(user.Goals)
	if err != nil {
		return err
	}
	cmd, err := r.db.Exec(ctx, `UPDATE users SET
		first_name = $1, last_name = $2, email = $3, phone = $4, profile_picture = $5,
		gender = $6, age = $7, height = $8, weight = $9, weight_type = $10,
		physical_activity_level = $11, goals = $12, user_type = $13, updated_at = now()
		WHERE id = $14`,
		user.FirstName, user.LastName, user.Email, user.Phone, user.ProfilePicture,
		user.Gender, user.Age, user.Height, user.Weight, user.WeightType,
		user.PhysicalActivityLevel, goals, user.UserType, userID)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword overwrites the stored password hash.
func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, hash []byte) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`, hash, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTokenVersion bumps the token version, invalidating previously issued tokens.
func (r *PostgresRepository) UpdateTokenVersion(ctx context.Context, id string, version int) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE users SET token_version = $1, updated_at = now() WHERE id = $2`, version, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkVerified sets verified and refreshes the verification timestamp.
// The flag is monotonic: no write path ever clears it.
func (r *PostgresRepository) MarkVerified(ctx context.Context, id string, at time.Time) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx,
		`UPDATE users SET verified = TRUE, email_verified_at = $1, updated_at = now() WHERE id = $2`,
		at.UTC(), userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the user row.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveCode binds a one-time code record to the user, superseding any
// outstanding one.
func (r *PostgresRepository) SaveCode(ctx context.Context, id string, record otp.Record) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE users SET
		otp_hash = $1, otp_purpose = $2, otp_expires_at = $3, otp_attempts = 0, updated_at = now()
		WHERE id = $4`,
		record.CodeHash, string(record.Purpose), record.ExpiresAt.UTC(), userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeCode validates and clears the outstanding code inside a row-locked
// transaction, so a superseded or already-consumed code can never be accepted.
func (r *PostgresRepository) ConsumeCode(ctx context.Context, id string, purpose otp.Purpose, codeHash []byte, maxAttempts int) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var (
		storedHash []byte
		storedPurp *string
		expiresAt  *time.Time
		attempts   int
	)
	err = tx.QueryRow(ctx,
		`SELECT otp_hash, otp_purpose, otp_expires_at, otp_attempts FROM users WHERE id = $1 FOR UPDATE`,
		userID).Scan(&storedHash, &storedPurp, &expiresAt, &attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if len(storedHash) == 0 || storedPurp == nil || expiresAt == nil || now.After(*expiresAt) {
		if _, err := tx.Exec(ctx, clearOTPSlotSQL, userID); err != nil {
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return err
		}
		return otp.ErrCodeNotFound
	}

	if *storedPurp != string(purpose) || subtle.ConstantTimeCompare(storedHash, codeHash) != 1 {
		attempts++
		if attempts >= maxAttempts {
			if _, err := tx.Exec(ctx, clearOTPSlotSQL, userID); err != nil {
				return err
			}
			if err := tx.Commit(ctx); err != nil {
				return err
			}
			return otp.ErrCodeAttemptsExceeded
		}
		if _, err := tx.Exec(ctx, `UPDATE users SET otp_attempts = $1 WHERE id = $2`, attempts, userID); err != nil {
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return err
		}
		return otp.ErrCodeMismatch
	}

	if _, err := tx.Exec(ctx, clearOTPSlotSQL, userID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const clearOTPSlotSQL = `UPDATE users SET otp_hash = NULL, otp_purpose = NULL, otp_expires_at = NULL, otp_attempts = 0, updated_at = now() WHERE id = $1`

func scanUser(row pgx.Row) (User, error) {
	var (
		id              uuid.UUID
		goalsJSON       []byte
		emailVerifiedAt *time.Time
		createdAt       time.Time
		updatedAt       time.Time
		user            User
	)
	err := row.Scan(&id, &user.FirstName, &user.LastName, &user.Email, &user.Phone,
		&user.ProfilePicture, &user.Gender, &user.Age, &user.Height, &user.Weight,
		&user.WeightType, &user.PhysicalActivityLevel, &goalsJSON, &user.PasswordHash,
		&user.Verified, &emailVerifiedAt, &user.RegistrationType, &user.UserType,
		&user.TokenVersion, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}

	user.ID = id.String()
	user.EmailVerifiedAt = emailVerifiedAt
	user.CreatedAt = createdAt.UTC()
	user.UpdatedAt = updatedAt.UTC()
	if len(goalsJSON) > 0 {
		if err := json.Unmarshal(goalsJSON, &user.Goals); err != nil {
			return User{}, fmt.Errorf("decode goals: %w", err)
		}
	}
	return user, nil
}

func marshalGoals(goals []int64) ([]byte, error) {
	if goals == nil {
		return nil, nil
	}
	return json.Marshal(goals)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
