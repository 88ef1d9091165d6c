// Package repository persists credentials in PostgreSQL and MySQL. Only envelope text is
// ever written; plaintext tokens never reach the database.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	credentialsDomain "github.com/allisson/tokenvault/internal/credentials/domain"
	"github.com/allisson/tokenvault/internal/database"
	apperrors "github.com/allisson/tokenvault/internal/errors"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// PostgreSQLCredentialRepository implements Credential persistence for PostgreSQL databases.
type PostgreSQLCredentialRepository struct {
	db *sql.DB
}

// NewPostgreSQLCredentialRepository creates a new PostgreSQL Credential repository instance.
func NewPostgreSQLCredentialRepository(db *sql.DB) *PostgreSQLCredentialRepository {
	return &PostgreSQLCredentialRepository{db: db}
}

// Create inserts a new credential. Returns ErrConflict when the email is already stored.
func (p *PostgreSQLCredentialRepository) Create(ctx context.Context, credential *credentialsDomain.Credential) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO credentials (id, email, encrypted_token, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5)`

	_, err := querier.ExecContext(
		ctx,
		query,
		credential.ID,
		credential.Email,
		credential.EncryptedToken,
		credential.CreatedAt,
		credential.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			return apperrors.Wrap(apperrors.ErrConflict, "credential already exists")
		}
		return apperrors.Wrap(err, "failed to create credential")
	}
	return nil
}

// Update replaces the envelope and updated_at of an existing credential.
func (p *PostgreSQLCredentialRepository) Update(ctx context.Context, credential *credentialsDomain.Credential) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE credentials
			  SET encrypted_token = $1, updated_at = $2
			  WHERE id = $3`

	result, err := querier.ExecContext(ctx, query, credential.EncryptedToken, credential.UpdatedAt, credential.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update credential")
	}
	return requireAffected(result, "failed to update credential")
}

// GetByEmail retrieves the credential for email including its envelope.
func (p *PostgreSQLCredentialRepository) GetByEmail(
	ctx context.Context,
	email string,
) (*credentialsDomain.Credential, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, email, encrypted_token, created_at, updated_at
			  FROM credentials
			  WHERE email = $1`

	var credential credentialsDomain.Credential
	err := querier.QueryRowContext(ctx, query, email).Scan(
		&credential.ID,
		&credential.Email,
		&credential.EncryptedToken,
		&credential.CreatedAt,
		&credential.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get credential by email")
	}

	return &credential, nil
}

// Delete removes the credential for email. Returns ErrNotFound when nothing was deleted.
func (p *PostgreSQLCredentialRepository) Delete(ctx context.Context, email string) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM credentials WHERE email = $1`, email)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete credential")
	}
	return requireAffected(result, "failed to delete credential")
}

// List returns credential metadata ordered by email. EncryptedToken is left empty.
func (p *PostgreSQLCredentialRepository) List(
	ctx context.Context,
	offset, limit int,
) ([]*credentialsDomain.Credential, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, email, created_at, updated_at
			  FROM credentials
			  ORDER BY email ASC
			  LIMIT $1 OFFSET $2`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list credentials")
	}
	defer func() {
		_ = rows.Close()
	}()

	credentials := make([]*credentialsDomain.Credential, 0)
	for rows.Next() {
		var credential credentialsDomain.Credential
		if err := rows.Scan(
			&credential.ID,
			&credential.Email,
			&credential.CreatedAt,
			&credential.UpdatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan credential row")
		}
		credentials = append(credentials, &credential)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "error iterating credential rows")
	}

	return credentials, nil
}

// requireAffected maps a zero row count to ErrNotFound.
func requireAffected(result sql.Result, msg string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, msg)
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
