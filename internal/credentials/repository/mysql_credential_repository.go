package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	credentialsDomain "github.com/allisson/tokenvault/internal/credentials/domain"
	"github.com/allisson/tokenvault/internal/database"
	apperrors "github.com/allisson/tokenvault/internal/errors"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// MySQLCredentialRepository implements Credential persistence for MySQL databases.
// IDs are stored as BINARY(16).
type MySQLCredentialRepository struct {
	db *sql.DB
}

// NewMySQLCredentialRepository creates a new MySQL Credential repository instance.
func NewMySQLCredentialRepository(db *sql.DB) *MySQLCredentialRepository {
	return &MySQLCredentialRepository{db: db}
}

// Create inserts a new credential. Returns ErrConflict when the email is already stored.
func (m *MySQLCredentialRepository) Create(ctx context.Context, credential *credentialsDomain.Credential) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO credentials (id, email, encrypted_token, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?)`

	id, err := credential.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal credential id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		credential.Email,
		credential.EncryptedToken,
		credential.CreatedAt,
		credential.UpdatedAt,
	)
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
			return apperrors.Wrap(apperrors.ErrConflict, "credential already exists")
		}
		return apperrors.Wrap(err, "failed to create credential")
	}
	return nil
}

// Update replaces the envelope and updated_at of an existing credential.
func (m *MySQLCredentialRepository) Update(ctx context.Context, credential *credentialsDomain.Credential) error {
	querier := database.GetTx(ctx, m.db)

	id, err := credential.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal credential id")
	}

	query := `UPDATE credentials
			  SET encrypted_token = ?, updated_at = ?
			  WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, credential.EncryptedToken, credential.UpdatedAt, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update credential")
	}
	return requireAffected(result, "failed to update credential")
}

// GetByEmail retrieves the credential for email including its envelope.
func (m *MySQLCredentialRepository) GetByEmail(
	ctx context.Context,
	email string,
) (*credentialsDomain.Credential, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, email, encrypted_token, created_at, updated_at
			  FROM credentials
			  WHERE email = ?`

	var credential credentialsDomain.Credential
	var id []byte

	err := querier.QueryRowContext(ctx, query, email).Scan(
		&id,
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

	if err := credential.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal credential id")
	}

	return &credential, nil
}

// Delete removes the credential for email. Returns ErrNotFound when nothing was deleted.
func (m *MySQLCredentialRepository) Delete(ctx context.Context, email string) error {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM credentials WHERE email = ?`, email)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete credential")
	}
	return requireAffected(result, "failed to delete credential")
}

// List returns credential metadata ordered by email. EncryptedToken is left empty.
func (m *MySQLCredentialRepository) List(
	ctx context.Context,
	offset, limit int,
) ([]*credentialsDomain.Credential, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, email, created_at, updated_at
			  FROM credentials
			  ORDER BY email ASC
			  LIMIT ? OFFSET ?`

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
		var id []byte

		if err := rows.Scan(&id, &credential.Email, &credential.CreatedAt, &credential.UpdatedAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan credential row")
		}
		if err := credential.ID.UnmarshalBinary(id); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal credential id")
		}
		credentials = append(credentials, &credential)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "error iterating credential rows")
	}

	return credentials, nil
}
