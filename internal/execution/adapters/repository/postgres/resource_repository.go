package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/linkflow-ai/linkflow-ai/internal/credential"
	"github.com/linkflow-ai/linkflow-ai/internal/execution/adapters/filestore"
	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/model"
	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/repository"
	"github.com/linkflow-ai/linkflow-ai/internal/platform/database"
)

// ResourceRepository implements repository.ResourceRepository, the
// reference resolver's read surface onto variables, credentials, database
// connections, and files. Every lookup is scoped to the caller's
// workspace_id; a record that belongs to a different workspace is
// indistinguishable from one that does not exist (P5 cross-workspace
// isolation — the resolver turns either case into INVALID_INPUT).
type ResourceRepository struct {
	db        database.Executor
	encryptor *credential.Encryptor
	files     filestore.FileStore
}

// NewResourceRepository builds a resource repository backed by the given
// database handle, credential encryptor, and file store. db is used only
// by ReadFileContent, whose interface contract carries no transaction
// parameter of its own (file reads are out-of-band I/O, not SQL).
func NewResourceRepository(db database.Executor, encryptor *credential.Encryptor, files filestore.FileStore) repository.ResourceRepository {
	return &ResourceRepository{db: db, encryptor: encryptor, files: files}
}

func (r *ResourceRepository) GetVariable(ctx context.Context, ex database.Executor, workspaceID model.WorkspaceID, id model.VariableID) (*repository.ResolvedVariable, error) {
	var value string
	var sensitive bool
	err := ex.QueryRowContext(ctx,
		`SELECT value, sensitive FROM variables WHERE id = $1 AND organization_id = $2`,
		id.String(), workspaceID.String(),
	).Scan(&value, &sensitive)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query variable: %w", err)
	}

	if sensitive {
		decrypted, err := r.encryptor.DecryptString(value)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt variable: %w", err)
		}
		value = decrypted
	}

	return &repository.ResolvedVariable{Value: value, IsSecret: sensitive}, nil
}

func (r *ResourceRepository) GetCredential(ctx context.Context, ex database.Executor, workspaceID model.WorkspaceID, id model.CredentialID) (map[string]any, error) {
	var data []byte
	var isEncrypted bool
	err := ex.QueryRowContext(ctx,
		`SELECT data, is_encrypted FROM credentials WHERE id = $1 AND organization_id = $2`,
		id.String(), workspaceID.String(),
	).Scan(&data, &isEncrypted)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query credential: %w", err)
	}

	var cred credential.CredentialData
	cred.IsEncrypted = isEncrypted
	if len(data) > 0 {
		if err := json.Unmarshal(data, &cred.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal credential data: %w", err)
		}
	}

	svc := credential.NewCredentialEncryptionService(r.encryptor)
	if err := svc.DecryptCredential(&cred); err != nil {
		return nil, fmt.Errorf("failed to decrypt credential: %w", err)
	}

	out := make(map[string]any, len(cred.Data))
	for k, v := range cred.Data {
		out[k] = v
	}
	return out, nil
}

// GetDatabaseConnection synthesizes the `database:` reference kind's record
// shape (§4.3): `{host, port, username, password, database_name,
// connection_string, ssl_enabled, additional_params}`.
func (r *ResourceRepository) GetDatabaseConnection(ctx context.Context, ex database.Executor, workspaceID model.WorkspaceID, id model.DatabaseID) (map[string]any, error) {
	var host, databaseName, username, password, sslMode, dbType string
	var port int
	var additionalParams []byte
	err := ex.QueryRowContext(ctx,
		`SELECT host, port, database_name, username, password, ssl_mode, COALESCE(db_type, 'postgresql'), additional_params
			FROM database_connections WHERE id = $1 AND organization_id = $2`,
		id.String(), workspaceID.String(),
	).Scan(&host, &port, &databaseName, &username, &password, &sslMode, &dbType, &additionalParams)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query database connection: %w", err)
	}

	decryptedPassword, err := r.encryptor.DecryptString(password)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt database connection password: %w", err)
	}

	var decodedParams map[string]any
	if len(additionalParams) > 0 {
		if err := json.Unmarshal(additionalParams, &decodedParams); err != nil {
			return nil, fmt.Errorf("failed to unmarshal additional_params: %w", err)
		}
	}

	sslEnabled := sslMode != "" && sslMode != "disable"
	connectionString := fmt.Sprintf("%s://%s:%s@%s:%d/%s", dbType, username, decryptedPassword, host, port, databaseName)
	if sslMode != "" {
		connectionString += "?sslmode=" + sslMode
	}

	return map[string]any{
		"host":              host,
		"port":              port,
		"username":          username,
		"password":          decryptedPassword,
		"database_name":     databaseName,
		"connection_string": connectionString,
		"ssl_enabled":       sslEnabled,
		"additional_params": decodedParams,
	}, nil
}

// GetFileMetadata synthesizes the `file:` reference kind's non-content
// record shape (§4.3): `{name, original_filename, file_size, mime_type,
// file_extension, description, tags, file_metadata}`.
func (r *ResourceRepository) GetFileMetadata(ctx context.Context, ex database.Executor, workspaceID model.WorkspaceID, id model.FileID) (map[string]any, error) {
	var name, originalFilename, mimeType, fileExtension, description string
	var fileSize int64
	var tags, fileMetadata []byte
	err := ex.QueryRowContext(ctx,
		`SELECT name, original_filename, file_size, mime_type, file_extension, description, tags, file_metadata
			FROM files WHERE id = $1 AND organization_id = $2`,
		id.String(), workspaceID.String(),
	).Scan(&name, &originalFilename, &fileSize, &mimeType, &fileExtension, &description, &tags, &fileMetadata)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query file metadata: %w", err)
	}

	var decodedTags []any
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &decodedTags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	var decodedMetadata map[string]any
	if len(fileMetadata) > 0 {
		if err := json.Unmarshal(fileMetadata, &decodedMetadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal file_metadata: %w", err)
		}
	}

	return map[string]any{
		"name":              name,
		"original_filename": originalFilename,
		"file_size":         fileSize,
		"mime_type":         mimeType,
		"file_extension":    fileExtension,
		"description":       description,
		"tags":              decodedTags,
		"file_metadata":     decodedMetadata,
	}, nil
}

// ReadFileContent looks up the file's bucket/key under the caller's
// workspace on the repository's own database handle, then reads its
// object body from the file store. The interface carries no
// database.Executor parameter since content reads are out-of-band object
// storage I/O, not part of the caller's SQL transaction.
func (r *ResourceRepository) ReadFileContent(ctx context.Context, workspaceID model.WorkspaceID, id model.FileID) (string, error) {
	var bucket, key string
	err := r.db.QueryRowContext(ctx,
		`SELECT bucket, object_key FROM files WHERE id = $1 AND organization_id = $2`,
		id.String(), workspaceID.String(),
	).Scan(&bucket, &key)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("failed to query file: %w", err)
	}
	return r.files.ReadContent(ctx, bucket, key)
}
