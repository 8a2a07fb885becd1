package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jurix/jurix/internal/domain"
	"github.com/jurix/jurix/internal/ports"
)

const auditColumns = `id, user_id, action, entity_type, entity_id, metadata, ip_address, user_agent, created_at`

// PostgresAuditRepository implements AuditRepository using PostgreSQL.
// audit_logs rejects UPDATE and DELETE at the database level.
type PostgresAuditRepository struct {
	db *sql.DB
}

// NewPostgresAuditRepository creates a new PostgreSQL audit repository
func NewPostgresAuditRepository(db *sql.DB) ports.AuditRepository {
	return &PostgresAuditRepository{db: db}
}

// Record inserts an audit entry. Inside a transaction the insert runs under a
// savepoint, so a failed audit write leaves the caller's transaction usable.
func (r *PostgresAuditRepository) Record(ctx context.Context, entry *domain.AuditEntry) error {
	tx, inTx := txFromContext(ctx)
	if !inTx {
		return r.insert(ctx, r.db, entry)
	}

	if _, err := tx.ExecContext(ctx, "SAVEPOINT audit_entry"); err != nil {
		return fmt.Errorf("failed to create audit savepoint: %w", err)
	}

	if err := r.insert(ctx, tx, entry); err != nil {
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT audit_entry"); rbErr != nil {
			return fmt.Errorf("%w (savepoint rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT audit_entry"); err != nil {
		return fmt.Errorf("failed to release audit savepoint: %w", err)
	}
	return nil
}

func (r *PostgresAuditRepository) insert(ctx context.Context, db dbtx, entry *domain.AuditEntry) error {
	query := `
		INSERT INTO audit_logs (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	// untyped nil is sent as SQL NULL
	var metadata interface{}
	if entry.Metadata != nil {
		metadataJSON, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal audit metadata: %w", err)
		}
		metadata = string(metadataJSON)
	}

	_, err := db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		string(entry.Action),
		string(entry.EntityType),
		entry.EntityID,
		metadata,
		entry.IPAddress,
		entry.UserAgent,
		entry.CreatedAt,
	)
	if err != nil {
		return mapError(fmt.Errorf("failed to record audit entry: %w", err), "audit entry already recorded")
	}

	return nil
}

// List retrieves audit entries matching the filter, newest first
func (r *PostgresAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditEntry, int, error) {
	where, args := auditWhere(filter)

	var total int
	err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs `+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	argIndex := len(args) + 1
	query := `SELECT ` + auditColumns + ` FROM audit_logs ` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset())

	entries, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// ListByEntity retrieves every entry recorded against one entity, newest first
func (r *PostgresAuditRepository) ListByEntity(ctx context.Context, entityType domain.EntityType, entityID string) ([]*domain.AuditEntry, error) {
	query := `
		SELECT ` + auditColumns + `
		FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC, id DESC
	`
	return r.query(ctx, query, string(entityType), entityID)
}

func (r *PostgresAuditRepository) query(ctx context.Context, query string, args ...interface{}) ([]*domain.AuditEntry, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var entityID, ipAddress, userAgent sql.NullString
		var metadataJSON []byte

		err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.Action,
			&e.EntityType,
			&entityID,
			&metadataJSON,
			&ipAddress,
			&userAgent,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}

		e.EntityID = mapStringPtr(entityID)
		e.IPAddress = ipAddress.String
		e.UserAgent = userAgent.String

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &e.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal audit metadata: %w", err)
			}
		}

		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}

	return entries, nil
}

// auditWhere builds the WHERE clause for audit listings
func auditWhere(filter domain.AuditFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	add := func(condition string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if filter.UserID != nil {
		add("user_id = $%d", *filter.UserID)
	}
	if filter.Action != nil {
		add("action = $%d", string(*filter.Action))
	}
	if filter.EntityType != nil {
		add("entity_type = $%d", string(*filter.EntityType))
	}
	if filter.EntityID != nil {
		add("entity_id = $%d", *filter.EntityID)
	}
	if filter.StartDate != nil {
		add("created_at >= $%d", *filter.StartDate)
	}
	if filter.EndDate != nil {
		add("created_at <= $%d", *filter.EndDate)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}
