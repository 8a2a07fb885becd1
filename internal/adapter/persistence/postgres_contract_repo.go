package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/jurix/jurix/internal/domain"
	"github.com/jurix/jurix/internal/ports"
)

const contractColumns = `id, title, content, status, created_by_id, current_version, created_at, updated_at`

const versionColumns = `id, contract_id, version, title, content, status, changed_by_id, change_reason, created_at`

// sortColumns whitelists the ORDER BY columns a filter may select
var sortColumns = map[domain.ContractSortField]string{
	domain.SortByTitle:     "title",
	domain.SortByCreatedAt: "created_at",
	domain.SortByUpdatedAt: "updated_at",
	domain.SortByStatus:    "status",
}

// PostgresContractRepository implements ContractRepository using PostgreSQL
type PostgresContractRepository struct {
	db *sql.DB
}

// NewPostgresContractRepository creates a new PostgreSQL contract repository
func NewPostgresContractRepository(db *sql.DB) ports.ContractRepository {
	return &PostgresContractRepository{db: db}
}

// RunInTransaction runs fn in a transaction shared by every repository on the same ctx
func (r *PostgresContractRepository) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return runInTransaction(ctx, r.db, fn)
}

// Create saves a new contract
func (r *PostgresContractRepository) Create(ctx context.Context, contract *domain.Contract) error {
	query := `
		INSERT INTO contracts (` + contractColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		contract.ID,
		contract.Title,
		contract.Content,
		string(contract.Status),
		contract.CreatedByID,
		contract.CurrentVersion,
		contract.CreatedAt,
		contract.UpdatedAt,
	)
	if err != nil {
		return mapError(fmt.Errorf("failed to create contract: %w", err), "contract already exists")
	}

	return nil
}

// FindByID retrieves a contract by its ID
func (r *PostgresContractRepository) FindByID(ctx context.Context, id string) (*domain.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE id = $1`
	return r.findOne(ctx, query, id)
}

// FindByIDForUpdate retrieves a contract and holds its row lock until the transaction ends
func (r *PostgresContractRepository) FindByIDForUpdate(ctx context.Context, id string) (*domain.Contract, error) {
	if _, ok := txFromContext(ctx); !ok {
		return nil, errors.New("FindByIDForUpdate requires a transaction")
	}
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE id = $1 FOR UPDATE`
	return r.findOne(ctx, query, id)
}

func (r *PostgresContractRepository) findOne(ctx context.Context, query, id string) (*domain.Contract, error) {
	contract, err := scanContract(conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("contract", id)
		}
		return nil, mapError(fmt.Errorf("failed to find contract: %w", err), "contract is locked by another transaction")
	}
	return contract, nil
}

// Update persists title, content, status and version of an existing contract
func (r *PostgresContractRepository) Update(ctx context.Context, contract *domain.Contract) error {
	query := `
		UPDATE contracts
		SET title = $2, content = $3, status = $4, current_version = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		contract.ID,
		contract.Title,
		contract.Content,
		string(contract.Status),
		contract.CurrentVersion,
		contract.UpdatedAt,
	)
	if err != nil {
		return mapError(fmt.Errorf("failed to update contract: %w", err), "contract update conflict")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.NewNotFoundError("contract", contract.ID)
	}

	return nil
}

// Delete removes a contract. contract_versions rows cascade.
func (r *PostgresContractRepository) Delete(ctx context.Context, id string) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM contracts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contract: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.NewNotFoundError("contract", id)
	}

	return nil
}

// List retrieves contracts based on filter criteria
func (r *PostgresContractRepository) List(ctx context.Context, filter domain.ContractFilter) ([]*domain.Contract, error) {
	where, args := contractWhere(filter)
	argIndex := len(args) + 1

	query := `SELECT ` + contractColumns + ` FROM contracts ` + where +
		` ` + contractOrder(filter) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset())

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	defer rows.Close()

	var contracts []*domain.Contract
	for rows.Next() {
		contract, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		contracts = append(contracts, contract)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contracts: %w", err)
	}

	return contracts, nil
}

// Count returns the number of contracts matching the filter
func (r *PostgresContractRepository) Count(ctx context.Context, filter domain.ContractFilter) (int, error) {
	where, args := contractWhere(filter)

	var count int
	err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM contracts `+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count contracts: %w", err)
	}

	return count, nil
}

// CreateVersion appends a version snapshot
func (r *PostgresContractRepository) CreateVersion(ctx context.Context, version *domain.ContractVersion) error {
	query := `
		INSERT INTO contract_versions (` + versionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		version.ID,
		version.ContractID,
		version.Version,
		version.Title,
		version.Content,
		string(version.Status),
		version.ChangedByID,
		version.ChangeReason,
		version.CreatedAt,
	)
	if err != nil {
		return mapError(
			fmt.Errorf("failed to create contract version: %w", err),
			fmt.Sprintf("version %d of contract %s already exists", version.Version, version.ContractID),
		)
	}

	return nil
}

// ListVersions returns all versions of a contract, newest first
func (r *PostgresContractRepository) ListVersions(ctx context.Context, contractID string) ([]*domain.ContractVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM contract_versions WHERE contract_id = $1 ORDER BY version DESC`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to query contract versions: %w", err)
	}
	defer rows.Close()

	var versions []*domain.ContractVersion
	for rows.Next() {
		var v domain.ContractVersion
		var reason sql.NullString

		err := rows.Scan(
			&v.ID,
			&v.ContractID,
			&v.Version,
			&v.Title,
			&v.Content,
			&v.Status,
			&v.ChangedByID,
			&reason,
			&v.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contract version: %w", err)
		}
		v.ChangeReason = mapStringPtr(reason)

		versions = append(versions, &v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contract versions: %w", err)
	}

	return versions, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanContract(row scanner) (*domain.Contract, error) {
	var c domain.Contract
	err := row.Scan(
		&c.ID,
		&c.Title,
		&c.Content,
		&c.Status,
		&c.CreatedByID,
		&c.CurrentVersion,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// contractWhere builds the WHERE clause shared by List and Count
func contractWhere(filter domain.ContractFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, string(*filter.Status))
		argIndex++
	}

	if filter.CreatedByID != nil {
		conditions = append(conditions, fmt.Sprintf("created_by_id = $%d", argIndex))
		args = append(args, *filter.CreatedByID)
		argIndex++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("title ILIKE $%d", argIndex))
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		argIndex++
	}

	if len(filter.ExcludeStatuses) > 0 {
		excluded := make([]string, len(filter.ExcludeStatuses))
		for i, s := range filter.ExcludeStatuses {
			excluded[i] = string(s)
		}
		conditions = append(conditions, fmt.Sprintf("status <> ALL($%d)", argIndex))
		args = append(args, pq.Array(excluded))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// contractOrder builds the ORDER BY clause; id breaks ties so pages stay stable
func contractOrder(filter domain.ContractFilter) string {
	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if filter.SortOrder == domain.SortAsc {
		direction = "ASC"
	}
	return fmt.Sprintf("ORDER BY %s %s, id %s", column, direction, direction)
}

// escapeLike escapes the ILIKE wildcards in user input
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func mapStringPtr(ns sql.NullString) *string {
	if ns.Valid {
		return &ns.String
	}
	return nil
}
