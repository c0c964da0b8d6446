package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pravodoc/pravodoc-backend/internal/contract/domain"
	"github.com/pravodoc/pravodoc-backend/pkg/config"
	"github.com/pravodoc/pravodoc-backend/pkg/database"
	"github.com/pravodoc/pravodoc-backend/pkg/errors"
)

// Schema returns the DDL for the counter and registry tables in the dialect
// of the given driver.
func Schema(driver string) []string {
	seq := "seq BIGSERIAL PRIMARY KEY"
	if driver == config.DriverSQLite {
		seq = "seq INTEGER PRIMARY KEY AUTOINCREMENT"
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS contract_counter (
			id INTEGER PRIMARY KEY,
			value BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS contracts (
			` + seq + `,
			id TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			contract_number TEXT NOT NULL,
			client TEXT NOT NULL,
			total_amount BIGINT NOT NULL DEFAULT 0,
			first_payment_date TEXT NOT NULL DEFAULT '',
			docx_path TEXT NOT NULL,
			pdf_path TEXT NOT NULL,
			xlsx_path TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_contracts_user ON contracts (user_id, seq)`,
	}
}

// Migrate applies Schema to db
func Migrate(ctx context.Context, db *database.DB) error {
	for _, stmt := range Schema(db.DriverName()) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return mapError(err)
		}
	}
	return nil
}

// SQLCounter keeps the counter in a single row of contract_counter
type SQLCounter struct {
	db *database.DB
}

// NewSQLCounter creates a new SQL counter
func NewSQLCounter(db *database.DB) *SQLCounter {
	return &SQLCounter{db: db}
}

// Next increments the counter row, creating it on first use
func (c *SQLCounter) Next(ctx context.Context) (int, error) {
	var value int
	err := c.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO contract_counter (id, value) VALUES (1, 0)
			ON CONFLICT (id) DO NOTHING
		`)); err != nil {
			return err
		}

		return tx.QueryRowxContext(ctx, tx.Rebind(`
			UPDATE contract_counter SET value = value + 1
			WHERE id = 1
			RETURNING value
		`)).Scan(&value)
	})
	if err != nil {
		return 0, mapError(err)
	}
	return value, nil
}

// SQLRegistry stores registry entries in the contracts table
type SQLRegistry struct {
	db *database.DB
}

// NewSQLRegistry creates a new SQL registry
func NewSQLRegistry(db *database.DB) *SQLRegistry {
	return &SQLRegistry{db: db}
}

// Append inserts e for the user
func (r *SQLRegistry) Append(ctx context.Context, userID string, e *domain.Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	e.UserID = userID

	query := r.db.Rebind(`
		INSERT INTO contracts (
			id, user_id, contract_number, client, total_amount,
			first_payment_date, docx_path, pdf_path, xlsx_path, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.UserID, e.ContractNumber, e.Client, e.TotalAmount,
		e.FirstPaymentDate, e.DocxPath, e.PDFPath, e.XlsxPath, e.CreatedAt,
	)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// Last returns the most recently appended entry of the user
func (r *SQLRegistry) Last(ctx context.Context, userID string) (*domain.Entry, error) {
	query := r.db.Rebind(`
		SELECT id, user_id, contract_number, client, total_amount,
		       first_payment_date, docx_path, pdf_path, xlsx_path, created_at
		FROM contracts
		WHERE user_id = ?
		ORDER BY seq DESC
		LIMIT 1
	`)

	var e domain.Entry
	err := r.db.GetContext(ctx, &e, query, userID)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("contract")
	}
	if err != nil {
		return nil, mapError(err)
	}
	return &e, nil
}

// mapError translates driver errors into application errors where a
// mapping exists.
func mapError(err error) error {
	if appErr := database.MapPQError(err); appErr != nil {
		return appErr
	}
	return err
}
