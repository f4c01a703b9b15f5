// Package sqlstore appends scraped FAQ records to the faq table.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/AlfredBerg/regsido/internal/config"
	"github.com/AlfredBerg/regsido/internal/models"
	"go.uber.org/zap"
)

const createMySQL = `CREATE TABLE IF NOT EXISTS faq (
	id INT AUTO_INCREMENT PRIMARY KEY,
	category TEXT,
	question TEXT,
	answer TEXT,
	source INT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
) DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`

const createSQLite = `CREATE TABLE IF NOT EXISTS faq (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	category TEXT,
	question TEXT,
	answer TEXT,
	source INTEGER NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

const insertFAQ = "INSERT INTO faq (category, question, answer, source) VALUES (?, ?, ?, ?)"

// SQLOutput writes a run's records in one transaction. Rows are only ever
// appended; running a scraper twice stores its records twice.
type SQLOutput struct {
	db     *sql.DB
	driver string
	logger *zap.Logger
}

func New(db *sql.DB, driver string, logger *zap.Logger) *SQLOutput {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLOutput{db: db, driver: driver, logger: logger.With(zap.String("component", "sqlstore"))}
}

// Init creates the faq table if it does not exist.
func (o *SQLOutput) Init(ctx context.Context) error {
	ddl := createMySQL
	if o.driver == config.DriverSQLite {
		ddl = createSQLite
	}
	if _, err := o.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create faq table: %w", err)
	}
	return nil
}

// HandleRecords creates the table when needed and inserts every record in a
// single transaction.
func (o *SQLOutput) HandleRecords(ctx context.Context, records []models.FAQRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := o.Init(ctx); err != nil {
		return err
	}

	tx, err := o.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for faq insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertFAQ)
	if err != nil {
		return fmt.Errorf("failed to prepare faq insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		var category sql.NullString
		if r.Category != nil {
			category = sql.NullString{String: *r.Category, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, category, r.Question, r.Answer, r.Source); err != nil {
			return fmt.Errorf("failed to insert faq record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit faq insert: %w", err)
	}
	o.logger.Info("inserted faq records", zap.Int("records", len(records)))
	return nil
}
