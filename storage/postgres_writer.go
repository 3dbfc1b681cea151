package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"home-rush/models"
	"home-rush/utils"
)

// PostgresJournal persists reply attempts to PostgreSQL.
type PostgresJournal struct {
	db *sql.DB
}

// NewPostgresJournal opens a connection to PostgreSQL, waits for it to
// answer, runs the schema migration and returns a ready journal.
func NewPostgresJournal(dsn string, logger *utils.Logger) (*PostgresJournal, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: 5, BaseDelay: time.Second, Logger: logger}
	if err := retry.Do("postgres-ping", db.Ping); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pj := &PostgresJournal{db: db}
	if err := pj.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pj, nil
}

func (pj *PostgresJournal) migrate() error {
	_, err := pj.db.Exec(`
		CREATE TABLE IF NOT EXISTS reply_attempts (
			id           UUID          PRIMARY KEY,
			bot          VARCHAR(50)   NOT NULL,
			attempted_at TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
			success      BOOLEAN       NOT NULL,
			street       TEXT          NOT NULL DEFAULT '',
			number       TEXT          NOT NULL DEFAULT '',
			city         TEXT          NOT NULL DEFAULT '',
			monthly_rent NUMERIC(10,2) NOT NULL DEFAULT 0,
			error        TEXT          NOT NULL DEFAULT '',
			raw_text     TEXT          NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_reply_attempts_bot    ON reply_attempts(bot);
		CREATE INDEX IF NOT EXISTS idx_reply_attempts_street ON reply_attempts(street);
	`)
	return err
}

// Record inserts one reply attempt.
func (pj *PostgresJournal) Record(r *models.ReplyRecord) error {
	_, err := pj.db.Exec(`
		INSERT INTO reply_attempts
			(id, bot, attempted_at, success, street, number, city, monthly_rent, error, raw_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`, r.ID, r.Bot, r.AttemptedAt, r.Success, r.Street, r.Number, r.City, r.MonthlyRent, r.Error, r.RawText)
	if err != nil {
		return fmt.Errorf("postgres: insert reply: %w", err)
	}
	return nil
}

// FetchByBot returns the recorded attempts of bot, oldest first.
func (pj *PostgresJournal) FetchByBot(bot string) ([]*models.ReplyRecord, error) {
	rows, err := pj.db.Query(`
		SELECT id, bot, attempted_at, success, street, number, city, monthly_rent, error, raw_text
		FROM reply_attempts
		WHERE bot = $1
		ORDER BY attempted_at
	`, bot)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch replies: %w", err)
	}
	defer rows.Close()

	var records []*models.ReplyRecord
	for rows.Next() {
		r := &models.ReplyRecord{}
		if err := rows.Scan(
			&r.ID, &r.Bot, &r.AttemptedAt, &r.Success, &r.Street,
			&r.Number, &r.City, &r.MonthlyRent, &r.Error, &r.RawText,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (pj *PostgresJournal) Close() error {
	return pj.db.Close()
}
