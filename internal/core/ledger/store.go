package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmaher/sfl-tracker/internal/core/trades"
	"github.com/dmaher/sfl-tracker/internal/telemetry"

	_ "modernc.org/sqlite"
)

// Store persists per-player ledger rows in an embedded SQLite database.
// The on-disk representation is private to this package; callers only
// see ordered buy/sell row slices. There is exactly one writer process,
// so a single connection with WAL journaling is enough.
type Store struct {
	db *sql.DB
}

func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger store dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init ledger schema: %w", err)
	}

	var rowCount int64
	db.QueryRow(`SELECT COUNT(*) FROM ledger_rows`).Scan(&rowCount)
	telemetry.Debugf("ledger store: opened %s  rows=%d", path, rowCount)

	return &Store{db: db}, nil
}

const schema = `CREATE TABLE IF NOT EXISTS ledger_rows (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	username     TEXT    NOT NULL,
	direction    TEXT    NOT NULL,
	position     INTEGER NOT NULL,
	trade_date   TEXT,
	trade_time   TEXT,
	item         TEXT,
	quantity     INTEGER,
	price        TEXT,
	counterparty TEXT,
	trade_id     TEXT    NOT NULL,
	UNIQUE(username, trade_id)
);
CREATE INDEX IF NOT EXISTS idx_ledger_user ON ledger_rows(username, direction, position);`

func (s *Store) Close() error { return s.db.Close() }

// Load returns the persisted buy and sell rows for a player, each in
// stored order (newest first). A player with no history yields empty
// slices. Read errors degrade to empty history with a warning: the next
// reconciliation re-derives everything the upstream still serves.
func (s *Store) Load(username string) (buys, sells []trades.Row) {
	rows, err := s.db.Query(`
		SELECT direction, trade_date, trade_time, item, quantity, price, counterparty, trade_id
		FROM ledger_rows
		WHERE username = ?
		ORDER BY direction, position`, username)
	if err != nil {
		telemetry.Warnf("ledger store: load %s: %v (treating history as empty)", username, err)
		return nil, nil
	}
	defer rows.Close()

	for rows.Next() {
		var r trades.Row
		var direction string
		if err := rows.Scan(&direction, &r.Date, &r.Time, &r.Item, &r.Quantity, &r.Price, &r.Counterparty, &r.TradeID); err != nil {
			telemetry.Warnf("ledger store: scan row for %s: %v (skipping)", username, err)
			continue
		}
		r.Direction = trades.Direction(direction)
		if r.Direction == trades.Sell {
			sells = append(sells, r)
		} else {
			buys = append(buys, r)
		}
	}
	if err := rows.Err(); err != nil {
		telemetry.Warnf("ledger store: iterate rows for %s: %v", username, err)
	}
	return buys, sells
}

// Replace rewrites a player's ledger with the merged reconciliation
// result. The full rewrite is safe because Reconcile already folds in
// every previously persisted row.
func (s *Store) Replace(username string, buys, sells []trades.Row) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin ledger rewrite: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM ledger_rows WHERE username = ?`, username); err != nil {
		return fmt.Errorf("clear ledger rows: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO ledger_rows
			(username, direction, position, trade_date, trade_time, item, quantity, price, counterparty, trade_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare ledger insert: %w", err)
	}
	defer stmt.Close()

	insert := func(rowSet []trades.Row) error {
		for i, r := range rowSet {
			if _, err := stmt.Exec(username, string(r.Direction), i,
				r.Date, r.Time, r.Item, r.Quantity, r.Price, r.Counterparty, r.TradeID); err != nil {
				return fmt.Errorf("insert ledger row %s: %w", r.TradeID, err)
			}
		}
		return nil
	}
	if err := insert(buys); err != nil {
		return err
	}
	if err := insert(sells); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger rewrite: %w", err)
	}
	return nil
}

// Usernames lists every player with at least one persisted ledger row.
func (s *Store) Usernames() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT username FROM ledger_rows ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list ledger usernames: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan username: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
