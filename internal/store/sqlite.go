// Package store persists enriched leads in SQLite so repeated runs over
// overlapping seed lists skip businesses already enriched. The lead_id is
// the primary key; a lead is written once and never updated in place.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/leadsmith/leadsmith/internal/lead"
)

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the lead database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	// A few hot columns are broken out for ad-hoc querying; the full record
	// lives in the JSON blob.
	schema := `
	CREATE TABLE IF NOT EXISTS leads (
		lead_id TEXT PRIMARY KEY,
		business_name TEXT NOT NULL,
		enrichment_status TEXT NOT NULL,
		run_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		record TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// KnownIDs returns the set of lead IDs already persisted.
func (s *Store) KnownIDs() (map[string]struct{}, error) {
	rows, err := s.db.Query(`SELECT lead_id FROM leads`)
	if err != nil {
		return nil, fmt.Errorf("failed to list lead ids: %w", err)
	}
	defer rows.Close()

	ids := map[string]struct{}{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// Get loads the stored records for the given lead IDs. IDs with no stored
// record are simply absent from the result.
func (s *Store) Get(ids []string) (map[string]lead.Record, error) {
	out := make(map[string]lead.Record, len(ids))
	stmt, err := s.db.Prepare(`SELECT record FROM leads WHERE lead_id = ?`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	for _, id := range ids {
		var blob string
		err := stmt.QueryRow(id).Scan(&blob)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load lead %s: %w", id, err)
		}
		var rec lead.Record
		if err := json.Unmarshal([]byte(blob), &rec); err != nil {
			return nil, fmt.Errorf("corrupt record for lead %s: %w", id, err)
		}
		out[id] = rec
	}
	return out, nil
}

// Append inserts records that are not yet present and reports how many were
// added. Existing lead IDs are left untouched.
func (s *Store) Append(runID string, records []lead.Record) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO leads
			(lead_id, business_name, enrichment_status, run_id, created_at, record)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	added := 0
	for _, rec := range records {
		blob, err := json.Marshal(rec)
		if err != nil {
			return 0, fmt.Errorf("failed to encode lead %s: %w", rec.LeadID, err)
		}
		res, err := stmt.Exec(rec.LeadID, rec.BusinessName, rec.EnrichmentStatus, runID, now, string(blob))
		if err != nil {
			return 0, fmt.Errorf("failed to insert lead %s: %w", rec.LeadID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		added += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return added, nil
}
