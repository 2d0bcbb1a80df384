package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the profile, the short memory, the window position and
// the interaction log in one SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// sqlitePragmas are applied on every connection through the DSN.
const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

// OpenSQLite opens dataDir/deskmate.db, creating it if needed, and brings
// its schema up to date. dataDir ":memory:" gives a private in-memory
// database.
func OpenSQLite(dataDir string) (*SQLiteStore, error) {
	dsn := ":memory:"
	if dataDir != ":memory:" {
		if err := os.MkdirAll(dataDir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = "file:" + filepath.Join(dataDir, "deskmate.db") + "?" + sqlitePragmas
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection serialises writers, and keeps a :memory: database
	// alive for the lifetime of the store.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Interactions ---

const interactionColumns = `id, created_at, question, answer, full_answer, backend, truncated, error_kind`

func (s *SQLiteStore) SaveInteraction(i Interaction) error {
	_, err := s.db.Exec(`
		INSERT INTO interactions (`+interactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		i.ID, i.CreatedAt.UTC().Format(time.RFC3339), i.Question, i.Answer,
		i.FullAnswer, i.Backend, i.Truncated, i.ErrorKind,
	)
	return err
}

func (s *SQLiteStore) GetInteraction(id string) (Interaction, error) {
	i, err := scanInteraction(s.db.QueryRow(`SELECT `+interactionColumns+` FROM interactions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Interaction{}, ErrNotFound
	}
	return i, err
}

// RecentInteractions returns up to limit interactions, newest first.
func (s *SQLiteStore) RecentInteractions(limit int) ([]Interaction, error) {
	rows, err := s.db.Query(`
		SELECT `+interactionColumns+`
		FROM interactions ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Interaction
	for rows.Next() {
		i, err := scanInteraction(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, i)
	}
	return results, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInteraction(r rowScanner) (Interaction, error) {
	var i Interaction
	var createdAt string
	if err := r.Scan(&i.ID, &createdAt, &i.Question, &i.Answer, &i.FullAnswer, &i.Backend, &i.Truncated, &i.ErrorKind); err != nil {
		return Interaction{}, err
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Interaction{}, fmt.Errorf("parsing created_at: %w", err)
	}
	i.CreatedAt = t
	return i, nil
}

// --- User Profile ---

// SaveProfile upserts every key of p. Keys absent from p are left alone;
// profile facts are never deleted.
func (s *SQLiteStore) SaveProfile(p map[string]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning profile transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for k, v := range p {
		if _, err := tx.Exec(`
			INSERT INTO user_profile (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			k, v, now,
		); err != nil {
			return fmt.Errorf("saving profile key %q: %w", k, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadProfile() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM user_profile")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		result[k] = v
	}
	return result, rows.Err()
}

// --- Short memory ---

// SaveMemory replaces the stored sequence with m.
func (s *SQLiteStore) SaveMemory(m []Exchange) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning memory transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM short_memory`); err != nil {
		return fmt.Errorf("clearing short memory: %w", err)
	}
	for i, e := range m {
		if _, err := tx.Exec(`INSERT INTO short_memory (seq, user_text, assistant_text) VALUES (?, ?, ?)`,
			i, e.User, e.Assistant); err != nil {
			return fmt.Errorf("saving exchange %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadMemory() ([]Exchange, error) {
	rows, err := s.db.Query(`SELECT user_text, assistant_text FROM short_memory ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Exchange
	for rows.Next() {
		var e Exchange
		if err := rows.Scan(&e.User, &e.Assistant); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// --- Window position ---

func (s *SQLiteStore) SavePosition(p Position) error {
	_, err := s.db.Exec(`
		INSERT INTO window_position (id, x, y, updated_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET x = excluded.x, y = excluded.y, updated_at = excluded.updated_at`,
		p.X, p.Y, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *SQLiteStore) LoadPosition() (Position, error) {
	var p Position
	err := s.db.QueryRow(`SELECT x, y FROM window_position WHERE id = 1`).Scan(&p.X, &p.Y)
	if errors.Is(err, sql.ErrNoRows) {
		return Position{}, ErrNotFound
	}
	return p, err
}
