// Package storage archives parsed spectrum datasets in a SQLite database
// so processed scans can be listed, re-plotted and re-exported without the
// original CSV files.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rf-tools/rtl-spectrum/internal/spectrum"
)

// Session describes one archived dataset: where it came from and which
// processing mode produced it.
type Session struct {
	ID        int64
	CreatedAt time.Time
	Source    string
	Mode      string
	Config    *string // optional JSON scan configuration
}

// Store handles database operations. Write and read connections are opened
// lazily and independently; the write connection initialises the schema.
type Store struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// New creates a store for the database at dbPath. No connection is opened
// until the first operation.
func New(dbPath string) *Store {
	return &Store{dbPath: dbPath}
}

func (s *Store) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", s.dbPath+"?_journal_mode=WAL&_synchronous=NORMAL")
		if err != nil {
			s.writeDBErr = err
			return
		}

		if _, err = db.Exec(schemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = err
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *Store) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", s.dbPath)
		if err != nil {
			s.readDBErr = err
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

// CreateSession records a new archived dataset and returns its ID. The
// optional config may be a string, []byte or any JSON-serialisable value.
func (s *Store) CreateSession(ctx context.Context, source, mode string, config any) (sessionID int64, err error) {
	var configData sql.NullString

	if config != nil {
		switch v := config.(type) {
		case string:
			configData = sql.NullString{String: v, Valid: true}

		case []byte:
			configData = sql.NullString{String: string(v), Valid: true}

		default:
			p, err := json.Marshal(config)
			if err != nil {
				return 0, fmt.Errorf("marshaling config: %w", err)
			}
			configData = sql.NullString{String: string(p), Valid: true}
		}
	}

	db, err := s.getWriteDB()
	if err != nil {
		return 0, fmt.Errorf("getting write connection: %w", err)
	}

	result, err := db.ExecContext(ctx, insertSessionSQL, source, mode, configData)
	if err != nil {
		return 0, fmt.Errorf("inserting session: %w", err)
	}

	return result.LastInsertId()
}

// StoreDataset saves a finalised record list under a session, in a single
// transaction.
func (s *Store) StoreDataset(ctx context.Context, sessionID int64, bins []*spectrum.BinData) (err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertBinSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	for _, b := range bins {
		if _, err = stmt.ExecContext(ctx, sessionID,
			b.Date, b.Time, b.FreqStart, b.FreqStartHz,
			b.BinSize, b.NumSamples, b.DbmAvg); err != nil {
			return fmt.Errorf("inserting bin: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Session returns an archived session by its ID, or nil if not found.
func (s *Store) Session(ctx context.Context, id int64) (*Session, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	var sess Session
	err = db.QueryRowContext(ctx, selectSessionSQL, id).
		Scan(&sess.ID, &sess.CreatedAt, &sess.Source, &sess.Mode, &sess.Config)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	return &sess, nil
}

// Sessions returns all archived sessions, oldest first.
func (s *Store) Sessions(ctx context.Context) (sessions []Session, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	rows, err := db.QueryContext(ctx, selectSessionsSQL)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var sess Session
		if err = rows.Scan(&sess.ID, &sess.CreatedAt, &sess.Source, &sess.Mode, &sess.Config); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}

// Dataset loads a session's archived records, frequency-sorted, in the
// finalised form they were stored in.
func (s *Store) Dataset(ctx context.Context, sessionID int64) (bins []*spectrum.BinData, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	rows, err := db.QueryContext(ctx, selectBinsSQL, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying bins: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var b spectrum.BinData
		if err = rows.Scan(&b.Date, &b.Time, &b.FreqStart, &b.FreqStartHz,
			&b.BinSize, &b.NumSamples, &b.DbmAvg); err != nil {
			return nil, fmt.Errorf("scanning bin: %w", err)
		}

		// Stored datasets are finalised; restore the single-sample shape.
		b.FreqEnd = b.BinSize
		b.DbmTotal = b.DbmAvg
		b.DbmCount = 1
		bins = append(bins, &b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bins: %w", err)
	}
	return bins, nil
}

// Close releases both database connections. Safe to call multiple times.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		if s.writeDB != nil {
			s.closeErr = s.writeDB.Close()
		}
		if s.readDB != nil {
			if err := s.readDB.Close(); err != nil && s.closeErr == nil {
				s.closeErr = err
			}
		}
	})
	return s.closeErr
}

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}
