package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mgpai22/capgen/internal/subtitle"
)

var ErrNotFound = errors.New("transcript not found")

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Transcript is one transcription request and, once finished, its words
type Transcript struct {
	ID          string          `json:"id"`
	Status      Status          `json:"status"`
	Provider    string          `json:"provider"`
	SourceName  string          `json:"sourceName"`
	VideoPath   string          `json:"-"`
	Text        string          `json:"text"`
	Words       []subtitle.Word `json:"words"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS transcripts (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL DEFAULT 'pending',
		provider TEXT NOT NULL DEFAULT '',
		source_name TEXT NOT NULL DEFAULT '',
		video_path TEXT NOT NULL DEFAULT '',
		text TEXT NOT NULL DEFAULT '',
		words TEXT NOT NULL DEFAULT '[]',
		error TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		completed_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_transcripts_created ON transcripts(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Create records a pending transcript and returns it with a fresh ID.
func (s *Store) Create(ctx context.Context, provider, sourceName, videoPath string) (*Transcript, error) {
	t := &Transcript{
		ID:         uuid.New().String(),
		Status:     StatusPending,
		Provider:   provider,
		SourceName: sourceName,
		VideoPath:  videoPath,
		Words:      []subtitle.Word{},
		CreatedAt:  time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transcripts (id, status, provider, source_name, video_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Status, t.Provider, t.SourceName, t.VideoPath, t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcript: %w", err)
	}
	return t, nil
}

func (s *Store) Complete(ctx context.Context, id, text string, words []subtitle.Word) error {
	data, err := subtitle.WordsToJSON(words)
	if err != nil {
		return err
	}
	return s.finish(ctx, id,
		"UPDATE transcripts SET status = ?, text = ?, words = ?, error = '', completed_at = ? WHERE id = ?",
		StatusCompleted, text, string(data), time.Now().UTC(), id,
	)
}

func (s *Store) Fail(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return s.finish(ctx, id,
		"UPDATE transcripts SET status = ?, error = ?, completed_at = ? WHERE id = ?",
		StatusFailed, msg, time.Now().UTC(), id,
	)
}

func (s *Store) finish(ctx context.Context, id, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update transcript %s: %w", id, err)
	}
	return expectRow(res)
}

const selectColumns = `SELECT id, status, provider, source_name, video_path, text, words, error, created_at, completed_at FROM transcripts`

type scanner interface {
	Scan(dest ...any) error
}

func scanTranscript(row scanner) (*Transcript, error) {
	var (
		t         Transcript
		words     string
		completed sql.NullTime
	)
	err := row.Scan(&t.ID, &t.Status, &t.Provider, &t.SourceName, &t.VideoPath,
		&t.Text, &words, &t.Error, &t.CreatedAt, &completed)
	if err != nil {
		return nil, err
	}
	if t.Words, err = subtitle.WordsFromJSON([]byte(words)); err != nil {
		return nil, fmt.Errorf("corrupt words for transcript %s: %w", t.ID, err)
	}
	if completed.Valid {
		c := completed.Time
		t.CompletedAt = &c
	}
	return &t, nil
}

func (s *Store) Get(ctx context.Context, id string) (*Transcript, error) {
	t, err := scanTranscript(s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript %s: %w", id, err)
	}
	return t, nil
}

// List returns the newest transcripts first. limit <= 0 means 50.
func (s *Store) List(ctx context.Context, limit int) ([]*Transcript, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+" ORDER BY created_at DESC, id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}
	defer rows.Close()

	transcripts := []*Transcript{}
	for rows.Next() {
		t, err := scanTranscript(rows)
		if err != nil {
			return nil, err
		}
		transcripts = append(transcripts, t)
	}
	return transcripts, rows.Err()
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM transcripts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete transcript %s: %w", id, err)
	}
	return expectRow(res)
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
