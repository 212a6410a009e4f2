package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/codebuildervaibhav/meeting-summarizer/internal/types"
)

// ErrNotFound is returned when a meeting id does not exist
var ErrNotFound = errors.New("meeting not found")

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ListOptions filters and pages a meeting listing
type ListOptions struct {
	Search  string
	Page    int
	PerPage int
}

// ListResult is one page of meeting summaries
type ListResult struct {
	Meetings []types.MeetingSummary
	Total    int
	Pages    int
	Page     int
}

// MeetingDB handles SQLite database operations
type MeetingDB struct {
	db  *sql.DB
	now func() time.Time
}

// NewMeetingDB opens (and migrates) the meetings database
func NewMeetingDB(dbPath string) (*MeetingDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS meetings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		date TEXT NOT NULL,
		language TEXT NOT NULL DEFAULT 'en-US',
		transcript TEXT NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_meetings_created_at ON meetings(created_at);
	CREATE INDEX IF NOT EXISTS idx_meetings_title ON meetings(title);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MeetingDB{db: db, now: time.Now}, nil
}

// CreateMeeting inserts a meeting, applying defaults for empty fields
func (mdb *MeetingDB) CreateMeeting(ctx context.Context, in types.MeetingInput) (*types.Meeting, error) {
	in = mdb.withDefaults(in)
	now := mdb.now().UTC()

	query := `
	INSERT INTO meetings (title, date, language, transcript, summary, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	res, err := mdb.db.ExecContext(ctx, query, in.Title, in.Date, in.Language, in.Transcript, in.Summary,
		now.Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to save meeting: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read meeting id: %w", err)
	}

	return &types.Meeting{
		ID:         id,
		Title:      in.Title,
		Date:       in.Date,
		Language:   in.Language,
		Transcript: in.Transcript,
		Summary:    in.Summary,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// UpdateMeeting overwrites the writable fields of an existing meeting
func (mdb *MeetingDB) UpdateMeeting(ctx context.Context, id int64, in types.MeetingInput) (*types.Meeting, error) {
	in = mdb.withDefaults(in)
	now := mdb.now().UTC()

	query := `
	UPDATE meetings SET title = ?, date = ?, language = ?, transcript = ?, summary = ?, updated_at = ?
	WHERE id = ?
	`
	res, err := mdb.db.ExecContext(ctx, query, in.Title, in.Date, in.Language, in.Transcript, in.Summary,
		now.Format(timeLayout), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update meeting: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}

	return mdb.GetMeeting(ctx, id)
}

// GetMeeting retrieves a meeting by id
func (mdb *MeetingDB) GetMeeting(ctx context.Context, id int64) (*types.Meeting, error) {
	query := `
	SELECT id, title, date, language, transcript, summary, created_at, updated_at
	FROM meetings WHERE id = ?
	`

	var (
		m                    types.Meeting
		createdAt, updatedAt string
	)
	err := mdb.db.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.Title, &m.Date, &m.Language,
		&m.Transcript, &m.Summary, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}

	m.CreatedAt = parseTime(createdAt)
	m.UpdatedAt = parseTime(updatedAt)
	return &m, nil
}

// ListMeetings returns one page of meetings, newest first, optionally
// filtered by a case-insensitive substring of title or transcript
func (mdb *MeetingDB) ListMeetings(ctx context.Context, opts ListOptions) (*ListResult, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PerPage < 1 {
		opts.PerPage = 20
	}

	where := ""
	var args []any
	if search := strings.TrimSpace(opts.Search); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		where = `WHERE title LIKE ? ESCAPE '\' OR transcript LIKE ? ESCAPE '\'`
		args = append(args, pattern, pattern)
	}

	var total int
	if err := mdb.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM meetings "+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count meetings: %w", err)
	}

	query := `
	SELECT id, title, date, language, transcript, created_at
	FROM meetings ` + where + `
	ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?
	`
	rows, err := mdb.db.QueryContext(ctx, query, append(args, opts.PerPage, (opts.Page-1)*opts.PerPage)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	defer rows.Close()

	meetings := make([]types.MeetingSummary, 0)
	for rows.Next() {
		var (
			s          types.MeetingSummary
			transcript string
			createdAt  string
		)
		if err := rows.Scan(&s.ID, &s.Title, &s.Date, &s.Language, &transcript, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan meeting: %w", err)
		}
		s.CreatedAt = parseTime(createdAt)
		s.Preview = types.Preview(transcript)
		meetings = append(meetings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}

	return &ListResult{
		Meetings: meetings,
		Total:    total,
		Pages:    (total + opts.PerPage - 1) / opts.PerPage,
		Page:     opts.Page,
	}, nil
}

// DeleteMeeting removes a meeting by id
func (mdb *MeetingDB) DeleteMeeting(ctx context.Context, id int64) error {
	res, err := mdb.db.ExecContext(ctx, "DELETE FROM meetings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete meeting: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database connection
func (mdb *MeetingDB) Close() error {
	return mdb.db.Close()
}

func (mdb *MeetingDB) withDefaults(in types.MeetingInput) types.MeetingInput {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		in.Title = types.DefaultTitle
	}
	if in.Date == "" {
		in.Date = mdb.now().Format(types.DateLayout)
	}
	if in.Language == "" {
		in.Language = types.DefaultLanguage
	}
	return in
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
