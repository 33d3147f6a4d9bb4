package a2a

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2asrv"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// SQLTaskStore implements a2asrv.TaskStore on top of a SQL database. Tasks
// are stored as JSON blobs in a single table; the dialect only changes the
// UPSERT syntax and placeholder style.
type SQLTaskStore struct {
	db      *sql.DB
	dialect string
}

type taskStoreRow struct {
	ID            string
	ContextID     string
	StatusJSON    string
	HistoryJSON   string
	ArtifactsJSON string
	MetadataJSON  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

const (
	createTaskTableSQL = `
CREATE TABLE IF NOT EXISTS a2a_tasks (
    id TEXT PRIMARY KEY,
    context_id TEXT NOT NULL,
    status_json TEXT NOT NULL,
    history_json TEXT,
    artifacts_json TEXT,
    metadata_json TEXT,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
)`

	createTaskContextIndexSQL = `CREATE INDEX IF NOT EXISTS idx_a2a_tasks_context_id ON a2a_tasks(context_id)`
)

// NewSQLTaskStore opens an a2asrv.TaskStore backed by db. dialect must be
// "postgres" or "sqlite" — the only two drivers this module carries
// (no mysql driver is wired in; see DESIGN.md).
func NewSQLTaskStore(db *sql.DB, dialect string) (*SQLTaskStore, error) {
	if db == nil {
		return nil, fmt.Errorf("a2a: database connection is required")
	}
	switch dialect {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("a2a: unsupported dialect %q (supported: postgres, sqlite)", dialect)
	}

	s := &SQLTaskStore{db: db, dialect: dialect}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("a2a: init schema: %w", err)
	}
	return s, nil
}

func (s *SQLTaskStore) initSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, createTaskTableSQL); err != nil {
		return fmt.Errorf("create a2a_tasks table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, createTaskContextIndexSQL); err != nil {
		return fmt.Errorf("create context_id index: %w", err)
	}
	return nil
}

// Save stores task, upserting on ID (implements a2asrv.TaskStore).
func (s *SQLTaskStore) Save(ctx context.Context, task *a2a.Task) error {
	if task == nil {
		return fmt.Errorf("a2a: task is required")
	}

	row, err := s.taskToRow(task)
	if err != nil {
		return fmt.Errorf("a2a: serialize task: %w", err)
	}

	query := `
INSERT INTO a2a_tasks (id, context_id, status_json, history_json, artifacts_json, metadata_json, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    context_id = excluded.context_id,
    status_json = excluded.status_json,
    history_json = excluded.history_json,
    artifacts_json = excluded.artifacts_json,
    metadata_json = excluded.metadata_json,
    updated_at = excluded.updated_at
`
	if s.dialect == "postgres" {
		query = `
INSERT INTO a2a_tasks (id, context_id, status_json, history_json, artifacts_json, metadata_json, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
    context_id = EXCLUDED.context_id,
    status_json = EXCLUDED.status_json,
    history_json = EXCLUDED.history_json,
    artifacts_json = EXCLUDED.artifacts_json,
    metadata_json = EXCLUDED.metadata_json,
    updated_at = EXCLUDED.updated_at
`
	}

	args := []any{row.ID, row.ContextID, row.StatusJSON, row.HistoryJSON, row.ArtifactsJSON, row.MetadataJSON, row.CreatedAt, row.UpdatedAt}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("a2a: save task: %w", err)
	}
	return nil
}

// Get retrieves a task by ID (implements a2asrv.TaskStore).
func (s *SQLTaskStore) Get(ctx context.Context, taskID a2a.TaskID) (*a2a.Task, error) {
	query := `SELECT id, context_id, status_json, history_json, artifacts_json, metadata_json, created_at, updated_at FROM a2a_tasks WHERE id = ?`
	if s.dialect == "postgres" {
		query = `SELECT id, context_id, status_json, history_json, artifacts_json, metadata_json, created_at, updated_at FROM a2a_tasks WHERE id = $1`
	}

	var row taskStoreRow
	err := s.db.QueryRowContext(ctx, query, string(taskID)).Scan(
		&row.ID, &row.ContextID, &row.StatusJSON,
		&row.HistoryJSON, &row.ArtifactsJSON, &row.MetadataJSON,
		&row.CreatedAt, &row.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, a2a.ErrTaskNotFound
	}
	if err != nil {
		slog.Error("a2a: task store query failed", "taskID", taskID, "error", err)
		return nil, fmt.Errorf("a2a: query task: %w", err)
	}
	return s.rowToTask(&row)
}

// Close closes the underlying database connection.
func (s *SQLTaskStore) Close() error {
	return s.db.Close()
}

func (s *SQLTaskStore) taskToRow(task *a2a.Task) (*taskStoreRow, error) {
	now := time.Now()

	statusJSON, err := json.Marshal(task.Status)
	if err != nil {
		return nil, fmt.Errorf("marshal status: %w", err)
	}

	historyJSON := []byte("[]")
	if len(task.History) > 0 {
		if historyJSON, err = json.Marshal(task.History); err != nil {
			return nil, fmt.Errorf("marshal history: %w", err)
		}
	}

	artifactsJSON := []byte("[]")
	if len(task.Artifacts) > 0 {
		if artifactsJSON, err = json.Marshal(task.Artifacts); err != nil {
			return nil, fmt.Errorf("marshal artifacts: %w", err)
		}
	}

	metadataJSON := []byte("{}")
	if len(task.Metadata) > 0 {
		if metadataJSON, err = json.Marshal(task.Metadata); err != nil {
			return nil, fmt.Errorf("marshal metadata: %w", err)
		}
	}

	return &taskStoreRow{
		ID:            string(task.ID),
		ContextID:     task.ContextID,
		StatusJSON:    string(statusJSON),
		HistoryJSON:   string(historyJSON),
		ArtifactsJSON: string(artifactsJSON),
		MetadataJSON:  string(metadataJSON),
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (s *SQLTaskStore) rowToTask(row *taskStoreRow) (*a2a.Task, error) {
	task := &a2a.Task{ID: a2a.TaskID(row.ID), ContextID: row.ContextID}

	if row.StatusJSON == "" {
		return nil, fmt.Errorf("a2a: status_json is required but was empty")
	}
	if err := json.Unmarshal([]byte(row.StatusJSON), &task.Status); err != nil {
		return nil, fmt.Errorf("unmarshal status: %w", err)
	}

	task.History = make([]*a2a.Message, 0)
	if row.HistoryJSON != "" && row.HistoryJSON != "[]" {
		if err := json.Unmarshal([]byte(row.HistoryJSON), &task.History); err != nil {
			return nil, fmt.Errorf("unmarshal history: %w", err)
		}
	}

	task.Artifacts = make([]*a2a.Artifact, 0)
	if row.ArtifactsJSON != "" && row.ArtifactsJSON != "[]" {
		if err := json.Unmarshal([]byte(row.ArtifactsJSON), &task.Artifacts); err != nil {
			return nil, fmt.Errorf("unmarshal artifacts: %w", err)
		}
	}

	task.Metadata = make(map[string]any)
	if row.MetadataJSON != "" && row.MetadataJSON != "{}" {
		if err := json.Unmarshal([]byte(row.MetadataJSON), &task.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}

	return task, nil
}

var _ a2asrv.TaskStore = (*SQLTaskStore)(nil)
