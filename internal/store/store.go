package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Store wraps the Postgres handle for conversation state and call auditing.
type Store struct {
	DB *sql.DB
}

// ConversationRecord is one durable thread row.
type ConversationRecord struct {
	ThreadID     string
	UserID       string
	CreatedAt    time.Time
	LastActivity time.Time
}

// MessageRecord is a single persisted chat message.
type MessageRecord struct {
	ID        int64
	ThreadID  string
	Role      string
	Content   string
	CreatedAt time.Time
}

// ToolEventRecord audits one backend call attempt made on behalf of a thread.
type ToolEventRecord struct {
	ID             int64
	ThreadID       string
	UserID         string
	ToolName       string
	Endpoint       string
	Operation      string
	RequestPayload json.RawMessage
	ResponseStatus int
	Success        bool
	DurationMs     int64
	ErrorText      string
	CreatedAt      time.Time
}

// AgentRunRecord audits one completed agent turn.
type AgentRunRecord struct {
	ID            int64
	ThreadID      string
	UserID        string
	Agent         string
	PromptChars   int
	ResponseChars int
	ToolCalls     int
	Success       bool
	DurationMs    int64
	ErrorText     string
	CreatedAt     time.Time
}

// OpsMetrics aggregates call and run activity over a rolling window.
type OpsMetrics struct {
	ToolCalls     int64   `json:"tool_calls"`
	ToolFailures  int64   `json:"tool_failures"`
	AgentRuns     int64   `json:"agent_runs"`
	RunFailures   int64   `json:"run_failures"`
	AvgRunMs      float64 `json:"avg_run_ms"`
	Conversations int64   `json:"conversations"`
}

// NewWithDSN constructs the Store using an explicit Postgres DSN.
// DSN assembly lives in the config package; there is no env-reading path.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// Conversation operations

func (s *Store) UpsertConversation(ctx context.Context, threadID, userID string) error {
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO conversations (thread_id, user_id, created_at, last_activity)
VALUES ($1,$2,NOW(),NOW())
ON CONFLICT (thread_id) DO UPDATE SET last_activity = NOW()`, threadID, userID)
	return err
}

func (s *Store) ConversationExists(ctx context.Context, threadID string) (bool, error) {
	var one int
	err := s.DB.QueryRowContext(ctx, `SELECT 1 FROM conversations WHERE thread_id=$1`, threadID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) TouchConversation(ctx context.Context, threadID string) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE conversations SET last_activity = NOW() WHERE thread_id=$1`, threadID)
	return err
}

// DeleteConversation removes the thread row; messages cascade. Returns
// whether a row existed.
func (s *Store) DeleteConversation(ctx context.Context, threadID string) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM conversations WHERE thread_id=$1`, threadID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Message operations

func (s *Store) AppendMessage(ctx context.Context, threadID, role, content string) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO messages (thread_id, role, content, created_at) VALUES ($1,$2,$3,NOW())`,
		threadID, role, content)
	return err
}

// RecentMessages returns up to limit of the newest messages for a thread in
// chronological order. The query fetches newest-first so the limit clips old
// history, then the slice is reversed for the caller.
func (s *Store) RecentMessages(ctx context.Context, threadID string, limit int) ([]MessageRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, thread_id, role, content, created_at
FROM messages WHERE thread_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2`, threadID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MessageRecord
	for rows.Next() {
		var m MessageRecord
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *Store) MessageCount(ctx context.Context, threadID string) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE thread_id=$1`, threadID).Scan(&n)
	return n, err
}

// Audit operations

func (s *Store) AppendToolEvent(ctx context.Context, rec ToolEventRecord) error {
	payload := rec.RequestPayload
	if payload == nil {
		payload = json.RawMessage(`{}`)
	}
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO tool_events (thread_id, user_id, tool_name, endpoint, operation, request_payload, response_status, success, duration_ms, error_text, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW())`,
		rec.ThreadID, rec.UserID, rec.ToolName, rec.Endpoint, rec.Operation,
		[]byte(payload), rec.ResponseStatus, rec.Success, rec.DurationMs, rec.ErrorText)
	return err
}

func (s *Store) AppendAgentRun(ctx context.Context, rec AgentRunRecord) error {
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO agent_runs (thread_id, user_id, agent, prompt_chars, response_chars, tool_calls, success, duration_ms, error_text, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW())`,
		rec.ThreadID, rec.UserID, rec.Agent, rec.PromptChars, rec.ResponseChars,
		rec.ToolCalls, rec.Success, rec.DurationMs, rec.ErrorText)
	return err
}

// Metrics24h aggregates tool and run activity over the trailing 24 hours.
func (s *Store) Metrics24h(ctx context.Context) (OpsMetrics, error) {
	var m OpsMetrics
	err := s.DB.QueryRowContext(ctx, `
SELECT COUNT(*), COUNT(*) FILTER (WHERE NOT success)
FROM tool_events WHERE created_at > NOW() - INTERVAL '24 hours'`).
		Scan(&m.ToolCalls, &m.ToolFailures)
	if err != nil {
		return m, err
	}
	var avg sql.NullFloat64
	err = s.DB.QueryRowContext(ctx, `
SELECT COUNT(*), COUNT(*) FILTER (WHERE NOT success), COALESCE(AVG(duration_ms), 0)
FROM agent_runs WHERE created_at > NOW() - INTERVAL '24 hours'`).
		Scan(&m.AgentRuns, &m.RunFailures, &avg)
	if err != nil {
		return m, err
	}
	if avg.Valid {
		m.AvgRunMs = avg.Float64
	}
	err = s.DB.QueryRowContext(ctx, `
SELECT COUNT(*) FROM conversations WHERE last_activity > NOW() - INTERVAL '24 hours'`).
		Scan(&m.Conversations)
	return m, err
}

// PruneIdle deletes conversations whose last activity is older than the
// cutoff. Messages cascade with the conversation rows. Returns the number
// of conversations removed.
func (s *Store) PruneIdle(ctx context.Context, cutoff time.Time) (int64, error) {
	if cutoff.IsZero() {
		return 0, fmt.Errorf("prune cutoff must be provided")
	}
	res, err := s.DB.ExecContext(ctx, `DELETE FROM conversations WHERE last_activity < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
