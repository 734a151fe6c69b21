package chat

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Store persists sessions and their append-only message log in SQLite.
type Store struct {
	db *sql.DB
}

func NewStore(dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open chat database: %w", err)
	}
	// A single connection keeps in-memory databases coherent and sidesteps
	// SQLite write contention.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping chat database: %w", err)
	}

	s := &Store{db: db}
	if err = s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize chat schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS sessions (
        id TEXT PRIMARY KEY, -- UUID
        workspace_id TEXT NOT NULL,
        title TEXT NOT NULL DEFAULT '',
        state TEXT NOT NULL DEFAULT 'idle',
        mode TEXT NOT NULL DEFAULT '',
        model TEXT NOT NULL DEFAULT '',
        enable_rag BOOLEAN NOT NULL DEFAULT FALSE,
        enable_visual_search BOOLEAN NOT NULL DEFAULT FALSE,
        enable_3d_generation BOOLEAN NOT NULL DEFAULT FALSE,
        last_error TEXT NOT NULL DEFAULT '',
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS messages (
        seq INTEGER PRIMARY KEY AUTOINCREMENT,
        id TEXT UNIQUE NOT NULL, -- UUID
        session_id TEXT NOT NULL,
        role TEXT NOT NULL CHECK (role IN ('user', 'assistant', 'system')),
        content TEXT NOT NULL,
        attachments_json TEXT NOT NULL DEFAULT '',
        metadata_json TEXT NOT NULL DEFAULT '',
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (session_id) REFERENCES sessions (id)
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) CreateSession(sess *Session) error {
	if sess.ID == "" {
		sess.ID = uuid.New().String()
	}
	if sess.State == "" {
		sess.State = StateIdle
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`INSERT INTO sessions
		(id, workspace_id, title, state, mode, model, enable_rag, enable_visual_search, enable_3d_generation, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.WorkspaceID, sess.Title, string(sess.State), sess.Mode, sess.Model,
		sess.EnableRAG, sess.EnableVisualSearch, sess.Enable3DGeneration, sess.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(id string) (*Session, error) {
	var sess Session
	var state string
	err := s.db.QueryRow(`SELECT id, workspace_id, title, state, mode, model,
		enable_rag, enable_visual_search, enable_3d_generation, last_error, created_at
		FROM sessions WHERE id = ?`, id).Scan(
		&sess.ID, &sess.WorkspaceID, &sess.Title, &state, &sess.Mode, &sess.Model,
		&sess.EnableRAG, &sess.EnableVisualSearch, &sess.Enable3DGeneration,
		&sess.LastError, &sess.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	sess.State = State(state)
	return &sess, nil
}

func (s *Store) SetSessionState(id string, state State, lastError string) error {
	_, err := s.db.Exec("UPDATE sessions SET state = ?, last_error = ? WHERE id = ?",
		string(state), lastError, id)
	if err != nil {
		return fmt.Errorf("failed to update session state: %w", err)
	}
	return nil
}

func (s *Store) SetSessionTitle(id, title string) error {
	_, err := s.db.Exec("UPDATE sessions SET title = ? WHERE id = ?", title, id)
	if err != nil {
		return fmt.Errorf("failed to update session title: %w", err)
	}
	return nil
}

// AppendMessage inserts a message. There is deliberately no update path.
func (s *Store) AppendMessage(m *Message) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	attachments := ""
	if len(m.Attachments) > 0 {
		raw, err := json.Marshal(m.Attachments)
		if err != nil {
			return fmt.Errorf("failed to encode attachments: %w", err)
		}
		attachments = string(raw)
	}
	metadata := ""
	if len(m.Metadata) > 0 {
		raw, err := json.Marshal(m.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
		metadata = string(raw)
	}

	_, err := s.db.Exec(`INSERT INTO messages
		(id, session_id, role, content, attachments_json, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.SessionID, string(m.Role), m.Content, attachments, metadata, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// Messages returns the full transcript in append order.
func (s *Store) Messages(sessionID string) ([]Message, error) {
	rows, err := s.db.Query(`SELECT id, session_id, role, content, attachments_json, metadata_json, created_at
		FROM messages WHERE session_id = ? ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// LastMessages returns the trailing n messages in chronological order.
func (s *Store) LastMessages(sessionID string, n int) ([]Message, error) {
	rows, err := s.db.Query(`SELECT id, session_id, role, content, attachments_json, metadata_json, created_at
		FROM messages WHERE session_id = ? ORDER BY seq DESC LIMIT ?`, sessionID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	msgs, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	// Reverse back into chronological order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	var msgs []Message
	for rows.Next() {
		var m Message
		var role, attachments, metadata string
		if err := rows.Scan(&m.ID, &m.SessionID, &role, &m.Content, &attachments, &metadata, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Role = Role(role)
		if attachments != "" {
			if err := json.Unmarshal([]byte(attachments), &m.Attachments); err != nil {
				return nil, fmt.Errorf("failed to decode attachments for message %s: %w", m.ID, err)
			}
		}
		if metadata != "" {
			if err := json.Unmarshal([]byte(metadata), &m.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata for message %s: %w", m.ID, err)
			}
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
