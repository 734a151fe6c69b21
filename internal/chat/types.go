package chat

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// State is the per-session dispatch state. A session is awaiting_response
// only while a turn is in flight; every outcome returns it to idle.
type State string

const (
	StateIdle     State = "idle"
	StateAwaiting State = "awaiting_response"
)

// Session holds the per-conversation configuration the orchestrator reads on
// every turn.
type Session struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Title       string    `json:"title,omitempty"`
	State       State     `json:"state"`
	// Mode "similarity" switches the session's enrichment to vector
	// similarity search.
	Mode               string    `json:"mode,omitempty"`
	Model              string    `json:"model,omitempty"`
	EnableRAG          bool      `json:"enable_rag"`
	EnableVisualSearch bool      `json:"enable_visual_search"`
	Enable3DGeneration bool      `json:"enable_3d_generation"`
	LastError          string    `json:"last_error,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// Attachment rides along with a message. Kind "image" carries a base64
// payload used by visual search.
type Attachment struct {
	Kind string `json:"kind"`
	Data string `json:"data"`
}

// Message is one turn entry. Messages are append-only: never mutated after
// insertion, only added.
type Message struct {
	ID          string                 `json:"id"`
	SessionID   string                 `json:"session_id"`
	Role        Role                   `json:"role"`
	Content     string                 `json:"content"`
	Attachments []Attachment           `json:"attachments,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"timestamp"`
}

func (m *Message) imageAttachment() string {
	for _, a := range m.Attachments {
		if a.Kind == "image" && a.Data != "" {
			return a.Data
		}
	}
	return ""
}
