package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/materialkai/vision-gateway/internal/config"
	"github.com/materialkai/vision-gateway/internal/diag"
	"github.com/materialkai/vision-gateway/internal/functions"
	"github.com/materialkai/vision-gateway/internal/llm"
	"github.com/materialkai/vision-gateway/internal/logging"
	"github.com/materialkai/vision-gateway/internal/search"
)

// spatialKeywords trigger a best-effort 3D generation call when they appear
// in an assistant reply.
var spatialKeywords = []string{"interior", "room", "layout", "floor plan", "space"}

var (
	ErrSessionNotFound = errors.New("chat session not found")
	ErrEmptyTurn       = errors.New("message requires text or an attachment")
)

const enrichmentLimit = 5

// Orchestrator runs one chat turn end to end: enrich, dispatch to the
// multi-agent endpoint with a single-tier fallback, append the reply.
type Orchestrator struct {
	store    *Store
	invoker  functions.Invoker
	fn       config.FunctionNames
	llm      llm.LLMClient      // optional, titles only
	embedder llm.EmbedderClient // optional, similarity enrichment
	diag     *diag.Recorder
	log      *logging.Logger

	historyWindow int
}

func NewOrchestrator(
	store *Store,
	invoker functions.Invoker,
	fn config.FunctionNames,
	chatCfg config.ChatConfig,
	llmClient llm.LLMClient,
	embedder llm.EmbedderClient,
	recorder *diag.Recorder,
	log *logging.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:         store,
		invoker:       invoker,
		fn:            fn,
		llm:           llmClient,
		embedder:      embedder,
		diag:          recorder,
		log:           log,
		historyWindow: chatCfg.HistoryWindow,
	}
}

func (o *Orchestrator) CreateSession(sess *Session) (*Session, error) {
	if err := o.store.CreateSession(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (o *Orchestrator) Session(id string) (*Session, error) {
	sess, err := o.store.GetSession(id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session '%s': %w", id, ErrSessionNotFound)
	}
	return sess, nil
}

func (o *Orchestrator) Transcript(sessionID string) ([]Message, error) {
	if _, err := o.Session(sessionID); err != nil {
		return nil, err
	}
	return o.store.Messages(sessionID)
}

// SendMessage runs a full turn. Enrichment failures degrade silently (with a
// diagnostic event); a primary dispatch failure triggers exactly one
// fallback call; the session always returns to idle.
func (o *Orchestrator) SendMessage(ctx context.Context, sessionID, content string, attachments []Attachment) (*Message, error) {
	if content == "" && len(attachments) == 0 {
		return nil, ErrEmptyTurn
	}

	sess, err := o.store.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session '%s': %w", sessionID, ErrSessionNotFound)
	}

	userMsg := &Message{
		SessionID:   sessionID,
		Role:        RoleUser,
		Content:     content,
		Attachments: attachments,
	}
	if err := o.store.AppendMessage(userMsg); err != nil {
		return nil, err
	}

	if err := o.store.SetSessionState(sessionID, StateAwaiting, ""); err != nil {
		return nil, err
	}

	reply, tier, err := o.dispatch(ctx, sess, userMsg)
	if err != nil {
		if stateErr := o.store.SetSessionState(sessionID, StateIdle, err.Error()); stateErr != nil {
			o.log.Error("failed to record turn failure", "session_id", sessionID, "error", stateErr)
		}
		return nil, err
	}

	assistantMsg := &Message{
		SessionID: sessionID,
		Role:      RoleAssistant,
		Content:   reply,
		Metadata:  map[string]interface{}{"tier": tier},
	}
	if err := o.store.AppendMessage(assistantMsg); err != nil {
		if stateErr := o.store.SetSessionState(sessionID, StateIdle, err.Error()); stateErr != nil {
			o.log.Error("failed to record turn failure", "session_id", sessionID, "error", stateErr)
		}
		return nil, err
	}

	if sess.Enable3DGeneration && containsSpatialKeyword(reply) {
		o.trigger3DGeneration(ctx, sess, reply)
	}

	if o.llm != nil && sess.Title == "" {
		go o.generateAndSaveTitle(sessionID, content)
	}

	if err := o.store.SetSessionState(sessionID, StateIdle, ""); err != nil {
		o.log.Error("failed to reset session state", "session_id", sessionID, "error", err)
	}

	return assistantMsg, nil
}

// dispatch assembles the turn payload and calls the hybrid agent endpoint,
// falling back once to the simple agent endpoint with the same payload.
func (o *Orchestrator) dispatch(ctx context.Context, sess *Session, userMsg *Message) (reply, tier string, err error) {
	payload := o.assemblePayload(ctx, sess, userMsg)

	resp, primaryErr := o.invoker.Invoke(ctx, o.fn.MaterialAgent, payload)
	if primaryErr == nil {
		reply, err = parseAgentReply(resp)
		if err == nil {
			return reply, "primary", nil
		}
		primaryErr = err
	}
	o.diag.Record("chat", "primary_dispatch", primaryErr)

	resp, fallbackErr := o.invoker.Invoke(ctx, o.fn.SimpleAgent, payload)
	if fallbackErr != nil {
		return "", "", fmt.Errorf("agent dispatch failed (primary: %v): %w", primaryErr, fallbackErr)
	}
	reply, err = parseAgentReply(resp)
	if err != nil {
		return "", "", fmt.Errorf("agent dispatch failed (primary: %v): %w", primaryErr, err)
	}
	return reply, "fallback", nil
}

func (o *Orchestrator) assemblePayload(ctx context.Context, sess *Session, userMsg *Message) map[string]interface{} {
	window, err := o.store.LastMessages(sess.ID, o.historyWindow)
	if err != nil {
		o.diag.Record("chat", "history_window", err)
		window = []Message{*userMsg}
	}

	messages := make([]map[string]interface{}, 0, len(window))
	for _, m := range window {
		messages = append(messages, map[string]interface{}{
			"role":    string(m.Role),
			"content": m.Content,
		})
	}

	payload := map[string]interface{}{
		"session_id": sess.ID,
		"messages":   messages,
		"options": map[string]interface{}{
			"model": sess.Model,
			"mode":  sess.Mode,
		},
	}
	if img := userMsg.imageAttachment(); img != "" {
		payload["image"] = img
	}

	if enrichment := o.enrich(ctx, sess, userMsg); len(enrichment) > 0 {
		payload["context"] = enrichment
	}
	return payload
}

// enrich runs the optional pre-dispatch searches sequentially. Every step is
// independently best-effort: a failure is recorded and the turn proceeds.
func (o *Orchestrator) enrich(ctx context.Context, sess *Session, userMsg *Message) map[string]interface{} {
	enrichment := make(map[string]interface{})

	if sess.EnableRAG && userMsg.Content != "" {
		resp, err := o.invoker.Invoke(ctx, o.fn.RAGSearch, map[string]interface{}{
			"query":       userMsg.Content,
			"match_count": enrichmentLimit,
		})
		if err != nil {
			o.diag.Record("chat", "rag_enrichment", err)
		} else if snippets := enrichmentSnippets(resp, search.ModeText); len(snippets) > 0 {
			enrichment["knowledge"] = snippets
		}
	}

	if sess.EnableVisualSearch {
		if img := userMsg.imageAttachment(); img != "" {
			resp, err := o.invoker.Invoke(ctx, o.fn.VisualSearch, map[string]interface{}{
				"image":       img,
				"match_count": enrichmentLimit,
			})
			if err != nil {
				o.diag.Record("chat", "visual_enrichment", err)
			} else if snippets := enrichmentSnippets(resp, search.ModeVisual); len(snippets) > 0 {
				enrichment["visual_matches"] = snippets
			}
		}
	}

	if sess.Mode == "similarity" && userMsg.Content != "" {
		payload := map[string]interface{}{
			"query":       userMsg.Content,
			"match_count": enrichmentLimit,
		}
		if o.embedder != nil {
			if vec, err := o.embedder.Embed(ctx, userMsg.Content); err == nil {
				payload["query_embedding"] = vec
			} else {
				o.diag.Record("chat", "similarity_embedding", err)
			}
		}
		resp, err := o.invoker.Invoke(ctx, o.fn.VectorSimilarity, payload)
		if err != nil {
			o.diag.Record("chat", "similarity_enrichment", err)
		} else if snippets := enrichmentSnippets(resp, search.ModeSimilarity); len(snippets) > 0 {
			enrichment["similar_content"] = snippets
		}
	}

	return enrichment
}

func (o *Orchestrator) trigger3DGeneration(ctx context.Context, sess *Session, reply string) {
	_, err := o.invoker.Invoke(ctx, o.fn.Generation3D, map[string]interface{}{
		"session_id": sess.ID,
		"prompt":     reply,
	})
	if err != nil {
		o.diag.Record("chat", "3d_generation", err)
	}
}

func (o *Orchestrator) generateAndSaveTitle(sessionID, basisContent string) {
	prompt := fmt.Sprintf("Generate a short title (max 6 words) for a conversation that starts with:\n\n%s\n\nOutput only the title.", basisContent)
	title, err := o.llm.Generate(context.Background(), prompt)
	if err != nil {
		o.log.Warn("failed to generate session title", "session_id", sessionID, "error", err)
		return
	}
	title = strings.Trim(title, "\"'\n\r\t .")
	if title == "" {
		return
	}
	if err := o.store.SetSessionTitle(sessionID, title); err != nil {
		o.log.Warn("failed to save session title", "session_id", sessionID, "error", err)
	}
}

// enrichmentSnippets flattens a strategy response into "title: content"
// strings through the canonical normalizer.
func enrichmentSnippets(resp *functions.Response, mode search.Mode) []string {
	results, err := search.Normalize(resp, mode, enrichmentLimit)
	if err != nil {
		return nil
	}
	snippets := make([]string, 0, len(results))
	for _, r := range results {
		snippets = append(snippets, r.Title+": "+r.Content)
	}
	return snippets
}

// parseAgentReply resolves the reply text from the agent envelope. Agent
// functions have answered under several field names over time; this is the
// one place that knows them all.
func parseAgentReply(resp *functions.Response) (string, error) {
	if resp == nil || resp.Data == nil {
		return "", fmt.Errorf("agent returned an empty envelope")
	}
	for _, key := range []string{"response", "message", "content", "answer"} {
		if s, ok := resp.Data[key].(string); ok && s != "" {
			return s, nil
		}
	}
	return "", fmt.Errorf("agent envelope has no reply field")
}

func containsSpatialKeyword(reply string) bool {
	lower := strings.ToLower(reply)
	for _, kw := range spatialKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
