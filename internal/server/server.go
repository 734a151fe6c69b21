package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/materialkai/vision-gateway/internal/catalog"
	"github.com/materialkai/vision-gateway/internal/chat"
	"github.com/materialkai/vision-gateway/internal/diag"
	"github.com/materialkai/vision-gateway/internal/entities"
	"github.com/materialkai/vision-gateway/internal/ingest"
	"github.com/materialkai/vision-gateway/internal/logging"
	"github.com/materialkai/vision-gateway/internal/search"
)

// Server holds the wired orchestrators. Everything is injected so handlers
// can be tested against mocks.
type Server struct {
	Search   *search.Orchestrator
	Chat     *chat.Orchestrator
	Catalog  *catalog.Catalog
	Detector *ingest.Detector
	Diag     *diag.Recorder
	Log      *logging.Logger
}

func NewServer(
	searchOrch *search.Orchestrator,
	chatOrch *chat.Orchestrator,
	cat *catalog.Catalog,
	detector *ingest.Detector,
	recorder *diag.Recorder,
	log *logging.Logger,
) *Server {
	return &Server{
		Search:   searchOrch,
		Chat:     chatOrch,
		Catalog:  cat,
		Detector: detector,
		Diag:     recorder,
		Log:      log,
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.Health)

	api := r.Group("/api")
	{
		api.POST("/search", s.DoSearch)
		api.POST("/search/filter", s.FilterResults)
		api.GET("/catalog/entities", s.CatalogEntities)

		api.POST("/chat/sessions", s.CreateChatSession)
		api.GET("/chat/sessions/:id", s.GetChatSession)
		api.POST("/chat/sessions/:id/messages", s.SendChatMessage)
		api.GET("/chat/sessions/:id/messages", s.GetChatTranscript)

		api.POST("/products/from-chunks", s.CreateProductsFromChunks)
		api.GET("/diagnostics/events", s.DiagnosticEvents)
	}

	return r
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) DoSearch(c *gin.Context) {
	var q search.Query
	if err := c.ShouldBindJSON(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	results, err := s.Search.Search(c.Request.Context(), q)
	switch {
	case errors.Is(err, search.ErrEmptyQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, search.ErrStale):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		s.Log.Error("search failed", "surface", q.Surface, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "search backend unavailable"})
	default:
		c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
	}
}

type filterRequest struct {
	Results []search.Result  `json:"results"`
	Filters entities.Filters `json:"filters"`
}

// FilterResults re-filters an already fetched result set without another
// backend round trip.
func (s *Server) FilterResults(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	filtered := search.ApplyEntityFilters(req.Results, req.Filters)
	c.JSON(http.StatusOK, gin.H{"results": filtered, "count": len(filtered)})
}

func (s *Server) CatalogEntities(c *gin.Context) {
	workspaceID := c.Query("workspace_id")
	if workspaceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "workspace_id is required"})
		return
	}

	facets, err := s.Catalog.Facets(c.Request.Context(), workspaceID)
	if err != nil {
		s.Log.Error("facet lookup failed", "workspace_id", workspaceID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load catalog entities"})
		return
	}

	c.JSON(http.StatusOK, facets)
}

type createSessionRequest struct {
	WorkspaceID        string `json:"workspace_id"`
	Title              string `json:"title"`
	Mode               string `json:"mode"`
	Model              string `json:"model"`
	EnableRAG          bool   `json:"enable_rag"`
	EnableVisualSearch bool   `json:"enable_visual_search"`
	Enable3DGeneration bool   `json:"enable_3d_generation"`
}

// CreateChatSession accepts only the client-settable fields; id, state and
// last_error are owned by the store.
func (s *Server) CreateChatSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := s.Chat.CreateSession(&chat.Session{
		WorkspaceID:        req.WorkspaceID,
		Title:              req.Title,
		Mode:               req.Mode,
		Model:              req.Model,
		EnableRAG:          req.EnableRAG,
		EnableVisualSearch: req.EnableVisualSearch,
		Enable3DGeneration: req.Enable3DGeneration,
	})
	if err != nil {
		s.Log.Error("session creation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (s *Server) GetChatSession(c *gin.Context) {
	sess, err := s.Chat.Session(c.Param("id"))
	if err != nil {
		s.chatError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

type sendMessageRequest struct {
	Content     string            `json:"content"`
	Attachments []chat.Attachment `json:"attachments"`
}

func (s *Server) SendChatMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	reply, err := s.Chat.SendMessage(c.Request.Context(), c.Param("id"), req.Content, req.Attachments)
	if err != nil {
		s.chatError(c, err)
		return
	}

	c.JSON(http.StatusOK, reply)
}

func (s *Server) GetChatTranscript(c *gin.Context) {
	messages, err := s.Chat.Transcript(c.Param("id"))
	if err != nil {
		s.chatError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages, "count": len(messages)})
}

func (s *Server) chatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, chat.ErrEmptyTurn):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.Log.Error("chat turn failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "chat backend unavailable"})
	}
}

func (s *Server) CreateProductsFromChunks(c *gin.Context) {
	if s.Detector == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "product detection requires a configured LLM provider"})
		return
	}

	var req ingest.DetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := s.Detector.CreateFromChunks(c.Request.Context(), req)
	if err != nil {
		if req.DocumentID == "" || req.WorkspaceID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.Log.Error("product detection failed", "document_id", req.DocumentID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "product detection failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) DiagnosticEvents(c *gin.Context) {
	n := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		n = parsed
	}

	events := s.Diag.Recent(n)
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}
