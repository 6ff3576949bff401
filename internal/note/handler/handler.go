package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coscribe/coscribe/internal/models"
	"github.com/coscribe/coscribe/internal/note"
	"github.com/coscribe/coscribe/internal/note/service"
	"github.com/coscribe/coscribe/internal/presence"
	"github.com/coscribe/coscribe/pkg/logger"
)

// Handler exposes the notes API. All access decisions live in the service;
// this layer only binds requests, extracts the verified principal and maps
// the error taxonomy onto status codes.
type Handler struct {
	svc  *service.Service
	pres *presence.Service
}

func New(svc *service.Service, pres *presence.Service) *Handler {
	return &Handler{svc: svc, pres: pres}
}

// Register mounts the routes. authMW must end with a middleware that
// verified the caller and set the principal; the shared-link resolver is
// deliberately outside it.
func (h *Handler) Register(r *gin.Engine, authMW ...gin.HandlerFunc) {
	// anonymous share-link access
	r.GET("/api/notes/shared/:token", h.ResolveShared)

	g := r.Group("/api/notes", authMW...)
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.GET("/:id/history", h.History)
	g.POST("/:id/permissions", h.UpsertPermission)
	g.DELETE("/:id/permissions/:userId", h.RemovePermission)
	g.POST("/:id/share", h.SetShare)
	g.GET("/:id/presence", h.Presence)
}

func principalFrom(c *gin.Context) (models.Principal, bool) {
	v, ok := c.Get("principal")
	if !ok {
		return models.Principal{}, false
	}
	p, ok := v.(models.Principal)
	return p, ok
}

func (h *Handler) List(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
		return
	}
	notes, err := h.svc.List(c.Request.Context(), p)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

func (h *Handler) Create(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
		return
	}
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	n, err := h.svc.Create(c.Request.Context(), p, req.Title, req.Content)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (h *Handler) Get(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
		return
	}
	n, err := h.svc.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// Update is the authoritative debounced write: it records the edit and
// rolls the prior body into history.
func (h *Handler) Update(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
		return
	}
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	n, err := h.svc.RecordEdit(c.Request.Context(), p, c.Param("id"), req.Title, req.Content)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *Handler) Delete(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
		return
	}
	if err := h.svc.Delete(c.Request.Context(), p, c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Note deleted successfully"})
}

func (h *Handler) History(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
		return
	}
	entries, err := h.svc.History(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	if entries == nil {
		entries = []note.HistoryEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) UpsertPermission(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
		return
	}
	var req struct {
		Email string    `json:"email" binding:"required"`
		Role  note.Role `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	n, err := h.svc.UpsertPermission(c.Request.Context(), p, c.Param("id"), req.Email, req.Role)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *Handler) RemovePermission(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
		return
	}
	n, err := h.svc.RemovePermission(c.Request.Context(), p, c.Param("id"), c.Param("userId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// SetShare toggles the public link. The token is only ever returned here,
// on the owner-only path.
func (h *Handler) SetShare(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
		return
	}
	var req struct {
		Shared          bool                 `json:"shared"`
		SharePermission note.SharePermission `json:"sharePermission"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if req.SharePermission == "" {
		req.SharePermission = note.ShareView
	}
	n, err := h.svc.SetShare(c.Request.Context(), p, c.Param("id"), req.Shared, req.SharePermission)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":              n.ID,
		"shared":          n.Shared,
		"sharePermission": n.SharePermission,
		"shareToken":      n.ShareToken,
	})
}

func (h *Handler) ResolveShared(c *gin.Context) {
	view, err := h.svc.ResolveShared(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) Presence(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
		return
	}
	id := c.Param("id")
	// capability check: presence is as sensitive as the note itself
	if _, err := h.svc.Get(c.Request.Context(), p, id); err != nil {
		respondErr(c, err)
		return
	}
	collaborators, err := h.pres.Collaborators(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	if collaborators == nil {
		collaborators = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"noteId": id, "collaborators": collaborators})
}

func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Note not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": "Not authorized"})
	case errors.Is(err, service.ErrTargetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
	case errors.Is(err, service.ErrSelfShare):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Cannot share a note with yourself"})
	case errors.Is(err, service.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid role"})
	default:
		// transient storage failure: generic message, details stay in
		// the log; idempotent callers may retry
		logger.Errorf("notes api: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
	}
}
