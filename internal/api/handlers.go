// Package api wires HTTP routes to the document, chat and summary
// services.
package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"docuchat/internal/auth"
	"docuchat/internal/models"
	"docuchat/internal/service/chat"
	"docuchat/internal/service/file"
	"docuchat/internal/service/summary"
	"docuchat/internal/summarizer"
)

const uploadSecretHeader = "X-Upload-Secret"

// Handler wires HTTP routes to the backend services.
type Handler struct {
	files        *file.Service
	chat         *chat.Service
	summaries    *summary.Service
	auth         *auth.Service
	uploadSecret string
}

// NewHandler constructs a Handler instance.
func NewHandler(files *file.Service, chatService *chat.Service, summaries *summary.Service, authService *auth.Service, uploadSecret string) *Handler {
	return &Handler{
		files:        files,
		chat:         chatService,
		summaries:    summaries,
		auth:         authService,
		uploadSecret: uploadSecret,
	}
}

func (h *Handler) authorizedUserID(c *gin.Context) (int64, bool) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok || userID <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return 0, false
	}
	return userID, true
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.POST("/uploads/complete", h.uploadComplete)

	authed := api.Group("")
	authed.Use(h.auth.Middleware())
	authed.GET("/files", h.listFiles)
	authed.POST("/files/lookup", h.lookupFile)
	authed.GET("/files/:id/status", h.fileStatus)
	authed.DELETE("/files/:id", h.deleteFile)
	authed.POST("/message", h.sendMessage)
	authed.GET("/messages", h.listMessages)
	authed.GET("/summaries", h.listSummaries)
	authed.POST("/summaries", h.createSummary)
}

// Upload completion interface. The storage frontend calls this after a
// direct-to-storage upload finishes; it authenticates with a shared
// secret instead of a user token.
type uploadCompleteRequest struct {
	UserID     int64  `json:"user_id"`
	Name       string `json:"name"`
	StorageKey string `json:"storage_key"`
	SourceURL  string `json:"source_url"`
}

func (h *Handler) uploadComplete(c *gin.Context) {
	if h.uploadSecret == "" || c.GetHeader(uploadSecretHeader) != h.uploadSecret {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}
	var req uploadCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.UserID <= 0 || strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.StorageKey) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id, name and storage_key are required"})
		return
	}

	f, err := h.files.Accept(c.Request.Context(), req.UserID, req.Name, req.StorageKey, req.SourceURL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, f)
}

func (h *Handler) listFiles(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	files, err := h.files.ListFiles(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (h *Handler) lookupFile(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	var req struct {
		StorageKey string `json:"storage_key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.StorageKey) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "storage_key is required"})
		return
	}
	f, err := h.files.GetFileByKey(c.Request.Context(), userID, req.StorageKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *Handler) fileStatus(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	fileID := c.Param("id")
	status, err := h.files.GetStatus(c.Request.Context(), userID, fileID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": fileID, "upload_status": status})
}

func (h *Handler) deleteFile(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	if err := h.files.DeleteFile(c.Request.Context(), userID, c.Param("id")); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// User input interface
type messageRequest struct {
	FileID  string `json:"file_id"`
	Message string `json:"message"`
}

func (h *Handler) sendMessage(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.FileID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_id is required"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	// resolve the file before committing to the event stream so missing
	// or foreign files still get a plain 404
	if _, err := h.files.GetFile(c.Request.Context(), userID, req.FileID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	streamCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Minute)
	defer cancel()
	// SSE Request construction
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	sendEvent := func(event string, payload interface{}) error {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		if event != "" {
			if _, err := fmt.Fprintf(c.Writer, "event: %s\n", event); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	userMsg, aiMsg, err := h.chat.StreamTurn(streamCtx, userID, req.FileID, req.Message,
		func(msg *models.Message) error {
			return sendEvent("ack", gin.H{"message": msg})
		},
		func(chunk string) error {
			return sendEvent("stream", gin.H{"content": chunk})
		})
	if err != nil {
		msg := err.Error()
		if errors.Is(err, sql.ErrNoRows) {
			msg = "file not found"
		}
		_ = sendEvent("error", gin.H{"message": msg})
		return
	}
	_ = sendEvent("done", gin.H{
		"user_message": userMsg,
		"ai_message":   aiMsg,
	})
}

func (h *Handler) listMessages(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	fileID := c.Query("file_id")
	if fileID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_id is required"})
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}
	var cursor int64
	if v := c.Query("cursor"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cursor"})
			return
		}
		cursor = n
	}

	page, err := h.chat.PageMessages(c.Request.Context(), fileID, userID, limit, cursor)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) listSummaries(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	fileID := c.Query("file_id")
	if fileID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_id is required"})
		return
	}
	summaries, err := h.summaries.ListSummaries(c.Request.Context(), userID, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summaries": summaries})
}

type summaryRequest struct {
	FileID          string `json:"file_id"`
	URL             string `json:"url"`
	TextToSummarize string `json:"text_to_summarize"`
}

func (h *Handler) createSummary(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	var req summaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.FileID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_id is required"})
		return
	}
	if strings.TrimSpace(req.URL) == "" && strings.TrimSpace(req.TextToSummarize) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url or text_to_summarize is required"})
		return
	}

	res, err := h.summaries.Summarize(c.Request.Context(), userID, req.FileID, summarizer.Request{
		SourceURL: req.URL,
		Text:      req.TextToSummarize,
	})
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		case errors.Is(err, summarizer.ErrJobFailed):
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		case errors.Is(err, context.DeadlineExceeded):
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "summarization timed out"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	resp := gin.H{"summary": res.Text, "is_too_long": res.TooLong}
	if res.Summary != nil {
		resp["id"] = res.Summary.ID
		resp["created_at"] = res.Summary.CreatedAt
	}
	c.JSON(http.StatusOK, resp)
}
