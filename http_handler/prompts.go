package http_handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gopkg.in/guregu/null.v4"

	"promptq/codec"
	"promptq/prompts"
)

type lockRequest struct {
	RowId null.Int    `json:"rowId"`
	LogId null.String `json:"log_id"`
}

type clearRequest struct {
	RowId null.Int `json:"rowId"`
}

type markRequest struct {
	RowIds []null.Int  `json:"rowIds"`
	RowId  null.Int    `json:"rowId"`
	LogId  null.String `json:"log_id"`
}

type insertPrompt struct {
	Topic     string   `json:"topic"`
	Prompt    string   `json:"prompt"`
	Title     string   `json:"title"`
	Keywords  []string `json:"keywords"`
	Keyword1  string   `json:"keyword1"`
	Keyword2  string   `json:"keyword2"`
	Keyword3  string   `json:"keyword3"`
	Keyword4  string   `json:"keyword4"`
	Keyword5  string   `json:"keyword5"`
	Keyword6  string   `json:"keyword6"`
	Keyword7  string   `json:"keyword7"`
	Keyword8  string   `json:"keyword8"`
	Keyword9  string   `json:"keyword9"`
	Keyword10 string   `json:"keyword10"`
}

type insertRequest struct {
	Prompts []insertPrompt `json:"prompts"`
}

// keywords prefers the keywords array and falls back to keyword1..keyword10,
// keeping their positions.
func (p insertPrompt) keywords() []string {
	if len(p.Keywords) > 0 {
		return p.Keywords
	}
	numbered := []string{p.Keyword1, p.Keyword2, p.Keyword3, p.Keyword4, p.Keyword5,
		p.Keyword6, p.Keyword7, p.Keyword8, p.Keyword9, p.Keyword10}
	last := len(numbered)
	for last > 0 && strings.TrimSpace(numbered[last-1]) == "" {
		last--
	}
	return numbered[:last]
}

func bindJSON(c *gin.Context, v any) error {
	if err := codec.JSONUnmarshalRead(c.Request.Body, v); err != nil {
		return &prompts.ValidationError{Field: "body", Reason: err.Error()}
	}
	return nil
}

func rowIdFrom(field string, v null.Int) (int, error) {
	if !v.Valid || v.Int64 <= 0 {
		return 0, &prompts.ValidationError{Field: field, Reason: "must be a positive integer"}
	}
	return int(v.Int64), nil
}

func (h *HTTPHandler) GetNextPrompt(c *gin.Context) {
	batch, err := h.prompts.NextPromptBatch(c.Request.Context())
	if err != nil {
		h.respondError(c, "get_next_prompt", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prompts": batch})
}

func (h *HTTPHandler) MarkPromptLocked(c *gin.Context) {
	var req lockRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, "mark_prompt_locked", err)
		return
	}
	rowId, err := rowIdFrom("rowId", req.RowId)
	if err != nil {
		h.respondError(c, "mark_prompt_locked", err)
		return
	}
	if strings.TrimSpace(req.LogId.String) == "" {
		h.respondError(c, "mark_prompt_locked", &prompts.ValidationError{Field: "log_id", Reason: "required"})
		return
	}

	result, err := h.prompts.Lock(c.Request.Context(), rowId, strings.TrimSpace(req.LogId.String))
	if err != nil {
		h.respondError(c, "mark_prompt_locked", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "success",
		"locked_cells": result.LockedCells,
	})
}

func (h *HTTPHandler) ClearPromptMark(c *gin.Context) {
	var req clearRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, "clear_prompt_mark", err)
		return
	}
	rowId, err := rowIdFrom("rowId", req.RowId)
	if err != nil {
		h.respondError(c, "clear_prompt_mark", err)
		return
	}

	cleared, err := h.prompts.Clear(c.Request.Context(), rowId)
	if err != nil {
		h.respondError(c, "clear_prompt_mark", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "cleared": cleared})
}

func (r markRequest) rowIds() ([]int, error) {
	raw := r.RowIds
	if len(raw) == 0 && r.RowId.Valid {
		raw = []null.Int{r.RowId}
	}
	if len(raw) == 0 {
		return nil, &prompts.ValidationError{Field: "rowIds", Reason: "no rowIds supplied"}
	}
	ids := make([]int, 0, len(raw))
	for i, v := range raw {
		id, err := rowIdFrom("rowIds["+strconv.Itoa(i)+"]", v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (h *HTTPHandler) MarkPromptUsed(c *gin.Context) {
	h.mark(c, "mark_prompt_used", h.prompts.MarkUsed)
}

func (h *HTTPHandler) MarkPromptFailed(c *gin.Context) {
	h.mark(c, "mark_prompt_failed", h.prompts.MarkFailed)
}

func (h *HTTPHandler) mark(c *gin.Context, op string, apply func(ctx context.Context, rowIds []int, logId string) (int, error)) {
	var req markRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, op, err)
		return
	}
	ids, err := req.rowIds()
	if err != nil {
		h.respondError(c, op, err)
		return
	}

	marked, err := apply(c.Request.Context(), ids, strings.TrimSpace(req.LogId.String))
	if err != nil {
		h.respondError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "marked": marked})
}

func (h *HTTPHandler) InsertPrompts(c *gin.Context) {
	var req insertRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, "insert_prompts", err)
		return
	}
	newPrompts := make([]prompts.NewPrompt, 0, len(req.Prompts))
	for _, p := range req.Prompts {
		newPrompts = append(newPrompts, prompts.NewPrompt{
			Topic:    p.Topic,
			Prompt:   p.Prompt,
			Title:    p.Title,
			Keywords: p.keywords(),
		})
	}

	result, err := h.prompts.Insert(c.Request.Context(), newPrompts)
	if err != nil {
		h.respondError(c, "insert_prompts", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":             "success",
		"inserted":           result.Inserted,
		"remaining_unmarked": result.RemainingUnmarked,
		"rowIds":             result.RowIDs,
	})
}

func (h *HTTPHandler) GetPromptStatus(c *gin.Context) {
	status, err := h.prompts.Status(c.Request.Context())
	if err != nil {
		h.respondError(c, "prompt_status", err)
		return
	}
	inWindow := 0
	if h.rateLimiter != nil {
		inWindow = h.rateLimiter.InWindow()
	}
	c.JSON(http.StatusOK, gin.H{
		"total":                status.Total,
		"unused":               status.Unused,
		"locked":               status.Locked,
		"used":                 status.Used,
		"failed":               status.Failed,
		"other":                status.Other,
		"invalid":              status.Invalid,
		"rate_limit_in_window": inWindow,
	})
}

func (h *HTTPHandler) InvalidateCache(c *gin.Context) {
	removed := h.prompts.InvalidateCache()
	requestLog(c).Infof("Cache invalidated, %d entries removed", removed)
	c.JSON(http.StatusOK, gin.H{"status": "success", "removed": removed})
}

func (h *HTTPHandler) GetConsumers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"consumers": h.prompts.Consumers().Snapshot()})
}

func (h *HTTPHandler) GetJournal(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		h.respondError(c, "journal", &prompts.ValidationError{Field: "limit", Reason: "must be a positive integer"})
		return
	}
	entries, err := h.prompts.Journal().Recent(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, "journal", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
