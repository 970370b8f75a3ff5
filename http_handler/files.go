package http_handler

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"promptq/prompts"
)

type saveRequest struct {
	Content string `json:"content"`
}

// cleanName reduces a path parameter to a plain file name.
func cleanName(raw string) (string, error) {
	name := filepath.Base(filepath.Clean("/" + raw))
	if name == "/" || name == "." || name == ".." {
		return "", &prompts.ValidationError{Field: "filename", Reason: "invalid file name"}
	}
	return name, nil
}

func (h *HTTPHandler) fileError(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, fs.ErrNotExist):
		status = http.StatusNotFound
	case statusFor(err) == http.StatusBadRequest:
		status = http.StatusBadRequest
	}
	h.statsCollector.IncFileRequests(op, "error")
	requestLog(c).Warnf("%s failed: %s", op, err)
	c.JSON(status, errorBody(err.Error()))
}

func (h *HTTPHandler) LoadFile(c *gin.Context) {
	name, err := cleanName(c.Param("filename"))
	if err != nil {
		h.fileError(c, "load", err)
		return
	}
	content, err := os.ReadFile(filepath.Join(h.files.BaseDir, name))
	if err != nil {
		h.fileError(c, "load", err)
		return
	}
	h.statsCollector.IncFileRequests("load", "ok")
	c.JSON(http.StatusOK, gin.H{"status": "success", "content": string(content)})
}

func (h *HTTPHandler) SaveFile(c *gin.Context) {
	name, err := cleanName(c.Param("filename"))
	if err != nil {
		h.fileError(c, "save", err)
		return
	}
	var req saveRequest
	if err := bindJSON(c, &req); err != nil {
		h.fileError(c, "save", err)
		return
	}
	if err := os.WriteFile(filepath.Join(h.files.BaseDir, name), []byte(req.Content), 0o644); err != nil {
		h.fileError(c, "save", err)
		return
	}
	h.statsCollector.IncFileRequests("save", "ok")
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": name + " saved successfully!"})
}
