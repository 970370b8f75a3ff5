package http_handler

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"promptq/external"
	"promptq/objectstore"
	"promptq/prompts"
)

const zipContentType = "application/zip"

type driveUploadRequest struct {
	Filepath string `json:"filepath"`
}

func (h *HTTPHandler) uploadPath(name string) string {
	return filepath.Join(h.files.UploadsDir, name)
}

// uniqueName appends a short random suffix when name is already taken.
func (h *HTTPHandler) uniqueName(name string) string {
	if _, err := os.Stat(h.uploadPath(name)); errors.Is(err, fs.ErrNotExist) {
		return name
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s-%s%s", strings.TrimSuffix(name, ext), uuid.NewString()[:8], ext)
}

// mirror pushes an uploaded file to the object store. Failures are reported
// but do not fail the local upload.
func (h *HTTPHandler) mirror(c *gin.Context, name string) string {
	if !h.uploader.Enabled() {
		return ""
	}
	f, err := os.Open(h.uploadPath(name))
	if err != nil {
		requestLog(c).Warnf("Upload: cannot reopen %s for mirroring: %s", name, err)
		return ""
	}
	defer f.Close()

	fileId, err := h.uploader.Upload(c.Request.Context(), name, zipContentType, f)
	if err != nil {
		requestLog(c).Errorf("Upload: mirroring %s failed: %s", name, err)
		external.CaptureError(err, map[string]string{"op": "upload_mirror"})
		return ""
	}
	return fileId
}

func (h *HTTPHandler) UploadZip(c *gin.Context) {
	if h.files.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.files.MaxUploadBytes)
	}
	header, err := c.FormFile("file")
	if err != nil {
		h.fileError(c, "upload", &prompts.ValidationError{Field: "file", Reason: err.Error()})
		return
	}
	name, err := cleanName(header.Filename)
	if err != nil {
		h.fileError(c, "upload", err)
		return
	}
	if err := os.MkdirAll(h.files.UploadsDir, 0o755); err != nil {
		h.fileError(c, "upload", err)
		return
	}
	name = h.uniqueName(name)
	if err := c.SaveUploadedFile(header, h.uploadPath(name)); err != nil {
		h.fileError(c, "upload", err)
		return
	}
	h.statsCollector.IncFileRequests("upload", "ok")
	requestLog(c).Infof("Upload: stored %s (%d bytes)", name, header.Size)

	resp := gin.H{"status": "success", "filename": name}
	if fileId := h.mirror(c, name); fileId != "" {
		resp["file_id"] = fileId
	}
	c.JSON(http.StatusOK, resp)
}

// UploadZipToDrive sends a file that already sits in the uploads directory
// to the object store.
func (h *HTTPHandler) UploadZipToDrive(c *gin.Context) {
	var req driveUploadRequest
	if err := bindJSON(c, &req); err != nil {
		h.fileError(c, "drive_upload", err)
		return
	}
	name, err := cleanName(req.Filepath)
	if err != nil {
		h.fileError(c, "drive_upload", err)
		return
	}
	f, err := os.Open(h.uploadPath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			h.statsCollector.IncFileRequests("drive_upload", "error")
			c.JSON(http.StatusNotFound, errorBody("File not found"))
			return
		}
		h.fileError(c, "drive_upload", err)
		return
	}
	defer f.Close()

	fileId, err := h.uploader.Upload(c.Request.Context(), name, zipContentType, f)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, objectstore.ErrNotConfigured) {
			status = http.StatusServiceUnavailable
		} else {
			external.CaptureError(err, map[string]string{"op": "drive_upload"})
		}
		h.statsCollector.IncFileRequests("drive_upload", "error")
		requestLog(c).Errorf("Drive upload of %s failed: %s", name, err)
		c.JSON(status, errorBody(err.Error()))
		return
	}
	h.statsCollector.IncFileRequests("drive_upload", "ok")
	c.JSON(http.StatusOK, gin.H{"status": "success", "file_id": fileId})
}

func (h *HTTPHandler) ListUploads(c *gin.Context) {
	entries, err := os.ReadDir(h.files.UploadsDir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		h.fileError(c, "list", err)
		return
	}
	names := []string{}
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	h.statsCollector.IncFileRequests("list", "ok")
	c.JSON(http.StatusOK, names)
}

func (h *HTTPHandler) DownloadZip(c *gin.Context) {
	name, err := cleanName(c.Param("filename"))
	if err != nil {
		h.fileError(c, "download", err)
		return
	}
	path := h.uploadPath(name)
	info, err := os.Stat(path)
	if err != nil {
		h.fileError(c, "download", err)
		return
	}
	if !info.Mode().IsRegular() {
		h.fileError(c, "download", fs.ErrNotExist)
		return
	}
	h.statsCollector.IncFileRequests("download", "ok")
	c.Header("Content-Type", zipContentType)
	c.FileAttachment(path, name)
}
