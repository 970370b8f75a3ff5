package http_handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"promptq/external"
	"promptq/objectstore"
	"promptq/prompts"
	"promptq/ratelimit"
	"promptq/stats_collector"
)

const requestIdHeader = "X-Request-Id"

// FileSettings confines the file endpoints to two directories.
type FileSettings struct {
	BaseDir        string
	UploadsDir     string
	MaxUploadBytes int64
}

type HTTPHandler struct {
	prompts        *prompts.Service
	files          FileSettings
	uploader       objectstore.Uploader
	rateLimiter    *ratelimit.RateLimiter
	statsCollector stats_collector.StatsCollector
}

func NewHTTPHandler(promptService *prompts.Service, files FileSettings, uploader objectstore.Uploader, rateLimiter *ratelimit.RateLimiter, statsCollector stats_collector.StatsCollector) *HTTPHandler {
	if uploader == nil {
		uploader = objectstore.NewNoopUploader()
	}
	if statsCollector == nil {
		statsCollector = stats_collector.NewNoopStatsCollector()
	}
	return &HTTPHandler{
		prompts:        promptService,
		files:          files,
		uploader:       uploader,
		rateLimiter:    rateLimiter,
		statsCollector: statsCollector,
	}
}

// RequestId tags every request with an id, reusing one supplied by the caller.
func RequestId() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIdHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIdHeader, id)
		c.Header(requestIdHeader, id)
		c.Next()
	}
}

func requestLog(c *gin.Context) *log.Entry {
	return log.WithFields(log.Fields{
		"request_id": c.GetString(requestIdHeader),
		"path":       c.FullPath(),
	})
}

func errorBody(message string) gin.H {
	return gin.H{"status": "error", "message": message}
}

// statusFor maps the prompts error taxonomy onto HTTP status codes. Schema
// and upstream failures are server errors.
func statusFor(err error) int {
	var notFound *prompts.NotFoundError
	var validation *prompts.ValidationError
	var conflict *prompts.ConflictError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &conflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *HTTPHandler) respondError(c *gin.Context, op string, err error) {
	status := statusFor(err)
	entry := requestLog(c).WithField("op", op)
	if status >= http.StatusInternalServerError {
		var upstreamErr *prompts.UpstreamError
		if errors.As(err, &upstreamErr) {
			entry = entry.WithField("upstream_op", upstreamErr.Op)
		}
		entry.Errorf("%s failed: %s", op, err)
		external.CaptureError(err, map[string]string{
			"op":         op,
			"request_id": c.GetString(requestIdHeader),
		})
	} else {
		entry.Warnf("%s rejected: %s", op, err)
	}
	c.JSON(status, errorBody(err.Error()))
}
