package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"promptq/config"
)

func TestAuthRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	previous := config.Config.ApiSecret
	defer func() { config.Config.ApiSecret = previous }()
	config.Config.ApiSecret = "s3cret"

	r := gin.New()
	r.GET("/health", GetHealth)
	r.GET("/protected", AuthRequired(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	tests := []struct {
		name   string
		path   string
		secret string
		status int
	}{
		{"health is open", "/health", "", http.StatusOK},
		{"missing secret", "/protected", "", http.StatusUnauthorized},
		{"wrong secret", "/protected", "nope", http.StatusUnauthorized},
		{"correct secret", "/protected", "s3cret", http.StatusNoContent},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, test.path, nil)
			if test.secret != "" {
				req.Header.Set(secretHeader, test.secret)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != test.status {
				t.Errorf("expected %d, got %d", test.status, w.Code)
			}
		})
	}
}

func TestPlainFormatter(t *testing.T) {
	f := &PlainFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		LevelDesc:       []string{"PANC", "FATL", "ERRO", "WARN", "INFO", "DEBG", "TRCE"},
	}
	entry := &log.Entry{
		Time:    time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
		Level:   log.WarnLevel,
		Message: "lock failed",
		Data:    log.Fields{"request_id": "abc", "op": "lock"},
	}
	out, err := f.Format(entry)
	if err != nil {
		t.Fatal(err)
	}
	expected := "WARN 2024-03-01 12:30:00 lock failed op=lock request_id=abc\n"
	if string(out) != expected {
		t.Errorf("expected %q, got %q", expected, string(out))
	}
	if !strings.HasSuffix(string(out), "\n") {
		t.Error("missing newline")
	}
}
