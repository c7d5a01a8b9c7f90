package middleware

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fraud-desk/alert_service/pkg/idempotency"
)

type recordingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the recorded response of a request carrying a known
// Idempotency-Key. Keys are scoped to the authenticated analyst. Requests
// without the header pass through, and store failures fail open.
func Idempotency(store *idempotency.Store, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(idempotency.HeaderKey)
		if key == "" || store == nil {
			c.Next()
			return
		}
		if err := idempotency.ValidateKey(key); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"code":    "INVALID_IDEMPOTENCY_KEY",
				"message": err.Error(),
			})
			return
		}

		body, err := idempotency.ReadBody(c.Request.Body, 0)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
			return
		}
		c.Request.Body = readCloser{bytes.NewReader(body)}

		scope := c.GetString("analyst_id")
		hash := idempotency.HashRequest(c.Request.Method, c.Request.URL.Path, body)

		stored, err := store.Get(c.Request.Context(), scope, key)
		if err != nil {
			log.Warn("Idempotency lookup failed, continuing", zap.Error(err))
			c.Next()
			return
		}

		switch idempotency.Decide(stored, hash) {
		case idempotency.Replay:
			c.Header(idempotency.HeaderReplayed, "true")
			c.Data(stored.Status, "application/json; charset=utf-8", stored.Body)
			c.Abort()
			return
		case idempotency.Mismatch:
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
				"code":    "IDEMPOTENCY_KEY_REUSED",
				"message": "Idempotency key was used with a different request",
			})
			return
		}

		w := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		status := w.Status()
		if !idempotency.Cacheable(status) {
			return
		}
		rec := idempotency.Record{RequestHash: hash, Status: status, Body: w.body.Bytes()}
		if err := store.Save(c.Request.Context(), scope, key, rec); err != nil {
			log.Warn("Failed to record idempotent response", zap.Error(err))
		}
	}
}

type readCloser struct {
	*bytes.Reader
}

func (readCloser) Close() error { return nil }
