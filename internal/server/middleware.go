// internal/server/middleware.go
package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront/internal/catalog"
	commonerrors "storefront/internal/common/errors"
	"storefront/internal/common/logger"
	"storefront/internal/common/metrics"
	"storefront/internal/search"
)

const (
	HeaderRequestID = "X-Request-ID"
	ctxKeyRequestID = "request_id"
)

// RequestID reuses an incoming X-Request-ID or mints a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(ctxKeyRequestID, rid)
		c.Writer.Header().Set(HeaderRequestID, rid)
		c.Next()
	}
}

func GetRequestID(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyRequestID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// RequestLogger emits one line per request, at warn for 4xx and error for 5xx.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	log = log.WithFields(map[string]interface{}{"component": "http"})
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			path = path + "?" + q
		}

		c.Next()

		status := c.Writer.Status()
		fields := map[string]interface{}{
			"request_id": GetRequestID(c),
			"method":     c.Request.Method,
			"path":       path,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"bytes":      c.Writer.Size(),
			"client_ip":  c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		switch {
		case status >= 500:
			log.Error("http_request", fields)
		case status >= 400:
			log.Warn("http_request", fields)
		default:
			log.Info("http_request", fields)
		}
	}
}

// Recovery turns a panic into an internal error for ErrorHandler to render.
func Recovery(log logger.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		log.Error("panic_recovered", map[string]interface{}{
			"request_id": GetRequestID(c),
			"panic":      fmt.Sprint(recovered),
			"stack":      string(debug.Stack()),
		})
		Fail(c, commonerrors.NewInternalError(fmt.Errorf("panic: %v", recovered)))
	})
}

// Metrics counts requests by matched route and final status.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func WantsJSON(c *gin.Context) bool {
	if strings.Contains(c.GetHeader("Accept"), "application/json") {
		return true
	}
	return strings.HasPrefix(c.Request.URL.Path, "/api/")
}

// Fail records err on the context and stops the handler chain.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ErrorHandler renders the last recorded error unless a response was already
// written: JSON for API callers, the error page otherwise.
// upstreamError maps the search-store sentinels onto their standard codes and
// returns any other error unchanged.
func upstreamError(queryType string, err error) error {
	switch {
	case errors.Is(err, search.ErrSearchFailed), errors.Is(err, catalog.ErrSearchFailed):
		return commonerrors.NewSearchQueryFailedError(queryType, err)
	case errors.Is(err, search.ErrMalformedResults):
		return commonerrors.NewMalformedResponseError(search.BackendName, err)
	}
	return err
}

func ErrorHandler(h *commonerrors.ErrorHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		rid := GetRequestID(c)
		stdErr, status := h.Resolve(c.Request.Context(), rid, upstreamError("request", c.Errors.Last().Err))

		if WantsJSON(c) {
			c.AbortWithStatusJSON(status, gin.H{
				"error":     stdErr,
				"requestId": rid,
			})
			return
		}

		c.Abort()
		c.HTML(status, "error.html", gin.H{
			"title":     fmt.Sprintf("%d %s", status, http.StatusText(status)),
			"message":   stdErr.Message,
			"requestId": rid,
		})
	}
}
