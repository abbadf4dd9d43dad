package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Lmagalhaesz/classly/internal/core/domain"
)

const (
	// TraceIDHeader is the HTTP header name for trace ID.
	TraceIDHeader = "X-Trace-ID"
	// TraceIDKey is the context key for trace ID.
	TraceIDKey = "trace_id"
	// UserIDKey is the context key for the authenticated user ID.
	UserIDKey = "user_id"
)

// RequestContext holds request-scoped information.
type RequestContext struct {
	TraceID   string
	UserID    string
	IP        string
	UserAgent string
}

// EnrichContext adds a trace ID and the device fingerprint to each request.
// Requests arriving without a user agent or resolvable IP get the fallback
// labels, so session records never hold empty fingerprint fields.
func EnrichContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		c.Set(TraceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)

		reqCtx := &RequestContext{
			TraceID:   traceID,
			IP:        clientIP(c),
			UserAgent: userAgent(c),
		}
		c.Set("request_context", reqCtx)

		c.Next()
	}
}

// clientIP prefers the first X-Forwarded-For entry over the socket address.
func clientIP(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return domain.UnknownIP
}

func userAgent(c *gin.Context) string {
	if ua := strings.TrimSpace(c.Request.UserAgent()); ua != "" {
		return ua
	}
	return domain.UnknownUserAgent
}

// GetTraceID retrieves the trace ID from the context.
func GetTraceID(c *gin.Context) string {
	if traceID, exists := c.Get(TraceIDKey); exists {
		if id, ok := traceID.(string); ok {
			return id
		}
	}
	return ""
}

// GetRequestContext retrieves the full request context.
func GetRequestContext(c *gin.Context) *RequestContext {
	if ctx, exists := c.Get("request_context"); exists {
		if reqCtx, ok := ctx.(*RequestContext); ok {
			return reqCtx
		}
	}
	return &RequestContext{
		IP:        domain.UnknownIP,
		UserAgent: domain.UnknownUserAgent,
	}
}
