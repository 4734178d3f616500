package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/journal/pkg/logger"
)

// Key represents a context value key exported for reuse.
type Key string

const (
	KeyRemoteAddr Key = "remote_addr"
	KeyUserAgent  Key = "user_agent"
	KeyBaseURL    Key = "base_url"

	HeaderRequestID = "X-Request-ID"
)

// Adapter converts fasthttp.RequestCtx into a stdlib context with deadlines and metadata.
type Adapter struct {
	timeout time.Duration
}

// NewAdapter constructs a new Adapter using the provided timeout.
func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{
		timeout: timeout,
	}
}

// Attach creates a context with timeout derived from the adapter and enriches it with request metadata.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := RequestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	ctx.Response.Header.Set(HeaderRequestID, reqID)

	if remoteAddr := ctx.RemoteAddr(); remoteAddr != nil {
		stdCtx = context.WithValue(stdCtx, KeyRemoteAddr, remoteAddr.String())
	}
	if ua := string(ctx.Request.Header.UserAgent()); ua != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserAgent, ua)
	}
	stdCtx = context.WithValue(stdCtx, KeyBaseURL, BaseURL(ctx))

	return stdCtx, cancel
}

// RequestID returns the caller's X-Request-ID, generating one when absent. The id is
// cached on ctx so every component of one request logs the same value.
func RequestID(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return uuid.NewString()
	}
	if cached, ok := ctx.UserValue(HeaderRequestID).(string); ok && cached != "" {
		return cached
	}
	reqID := strings.TrimSpace(string(ctx.Request.Header.Peek(HeaderRequestID)))
	if reqID == "" {
		reqID = uuid.NewString()
	}
	ctx.SetUserValue(HeaderRequestID, reqID)
	return reqID
}

// BaseURL is scheme://host of the incoming request, honouring X-Forwarded-Proto.
func BaseURL(ctx *fasthttp.RequestCtx) string {
	scheme := "http"
	if ctx.IsTLS() {
		scheme = "https"
	}
	if proto := strings.ToLower(strings.TrimSpace(string(ctx.Request.Header.Peek("X-Forwarded-Proto")))); proto == "http" || proto == "https" {
		scheme = proto
	}
	host := string(ctx.Host())
	if host == "" {
		host = "localhost"
	}
	return scheme + "://" + host
}

// AbsoluteURL prefixes root-relative paths with the request's base URL.
func AbsoluteURL(ctx *fasthttp.RequestCtx, ref string) string {
	if !strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "//") {
		return ref
	}
	return BaseURL(ctx) + ref
}
