package middleware

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/journal/api/transport"
	"github.com/fastygo/journal/domain"
	"github.com/fastygo/journal/pkg/httpcontext"
	"github.com/fastygo/journal/pkg/logger"
)

const principalKey = "eic.principal"

// Authenticator resolves a raw bearer token into the calling principal.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (domain.Principal, error)
}

// JWTAuth rejects requests without a valid, unrevoked bearer token and stores the
// resolved principal on the request for handlers.
func JWTAuth(auth Authenticator, adapter *httpcontext.Adapter, log *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if log == nil {
		log = zap.NewNop()
	}
	if adapter == nil {
		adapter = httpcontext.NewAdapter(0)
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				reject(ctx, fasthttp.StatusUnauthorized, "Authentication credentials were not provided.", domain.ErrCodeUnauthorized)
				return
			}

			stdCtx, cancel := adapter.Attach(ctx)
			principal, err := auth.Authenticate(stdCtx, tokenString)
			cancel()
			if err != nil {
				if domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
					logger.WithRequestID(stdCtx, log).Warn("invalid jwt token", zap.Error(err))
					reject(ctx, fasthttp.StatusUnauthorized, "Given token not valid for any token type", domain.ErrCodeUnauthorized)
					return
				}
				logger.WithRequestID(stdCtx, log).Error("token verification failed", zap.Error(err))
				reject(ctx, fasthttp.StatusInternalServerError, "Internal server error", domain.ErrCodeInternal)
				return
			}

			ctx.SetUserValue(principalKey, principal)
			next(ctx)
		}
	}
}

// PrincipalFrom returns the principal stored by JWTAuth.
func PrincipalFrom(ctx *fasthttp.RequestCtx) (domain.Principal, bool) {
	p, ok := ctx.UserValue(principalKey).(domain.Principal)
	return p, ok
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

func reject(ctx *fasthttp.RequestCtx, status int, message string, code domain.ErrorCode) {
	body, _ := json.Marshal(transport.ErrorResponse{Error: message, Code: string(code)})
	ctx.Response.Header.SetContentType("application/json")
	ctx.Response.Header.Set("WWW-Authenticate", `Bearer realm="api"`)
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
