package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/journal/api/transport"
	"github.com/fastygo/journal/domain"
	"github.com/fastygo/journal/internal/middleware"
	"github.com/fastygo/journal/pkg/httpcontext"
	authUC "github.com/fastygo/journal/usecase/auth"
)

type AuthHandler struct {
	baseHandler
	uc *authUC.UseCase
}

func NewAuthHandler(uc *authUC.UseCase, adapter *httpcontext.Adapter, urls URLSource, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, urls, logger),
		uc:          uc,
	}
}

// @Summary Log in with email and password
// @Tags auth
// @Router /api/eic/login/ [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	req, err := bindLogin(ctx)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	res, err := h.uc.Login(stdCtx, req.Email, req.Password)
	if err != nil {
		status := 0
		if domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
			status = http.StatusBadRequest
		}
		h.respondErrorStatus(ctx, stdCtx, err, status)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewTokenResponse(res.Token.Value, res.Editor, h.resolver(ctx, stdCtx)))
}

// @Summary Log in a staff account that may approve registrations
// @Tags auth
// @Router /api/eic/staff/login/ [post]
func (h *AuthHandler) StaffLogin(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	req, err := bindLogin(ctx)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	res, err := h.uc.StaffLogin(stdCtx, req.Email, req.Password)
	if err != nil {
		status := 0
		if domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
			status = http.StatusBadRequest
		}
		h.respondErrorStatus(ctx, stdCtx, err, status)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewStaffTokenResponse(res.Token, res.Account))
}

// bindLogin reads email and password from a form or a JSON body.
func bindLogin(ctx *fasthttp.RequestCtx) (transport.LoginRequest, error) {
	var req transport.LoginRequest
	if isMultipart(ctx) || isURLEncoded(ctx) {
		form, err := parseForm(ctx)
		if err != nil {
			return req, err
		}
		req.Email, _ = form.Lookup("email")
		req.Password, _ = form.Lookup("password")
	} else if body := ctx.PostBody(); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return req, domain.ErrMissingCredentials
		}
	}
	return req, nil
}

// @Summary Validate the bearer token and return the caller's profile
// @Tags auth
// @Router /api/eic/validate-token/ [get]
func (h *AuthHandler) ValidateToken(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	principal, ok := middleware.PrincipalFrom(ctx)
	if !ok {
		h.respondError(ctx, stdCtx, domain.ErrUnauthorized)
		return
	}

	res, err := h.uc.Validate(stdCtx, principal)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewValidateTokenResponse(res.Token.Value, res.Editor, h.resolver(ctx, stdCtx)))
}

// @Summary Revoke the bearer token
// @Tags auth
// @Router /api/eic/logout/ [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	principal, ok := middleware.PrincipalFrom(ctx)
	if !ok {
		h.respondError(ctx, stdCtx, domain.ErrUnauthorized)
		return
	}
	if err := h.uc.Logout(stdCtx, principal); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondMessage(ctx, http.StatusOK, "Logged out")
}
