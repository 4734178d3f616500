package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/journal/api/transport"
	"github.com/fastygo/journal/domain"
	"github.com/fastygo/journal/internal/media"
	"github.com/fastygo/journal/pkg/httpcontext"
	"github.com/fastygo/journal/pkg/logger"
)

// URLSource resolves stored media keys to URLs.
type URLSource interface {
	URL(ctx context.Context, key string) (string, error)
}

type baseHandler struct {
	adapter *httpcontext.Adapter
	media   URLSource
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, urls URLSource, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if adapter == nil {
		adapter = httpcontext.NewAdapter(0)
	}
	return baseHandler{adapter: adapter, media: urls, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	return h.adapter.Attach(ctx)
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondMessage(ctx *fasthttp.RequestCtx, status int, message string) {
	h.respondJSON(ctx, status, transport.MessageResponse{Message: message})
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, stdCtx context.Context, err error) {
	h.respondErrorStatus(ctx, stdCtx, err, 0)
}

// respondErrorStatus writes err, using status instead of the mapped one when non-zero.
func (h baseHandler) respondErrorStatus(ctx *fasthttp.RequestCtx, stdCtx context.Context, err error, status int) {
	mapped, code := mapError(err)
	if status == 0 {
		status = mapped
	}

	body := transport.ErrorResponse{Error: err.Error(), Code: string(code)}
	if dErr, ok := domain.AsDomainError(err); ok {
		body.Error = dErr.Message
		body.Fields = dErr.Fields
	}
	switch code {
	case domain.ErrCodeInternal:
		logger.WithRequestID(stdCtx, h.logger).Error("request failed",
			zap.String("path", string(ctx.Path())),
			zap.Error(err))
		body = transport.ErrorResponse{Error: "Internal server error", Code: string(code)}
	case domain.ErrCodePending:
		pending := false
		body.IsApproved = &pending
	}
	h.respondJSON(ctx, status, body)
}

func mapError(err error) (int, domain.ErrorCode) {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized, domain.ErrCodeUnauthorized
	case domain.IsDomainError(err, domain.ErrCodeForbidden):
		return http.StatusForbidden, domain.ErrCodeForbidden
	case domain.IsDomainError(err, domain.ErrCodePending):
		return http.StatusForbidden, domain.ErrCodePending
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusBadRequest, domain.ErrCodeInvalid
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, domain.ErrCodeNotFound
	case domain.IsDomainError(err, domain.ErrCodeConflict):
		return http.StatusConflict, domain.ErrCodeConflict
	default:
		return http.StatusInternalServerError, domain.ErrCodeInternal
	}
}

// resolver builds absolute media URLs for the current request.
func (h baseHandler) resolver(ctx *fasthttp.RequestCtx, stdCtx context.Context) transport.URLResolver {
	return func(key string) *string {
		if h.media == nil {
			return nil
		}
		url, err := h.media.URL(stdCtx, key)
		if err != nil {
			logger.WithRequestID(stdCtx, h.logger).Warn("media url unavailable", zap.String("key", key), zap.Error(err))
			return nil
		}
		url = httpcontext.AbsoluteURL(ctx, url)
		return &url
	}
}

func pathID(ctx *fasthttp.RequestCtx, name string) (int64, bool) {
	raw, _ := ctx.UserValue(name).(string)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func isMultipart(ctx *fasthttp.RequestCtx) bool {
	return bytes.HasPrefix(ctx.Request.Header.ContentType(), []byte("multipart/form-data"))
}

func isURLEncoded(ctx *fasthttp.RequestCtx) bool {
	return bytes.HasPrefix(ctx.Request.Header.ContentType(), []byte("application/x-www-form-urlencoded"))
}

// formBody is a parsed multipart or urlencoded request.
type formBody struct {
	form *multipart.Form
	args *fasthttp.Args
}

func parseForm(ctx *fasthttp.RequestCtx) (*formBody, error) {
	if isMultipart(ctx) {
		form, err := ctx.MultipartForm()
		if err != nil {
			return nil, domain.WrapError(domain.ErrCodeInvalid, "invalid multipart payload", err)
		}
		return &formBody{form: form}, nil
	}
	return &formBody{args: ctx.PostArgs()}, nil
}

func (f *formBody) Lookup(key string) (string, bool) {
	if f.form != nil {
		values, ok := f.form.Value[key]
		if !ok || len(values) == 0 {
			return "", false
		}
		return values[0], true
	}
	if f.args != nil && f.args.Has(key) {
		return string(f.args.Peek(key)), true
	}
	return "", false
}

// File opens an uploaded file; the returned closer must be called once the file is stored.
func (f *formBody) File(key string) (*media.File, io.Closer, error) {
	if f.form == nil {
		return nil, nil, nil
	}
	headers := f.form.File[key]
	if len(headers) == 0 || headers[0].Size == 0 {
		return nil, nil, nil
	}
	fh := headers[0]
	body, err := fh.Open()
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrCodeInvalid, "unreadable upload", err)
	}
	return &media.File{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        body,
	}, body, nil
}

// uploads opens the profile picture and CV parts of a multipart form.
func (f *formBody) uploads() (picture, cv *media.File, closeAll func(), err error) {
	var closers []io.Closer
	closeAll = func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}

	picture, c, err := f.File("profile_picture")
	if err != nil {
		return nil, nil, closeAll, err
	}
	if c != nil {
		closers = append(closers, c)
	}
	cv, c, err = f.File("cv")
	if err != nil {
		return nil, nil, closeAll, err
	}
	if c != nil {
		closers = append(closers, c)
	}
	return picture, cv, closeAll, nil
}
