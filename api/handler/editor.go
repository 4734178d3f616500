package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/journal/api/transport"
	"github.com/fastygo/journal/domain"
	"github.com/fastygo/journal/internal/middleware"
	"github.com/fastygo/journal/pkg/httpcontext"
	"github.com/fastygo/journal/repository"
	editorUC "github.com/fastygo/journal/usecase/editor"
)

const (
	msgRegistered      = "Registration successful. Pending admin approval."
	msgApproved        = "Approved successfully"
	msgAlreadyApproved = "Already approved"
	msgUpdateQueued    = "Update queued"
)

type EditorHandler struct {
	baseHandler
	registration *editorUC.Registration
	approval     *editorUC.Approval
	directory    *editorUC.Directory
}

func NewEditorHandler(
	registration *editorUC.Registration,
	approval *editorUC.Approval,
	directory *editorUC.Directory,
	adapter *httpcontext.Adapter,
	urls URLSource,
	logger *zap.Logger,
) *EditorHandler {
	return &EditorHandler{
		baseHandler:  newBaseHandler(adapter, urls, logger),
		registration: registration,
		approval:     approval,
		directory:    directory,
	}
}

// @Summary Register a new Editor-in-Chief (pending approval)
// @Tags editors
// @Accept json,mpfd
// @Router /api/eic/signup/ [post]
func (h *EditorHandler) SignUp(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.SignUpRequest
	in := editorUC.RegisterInput{}
	if isMultipart(ctx) || isURLEncoded(ctx) {
		form, err := parseForm(ctx)
		if err != nil {
			h.respondError(ctx, stdCtx, err)
			return
		}
		req.BindForm(form.Lookup)

		picture, cv, closeAll, err := form.uploads()
		defer closeAll()
		if err != nil {
			h.respondError(ctx, stdCtx, err)
			return
		}
		in.ProfilePicture, in.CV = picture, cv
	} else if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, stdCtx, domain.ErrInvalidPayload)
		return
	}

	if err := req.Validate(); err != nil {
		h.respondError(ctx, stdCtx, transport.ValidationError(err))
		return
	}

	in.FirstName = req.FirstName
	in.LastName = req.LastName
	in.Email = req.Email
	in.Password = req.Password
	in.Profile = req.Profile()

	if _, err := h.registration.Register(stdCtx, in); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	pending := false
	h.respondJSON(ctx, http.StatusCreated, transport.MessageResponse{Message: msgRegistered, IsApproved: &pending})
}

// @Summary Approve a pending Editor-in-Chief
// @Tags editors
// @Security Bearer
// @Router /api/eic/approve/{id}/ [post]
func (h *EditorHandler) Approve(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	principal, ok := middleware.PrincipalFrom(ctx)
	if !ok {
		h.respondError(ctx, stdCtx, domain.ErrUnauthorized)
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		h.respondError(ctx, stdCtx, domain.ErrEditorNotFound)
		return
	}

	outcome, err := h.approval.Approve(stdCtx, principal, id)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	if outcome == editorUC.AlreadyApproved {
		h.respondMessage(ctx, http.StatusOK, msgAlreadyApproved)
		return
	}
	h.respondMessage(ctx, http.StatusOK, msgApproved)
}

// @Summary List Editor-in-Chief profiles
// @Tags editors
// @Param is_approved query string false "true or false"
// @Router /api/eic/list/ [get]
func (h *EditorHandler) List(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	args := ctx.QueryArgs()
	filter := repository.EditorFilter{}
	switch string(args.Peek("is_approved")) {
	case "true":
		approved := true
		filter.Approved = &approved
	case "false":
		approved := false
		filter.Approved = &approved
	}
	if limit, err := strconv.Atoi(string(args.Peek("limit"))); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(string(args.Peek("offset"))); err == nil && offset > 0 {
		filter.Offset = offset
	}

	editors, err := h.directory.List(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewEditorList(editors, h.resolver(ctx, stdCtx)))
}

// @Summary Public profile of one Editor-in-Chief
// @Tags editors
// @Router /api/eic/get-profile/{id}/ [get]
func (h *EditorHandler) Detail(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, ok := pathID(ctx, "id")
	if !ok {
		h.respondError(ctx, stdCtx, domain.ErrEditorNotFound)
		return
	}
	editor, err := h.directory.Get(stdCtx, id)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewEditorDetail(*editor, h.resolver(ctx, stdCtx)))
}

// @Summary Current editable fields of a profile
// @Tags editors
// @Router /api/eic/update/{id}/ [get]
func (h *EditorHandler) GetUpdate(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, ok := pathID(ctx, "id")
	if !ok {
		h.respondError(ctx, stdCtx, domain.ErrEditorNotFound)
		return
	}
	editor, err := h.directory.Get(stdCtx, id)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewEditorUpdateView(*editor, h.resolver(ctx, stdCtx)))
}

// @Summary Update a profile (PUT replaces, PATCH merges)
// @Tags editors
// @Accept json,mpfd
// @Router /api/eic/update/{id}/ [put]
// @Router /api/eic/update/{id}/ [patch]
func (h *EditorHandler) Update(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, ok := pathID(ctx, "id")
	if !ok {
		h.respondError(ctx, stdCtx, domain.ErrEditorNotFound)
		return
	}

	var req transport.ProfileUpdateRequest
	in := editorUC.UpdateInput{Replace: ctx.IsPut()}
	if isMultipart(ctx) || isURLEncoded(ctx) {
		form, err := parseForm(ctx)
		if err != nil {
			h.respondError(ctx, stdCtx, err)
			return
		}
		req.BindForm(form.Lookup)

		picture, cv, closeAll, err := form.uploads()
		defer closeAll()
		if err != nil {
			h.respondError(ctx, stdCtx, err)
			return
		}
		in.ProfilePicture, in.CV = picture, cv
	} else if body := ctx.PostBody(); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			h.respondError(ctx, stdCtx, domain.ErrInvalidPayload)
			return
		}
	}

	if err := req.Validate(); err != nil {
		h.respondError(ctx, stdCtx, transport.ValidationError(err))
		return
	}
	in.Patch = req.Patch()

	res, err := h.directory.Update(stdCtx, id, in)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	if res.Queued {
		h.respondMessage(ctx, http.StatusAccepted, msgUpdateQueued)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewEditorUpdateView(*res.Editor, h.resolver(ctx, stdCtx)))
}
