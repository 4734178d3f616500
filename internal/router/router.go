package router

import (
	"strings"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/journal/api/handler"
)

type Handlers struct {
	Auth   *apiHandler.AuthHandler
	Editor *apiHandler.EditorHandler
	Health *apiHandler.HealthHandler
}

// registrar is satisfied by both *router.Router and *router.Group.
type registrar interface {
	GET(path string, handler fasthttp.RequestHandler)
	POST(path string, handler fasthttp.RequestHandler)
	PUT(path string, handler fasthttp.RequestHandler)
	PATCH(path string, handler fasthttp.RequestHandler)
}

type Options struct {
	// Prefix is the mount point of the editor API, e.g. /api/eic.
	Prefix string
	// MediaRoot, when set, is served read-only under MediaPrefix.
	MediaRoot   string
	MediaPrefix string
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler, opts Options) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)
	if opts.MediaRoot != "" {
		mediaPrefix := strings.TrimRight(opts.MediaPrefix, "/")
		if mediaPrefix == "" {
			mediaPrefix = "/media"
		}
		r.ServeFiles(mediaPrefix+"/{filepath:*}", opts.MediaRoot)
	}

	prefix := "/" + strings.Trim(opts.Prefix, "/")
	var api registrar = r
	if prefix != "/" {
		api = r.Group(prefix)
	}

	// Public routes
	api.POST("/signup/", handlers.Editor.SignUp)
	api.POST("/login/", handlers.Auth.Login)
	api.POST("/staff/login/", handlers.Auth.StaffLogin)
	api.GET("/list/", handlers.Editor.List)
	api.GET("/get-profile/{id}/", handlers.Editor.Detail)
	api.GET("/update/{id}/", handlers.Editor.GetUpdate)
	api.PUT("/update/{id}/", handlers.Editor.Update)
	api.PATCH("/update/{id}/", handlers.Editor.Update)

	// Protected routes
	api.POST("/approve/{id}/", authMiddleware(handlers.Editor.Approve))
	api.GET("/validate-token/", authMiddleware(handlers.Auth.ValidateToken))
	api.POST("/logout/", authMiddleware(handlers.Auth.Logout))

	return r
}
