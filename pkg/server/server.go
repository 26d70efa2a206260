package server

import (
	"context"
	"embed"
	"html/template"
	"time"

	"github.com/cloudwego/hertz/pkg/app/middlewares/server/recovery"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/app/server/render"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/pkg/errors"

	"spotplacement/pkg/auth"
	"spotplacement/pkg/options"
	"spotplacement/pkg/placement"
	"spotplacement/pkg/resources"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server is the browser facing application.
type Server struct {
	opts    *options.ServerOptions
	h       *server.Hertz
	html    render.HTMLRender
	lister  *resources.Lister
	checker *placement.Checker
	auth    *auth.Authenticator
}

func New(opts *options.ServerOptions, lister *resources.Lister, checker *placement.Checker, authenticator *auth.Authenticator) (*Server, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"scoreClass": scoreClass,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "parse templates")
	}

	h := server.New(
		server.WithHostPorts(opts.Addr),
		server.WithExitWaitTime(5*time.Second),
	)
	h.Use(recovery.Recovery(), accessLog())

	s := &Server{
		opts:    opts,
		h:       h,
		html:    &render.HTMLProduction{Template: tmpl},
		lister:  lister,
		checker: checker,
		auth:    authenticator,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.h.GET("/healthz", healthz)
	s.h.GET("/Home/Error", s.errorPage)
	s.h.GET("/signin", s.signIn)
	s.h.GET(s.opts.CallbackPath, s.signInCallback)
	s.h.GET("/signout", s.signOut)

	home := s.h.Group("/", s.session())
	home.GET("/", s.index)
	home.GET("/Home/Index", s.index)
	home.GET("/Home/GetInstanceSeries", s.instanceSeries)
	home.GET("/Home/GetSkusAndRegions", s.skusAndRegions)
	home.POST("/Home/CheckSpotPlacement", s.checkSpotPlacement)
}

// Engine exposes the router, mainly for tests.
func (s *Server) Engine() *route.Engine {
	return s.h.Engine
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.h.Shutdown(shutdownCtx); err != nil {
			hlog.Warnf("server shutdown: %v", err)
		}
	}()
	hlog.Infof("server listening on %s", s.opts.Addr)
	if err := s.h.Run(); err != nil && ctx.Err() == nil {
		return errors.Wrap(err, "server stopped")
	}
	return nil
}
