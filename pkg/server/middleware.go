package server

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/pkg/errors"

	"spotplacement/pkg/auth"
	"spotplacement/pkg/known"
)

const (
	sessionCookie = "spotplacement_session"
	stateCookie   = "spotplacement_state"
	tokensKey     = "tokens"
	signInPath    = "/signin"
)

func accessLog() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c)
		hlog.CtxInfof(c, "%s %s %d %s", ctx.Method(), ctx.Path(), ctx.Response.StatusCode(), time.Since(start))
	}
}

// session binds the token provider of the caller's browser session.
func (s *Server) session() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		id := string(ctx.Cookie(sessionCookie))
		if id == "" {
			ctx.Redirect(consts.StatusFound, []byte(signInPath))
			ctx.Abort()
			return
		}
		ctx.Set(tokensKey, s.auth.SessionProvider(id))
		ctx.Next(c)
	}
}

// accessToken fetches the ARM token of the session. On ErrConsentRequired
// the browser is redirected to sign in and ok is false.
func accessToken(c context.Context, ctx *app.RequestContext) (token string, ok bool) {
	value, _ := ctx.Get(tokensKey)
	provider, _ := value.(auth.TokenProvider)
	if provider == nil {
		ctx.Redirect(consts.StatusFound, []byte(signInPath))
		return "", false
	}
	token, err := provider.AccessToken(c, known.ARMScope)
	if errors.Is(err, auth.ErrConsentRequired) {
		ctx.Redirect(consts.StatusFound, []byte(signInPath))
		return "", false
	}
	if err != nil {
		hlog.CtxErrorf(c, "acquire access token: %v", err)
		ctx.String(consts.StatusInternalServerError, "Error acquiring access token")
		return "", false
	}
	return token, true
}

// externalBase is scheme://host as seen by the browser. Forwarded headers
// are only honoured when the proxy in front is trusted.
func (s *Server) externalBase(ctx *app.RequestContext) string {
	if s.opts.TrustForwardedHeaders {
		if host := string(ctx.GetHeader("X-Forwarded-Host")); host != "" {
			proto := string(ctx.GetHeader("X-Forwarded-Proto"))
			if proto == "" {
				proto = "https"
			}
			return proto + "://" + host
		}
	}
	scheme := string(ctx.URI().Scheme())
	if scheme == "" {
		scheme = "http"
	}
	return scheme + "://" + string(ctx.Host())
}

func (s *Server) setCookie(ctx *app.RequestContext, name, value string, maxAge int) {
	ctx.SetCookie(name, value, maxAge, "/", "", protocol.CookieSameSiteLaxMode, s.opts.SecureCookies, true)
}
