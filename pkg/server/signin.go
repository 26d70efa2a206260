package server

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

const stateMaxAge = 600

func (s *Server) redirectURI(ctx *app.RequestContext) string {
	return s.externalBase(ctx) + s.opts.CallbackPath
}

func (s *Server) signIn(_ context.Context, ctx *app.RequestContext) {
	state := s.auth.NewState()
	s.setCookie(ctx, stateCookie, state, stateMaxAge)
	ctx.Redirect(consts.StatusFound, []byte(s.auth.AuthCodeURL(state, s.redirectURI(ctx))))
}

func (s *Server) signInCallback(c context.Context, ctx *app.RequestContext) {
	if remoteErr := ctx.Query("error"); remoteErr != "" {
		hlog.CtxWarnf(c, "sign-in failed: %s: %s", remoteErr, ctx.Query("error_description"))
		ctx.Redirect(consts.StatusFound, []byte("/Home/Error"))
		return
	}

	state := ctx.Query("state")
	if state == "" || state != string(ctx.Cookie(stateCookie)) || !s.auth.ValidateState(state) {
		ctx.String(consts.StatusBadRequest, "invalid state in sign-in callback")
		return
	}
	s.setCookie(ctx, stateCookie, "", -1)

	sessionId, err := s.auth.Exchange(c, ctx.Query("code"), s.redirectURI(ctx))
	if err != nil {
		hlog.CtxErrorf(c, "%v", err)
		ctx.Redirect(consts.StatusFound, []byte("/Home/Error"))
		return
	}
	s.setCookie(ctx, sessionCookie, sessionId, 0)
	ctx.Redirect(consts.StatusFound, []byte("/"))
}

func (s *Server) signOut(_ context.Context, ctx *app.RequestContext) {
	if id := string(ctx.Cookie(sessionCookie)); id != "" {
		s.auth.SignOut(id)
	}
	s.setCookie(ctx, sessionCookie, "", -1)
	ctx.String(consts.StatusOK, "Signed out")
}
