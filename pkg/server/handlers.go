package server

import (
	"context"
	"strconv"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"

	"spotplacement/pkg/models"
)

// homeView feeds index.html and results.html
type homeView struct {
	Subscriptions  []models.SubscriptionInfo
	InstanceSeries []string
	Series         string
	VmSkus         []models.VmSkuInfo
	Regions        []models.RegionInfo
	Request        *models.SpotPlacementRequest
	Results        []models.SpotPlacementScoreResult
	RawApiRequest  string
	RawApiResponse string
	Errors         []string
}

func healthz(_ context.Context, ctx *app.RequestContext) {
	ctx.String(consts.StatusOK, "ok")
}

func (s *Server) errorPage(_ context.Context, ctx *app.RequestContext) {
	requestId := string(ctx.GetHeader("X-Request-Id"))
	if requestId == "" {
		requestId = uuid.NewString()
	}
	ctx.Response.Header.Set("Cache-Control", "no-store, no-cache")
	s.render(ctx, consts.StatusOK, "error.html", utils.H{"RequestId": requestId})
}

// index renders the selection form. The optional subscriptionId and series
// query parameters cascade the option lists server side.
func (s *Server) index(c context.Context, ctx *app.RequestContext) {
	token, ok := accessToken(c, ctx)
	if !ok {
		return
	}
	view := homeView{Request: models.NewSpotPlacementRequest()}
	subscriptions, err := s.lister.ListSubscriptions(c, token)
	if err != nil {
		view.Errors = append(view.Errors, "Failed to load subscriptions. Please try again.")
		s.render(ctx, consts.StatusOK, "index.html", view)
		return
	}
	view.Subscriptions = subscriptions

	subscriptionId := ctx.Query("subscriptionId")
	if subscriptionId == "" {
		s.render(ctx, consts.StatusOK, "index.html", view)
		return
	}
	view.Request.SubscriptionId = subscriptionId
	if view.InstanceSeries, err = s.lister.ListInstanceSeries(c, subscriptionId, token); err != nil {
		view.Errors = append(view.Errors, "Failed to load instance series. Please try again.")
		s.render(ctx, consts.StatusOK, "index.html", view)
		return
	}

	view.Series = ctx.Query("series")
	if view.Series == "" {
		s.render(ctx, consts.StatusOK, "index.html", view)
		return
	}
	if err = s.loadSkusAndRegions(c, &view, subscriptionId, view.Series, token); err != nil {
		view.Errors = append(view.Errors, "Failed to load VM SKUs and regions. Please try again.")
	}
	s.render(ctx, consts.StatusOK, "index.html", view)
}

func (s *Server) instanceSeries(c context.Context, ctx *app.RequestContext) {
	subscriptionId := ctx.Query("subscriptionId")
	if subscriptionId == "" {
		ctx.String(consts.StatusBadRequest, "Subscription ID is required")
		return
	}
	token, ok := accessToken(c, ctx)
	if !ok {
		return
	}
	series, err := s.lister.ListInstanceSeries(c, subscriptionId, token)
	if err != nil {
		ctx.String(consts.StatusInternalServerError, "Error fetching data")
		return
	}
	ctx.JSON(consts.StatusOK, utils.H{"series": series})
}

func (s *Server) skusAndRegions(c context.Context, ctx *app.RequestContext) {
	subscriptionId := ctx.Query("subscriptionId")
	if subscriptionId == "" {
		ctx.String(consts.StatusBadRequest, "Subscription ID is required")
		return
	}
	token, ok := accessToken(c, ctx)
	if !ok {
		return
	}
	var view homeView
	if err := s.loadSkusAndRegions(c, &view, subscriptionId, ctx.Query("series"), token); err != nil {
		ctx.String(consts.StatusInternalServerError, "Error fetching data")
		return
	}
	ctx.JSON(consts.StatusOK, utils.H{"skus": nonNilSkus(view.VmSkus), "regions": view.Regions})
}

func (s *Server) checkSpotPlacement(c context.Context, ctx *app.RequestContext) {
	req := parseRequest(ctx)
	token, ok := accessToken(c, ctx)
	if !ok {
		return
	}

	if problems := req.Validate(); len(problems) > 0 {
		view := homeView{Request: req, Errors: problems}
		var err error
		if view.Subscriptions, err = s.lister.ListSubscriptions(c, token); err != nil {
			hlog.CtxWarnf(c, "reload subscriptions after invalid request: %v", err)
		}
		if req.SubscriptionId != "" {
			if err = s.loadSkusAndRegions(c, &view, req.SubscriptionId, "", token); err != nil {
				hlog.CtxWarnf(c, "reload skus and regions after invalid request: %v", err)
			}
		}
		s.render(ctx, consts.StatusBadRequest, "index.html", view)
		return
	}

	result := s.checker.Check(c, req, token)
	s.render(ctx, consts.StatusOK, "results.html", homeView{
		Request:        req,
		Results:        result.Results,
		RawApiRequest:  result.RequestTrace,
		RawApiResponse: result.ResponseTrace,
	})
}

// render executes one of the embedded templates; ctx.HTMLRender is not set
// on contexts created outside the server loop.
func (s *Server) render(ctx *app.RequestContext, code int, name string, data interface{}) {
	ctx.Render(code, s.html.Instance(name, data))
}

func (s *Server) loadSkusAndRegions(c context.Context, view *homeView, subscriptionId, series, token string) error {
	skus, err := s.lister.ListVmSkus(c, subscriptionId, series, token)
	if err != nil {
		return err
	}
	regions, err := s.lister.ListRegions(c, subscriptionId, token)
	if err != nil {
		return err
	}
	view.VmSkus, view.Regions = skus, regions
	return nil
}

// parseRequest reads the url encoded form. selectedSkus and selectedRegions
// repeat; the [] suffix of array style field names is accepted as well.
func parseRequest(ctx *app.RequestContext) *models.SpotPlacementRequest {
	req := models.NewSpotPlacementRequest()
	req.SubscriptionId = strings.TrimSpace(ctx.PostForm("subscriptionId"))
	req.SelectedSkus = formValues(ctx, "selectedSkus")
	req.SelectedRegions = formValues(ctx, "selectedRegions")
	// the checkbox is followed by a hidden "false", the first value wins
	if zones := formValues(ctx, "useAvailabilityZones"); len(zones) > 0 {
		if v, err := strconv.ParseBool(zones[0]); err == nil {
			req.UseAvailabilityZones = v
		}
	}
	if count, err := strconv.Atoi(strings.TrimSpace(ctx.PostForm("desiredCount"))); err == nil {
		req.DesiredCount = count
	}
	req.Normalize()
	return req
}

func formValues(ctx *app.RequestContext, key string) []string {
	var values []string
	ctx.PostArgs().VisitAll(func(k, v []byte) {
		if name := string(k); name == key || name == key+"[]" {
			values = append(values, string(v))
		}
	})
	return values
}

func nonNilSkus(skus []models.VmSkuInfo) []models.VmSkuInfo {
	if skus == nil {
		return []models.VmSkuInfo{}
	}
	return skus
}

func scoreClass(score string) string {
	switch strings.ToLower(score) {
	case "4", "veryhigh", "3", "high":
		return "score-high"
	case "2", "medium":
		return "score-medium"
	case "1", "low", "0", "verylow":
		return "score-low"
	default:
		return "score-none"
	}
}
