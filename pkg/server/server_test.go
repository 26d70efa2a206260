package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"spotplacement/pkg/arm"
	"spotplacement/pkg/auth"
	"spotplacement/pkg/options"
	"spotplacement/pkg/placement"
	"spotplacement/pkg/resources"
)

const (
	subscriptionsBody = `{"value":[{"subscriptionId":"sub-1","displayName":"Dev"}]}`
	skusBody          = `{"value":[
		{"resourceType":"virtualMachines","name":"Standard_D2s_v3","capabilities":[{"name":"vCPUs","value":"2"},{"name":"MemoryGB","value":"8"}]},
		{"resourceType":"virtualMachines","name":"Standard_E4_v5","capabilities":[{"name":"vCPUs","value":"4"},{"name":"MemoryGB","value":"32"}]}
	]}`
	regionsBody   = `{"value":[{"name":"westus2","displayName":"West US 2"},{"name":"eastus","displayName":"East US"}]}`
	placementBody = `{"placementScores":[{"region":"eastus","sku":"Standard_D2s_v3","availabilityZone":"1","score":"High","isQuotaAvailable":true}]}`
)

type fixture struct {
	server    *Server
	auth      *auth.Authenticator
	sessionId string
}

// stubARM serves a tiny subscription with two SKUs and two regions.
func stubARM(t *testing.T, placementCalls *int) *httptest.Server {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/subscriptions":
			_, _ = w.Write([]byte(subscriptionsBody))
		case strings.HasSuffix(r.URL.Path, "/providers/Microsoft.Compute/skus"):
			_, _ = w.Write([]byte(skusBody))
		case strings.HasSuffix(r.URL.Path, "/locations"):
			_, _ = w.Write([]byte(regionsBody))
		case strings.HasSuffix(r.URL.Path, "/placementScores/spot/generate"):
			*placementCalls++
			_, _ = w.Write([]byte(placementBody))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(upstream.Close)
	return upstream
}

func newFixture(t *testing.T, mutate func(o *options.ServerOptions)) (*fixture, *int) {
	calls := 0
	upstream := stubARM(t, &calls)
	client, err := arm.NewClient(upstream.URL, 5*time.Second)
	require.NoError(t, err)

	opts := options.NewServerOptions()
	opts.Addr = "127.0.0.1:0"
	opts.ClientID = "client"
	opts.ClientSecret = "secret"
	if mutate != nil {
		mutate(opts)
	}
	authenticator := auth.NewAuthenticator(auth.Config{TenantID: "contoso", ClientID: opts.ClientID, ClientSecret: opts.ClientSecret})
	srv, err := New(opts, resources.NewLister(client, ""), placement.NewChecker(client), authenticator)
	require.NoError(t, err)

	id := authenticator.Sessions().Create(&oauth2.Token{AccessToken: "token", Expiry: time.Now().Add(time.Hour)})
	return &fixture{server: srv, auth: authenticator, sessionId: id}, &calls
}

func (f *fixture) cookie() ut.Header {
	return ut.Header{Key: "Cookie", Value: sessionCookie + "=" + f.sessionId}
}

func form(values url.Values) (*ut.Body, ut.Header) {
	encoded := values.Encode()
	return &ut.Body{Body: strings.NewReader(encoded), Len: len(encoded)},
		ut.Header{Key: "Content-Type", Value: "application/x-www-form-urlencoded"}
}

func TestHealthz(t *testing.T) {
	f, _ := newFixture(t, nil)
	w := ut.PerformRequest(f.server.Engine(), http.MethodGet, "/healthz", nil)
	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode())
	require.Equal(t, "ok", string(resp.Body()))
}

func TestRedirectsWithoutSession(t *testing.T) {
	f, _ := newFixture(t, nil)
	for _, path := range []string{"/", "/Home/Index", "/Home/GetInstanceSeries?subscriptionId=sub-1"} {
		w := ut.PerformRequest(f.server.Engine(), http.MethodGet, path, nil)
		resp := w.Result()
		require.Equal(t, http.StatusFound, resp.StatusCode(), path)
		require.Contains(t, string(resp.Header.Peek("Location")), signInPath, path)
	}
}

func TestRedirectsWhenSessionUnknown(t *testing.T) {
	f, _ := newFixture(t, nil)
	w := ut.PerformRequest(f.server.Engine(), http.MethodGet, "/", nil,
		ut.Header{Key: "Cookie", Value: sessionCookie + "=expired"})
	resp := w.Result()
	require.Equal(t, http.StatusFound, resp.StatusCode())
	require.Contains(t, string(resp.Header.Peek("Location")), signInPath)
}

func TestIndexCascade(t *testing.T) {
	f, _ := newFixture(t, nil)

	w := ut.PerformRequest(f.server.Engine(), http.MethodGet, "/", nil, f.cookie())
	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode())
	body := string(resp.Body())
	require.Contains(t, body, "Dev (sub-1)")
	require.NotContains(t, body, "seriesSelect")

	w = ut.PerformRequest(f.server.Engine(), http.MethodGet, "/Home/Index?subscriptionId=sub-1", nil, f.cookie())
	body = string(w.Result().Body())
	require.Contains(t, body, "seriesSelect")
	require.Contains(t, body, "Dsv3-series")
	require.NotContains(t, body, "skusSection")

	w = ut.PerformRequest(f.server.Engine(), http.MethodGet, "/Home/Index?subscriptionId=sub-1&series=Dsv3-series", nil, f.cookie())
	body = string(w.Result().Body())
	require.Contains(t, body, "skusSection")
	require.Contains(t, body, `value="Standard_D2s_v3"`)
	require.NotContains(t, body, `value="Standard_E4_v5"`)
	require.Contains(t, body, "West US 2")
}

func TestInstanceSeries(t *testing.T) {
	f, _ := newFixture(t, nil)

	w := ut.PerformRequest(f.server.Engine(), http.MethodGet, "/Home/GetInstanceSeries", nil, f.cookie())
	resp := w.Result()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode())
	require.Equal(t, "Subscription ID is required", string(resp.Body()))

	w = ut.PerformRequest(f.server.Engine(), http.MethodGet, "/Home/GetInstanceSeries?subscriptionId=sub-1", nil, f.cookie())
	resp = w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode())
	series := gjson.GetBytes(resp.Body(), "series").Array()
	require.Len(t, series, 2)
	require.Equal(t, "Dsv3-series", series[0].String())
	require.Equal(t, "Ev5-series", series[1].String())
}

func TestSkusAndRegions(t *testing.T) {
	f, _ := newFixture(t, nil)

	w := ut.PerformRequest(f.server.Engine(), http.MethodGet, "/Home/GetSkusAndRegions?series=Ev5-series", nil, f.cookie())
	require.Equal(t, http.StatusBadRequest, w.Result().StatusCode())

	w = ut.PerformRequest(f.server.Engine(), http.MethodGet, "/Home/GetSkusAndRegions?subscriptionId=sub-1&series=Ev5-series", nil, f.cookie())
	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode())
	require.Equal(t, "Standard_E4_v5", gjson.GetBytes(resp.Body(), "skus.0.name").String())
	require.Equal(t, int64(4), gjson.GetBytes(resp.Body(), "skus.0.vCpus").Int())
	require.Equal(t, "eastus", gjson.GetBytes(resp.Body(), "regions.0.name").String())
	require.Equal(t, "West US 2", gjson.GetBytes(resp.Body(), "regions.1.displayName").String())
}

func TestCheckSpotPlacement(t *testing.T) {
	f, calls := newFixture(t, nil)
	body, contentType := form(url.Values{
		"subscriptionId":       {"sub-1"},
		"selectedSkus":         {"Standard_D2s_v3"},
		"selectedRegions[]":    {"eastus"},
		"useAvailabilityZones": {"true", "false"},
		"desiredCount":         {"2"},
	})

	w := ut.PerformRequest(f.server.Engine(), http.MethodPost, "/Home/CheckSpotPlacement", body, contentType, f.cookie())
	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode())
	out := string(resp.Body())
	require.Contains(t, out, `id="results"`)
	require.Contains(t, out, "High - Low eviction risk")
	require.Contains(t, out, "score-high")
	require.Contains(t, out, "rawRequest")
	require.Contains(t, out, "placementScores/spot/generate")
	require.Equal(t, 1, *calls)
}

func TestCheckSpotPlacementInvalid(t *testing.T) {
	f, calls := newFixture(t, nil)
	body, contentType := form(url.Values{
		"subscriptionId":  {"sub-1"},
		"selectedSkus":    {"Standard_D2s_v3"},
		"selectedRegions": {"eastus", "westus2", "westeurope", "northeurope"},
	})

	w := ut.PerformRequest(f.server.Engine(), http.MethodPost, "/Home/CheckSpotPlacement", body, contentType, f.cookie())
	resp := w.Result()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode())
	out := string(resp.Body())
	require.Contains(t, out, "Please select no more than 3 regions")
	// the form is rendered again with the reloaded options
	require.Contains(t, out, "skusSection")
	require.Equal(t, 0, *calls)
}

func TestParseRequestDefaults(t *testing.T) {
	f, calls := newFixture(t, nil)
	body, contentType := form(url.Values{
		"subscriptionId":  {"sub-1"},
		"selectedSkus":    {"Standard_D2s_v3", "Standard_D2s_v3"},
		"selectedRegions": {"eastus"},
		"desiredCount":    {"zero"},
	})

	w := ut.PerformRequest(f.server.Engine(), http.MethodPost, "/Home/CheckSpotPlacement", body, contentType, f.cookie())
	require.Equal(t, http.StatusOK, w.Result().StatusCode())
	require.Equal(t, 1, *calls)
}

func TestSignIn(t *testing.T) {
	t.Run("direct", func(t *testing.T) {
		f, _ := newFixture(t, nil)
		w := ut.PerformRequest(f.server.Engine(), http.MethodGet, "/signin", nil,
			ut.Header{Key: "X-Forwarded-Host", Value: "evil.example.com"})
		resp := w.Result()
		require.Equal(t, http.StatusFound, resp.StatusCode())

		location, err := url.Parse(string(resp.Header.Peek("Location")))
		require.NoError(t, err)
		require.Equal(t, "login.microsoftonline.com", location.Host)
		redirect := location.Query().Get("redirect_uri")
		require.True(t, strings.HasSuffix(redirect, "/signin-oidc"), redirect)
		require.NotContains(t, redirect, "evil.example.com")
		require.NotEmpty(t, location.Query().Get("state"))
		cookie := protocol.AcquireCookie()
		defer protocol.ReleaseCookie(cookie)
		cookie.SetKey(stateCookie)
		require.True(t, resp.Header.Cookie(cookie))
		require.Equal(t, location.Query().Get("state"), string(cookie.Value()))
		require.True(t, cookie.HTTPOnly())
	})

	t.Run("behind trusted proxy", func(t *testing.T) {
		f, _ := newFixture(t, func(o *options.ServerOptions) { o.TrustForwardedHeaders = true })
		w := ut.PerformRequest(f.server.Engine(), http.MethodGet, "/signin", nil,
			ut.Header{Key: "X-Forwarded-Host", Value: "spot.example.com"})
		location, err := url.Parse(string(w.Result().Header.Peek("Location")))
		require.NoError(t, err)
		require.Equal(t, "https://spot.example.com/signin-oidc", location.Query().Get("redirect_uri"))
	})
}

func TestSignInCallbackRejectsBadState(t *testing.T) {
	f, _ := newFixture(t, nil)
	state := f.auth.NewState()

	w := ut.PerformRequest(f.server.Engine(), http.MethodGet, "/signin-oidc?code=abc&state="+state, nil)
	require.Equal(t, http.StatusBadRequest, w.Result().StatusCode())

	w = ut.PerformRequest(f.server.Engine(), http.MethodGet, "/signin-oidc?code=abc&state=other", nil,
		ut.Header{Key: "Cookie", Value: stateCookie + "=other"})
	require.Equal(t, http.StatusBadRequest, w.Result().StatusCode())
}

func TestSignInCallbackRemoteError(t *testing.T) {
	f, _ := newFixture(t, nil)
	w := ut.PerformRequest(f.server.Engine(), http.MethodGet, "/signin-oidc?error=access_denied", nil)
	resp := w.Result()
	require.Equal(t, http.StatusFound, resp.StatusCode())
	require.Contains(t, string(resp.Header.Peek("Location")), "/Home/Error")
}

func TestSignOut(t *testing.T) {
	f, _ := newFixture(t, nil)
	w := ut.PerformRequest(f.server.Engine(), http.MethodGet, "/signout", nil, f.cookie())
	require.Equal(t, http.StatusOK, w.Result().StatusCode())

	_, ok := f.auth.Sessions().Get(f.sessionId)
	require.False(t, ok)
}

func TestErrorPage(t *testing.T) {
	f, _ := newFixture(t, nil)
	w := ut.PerformRequest(f.server.Engine(), http.MethodGet, "/Home/Error", nil,
		ut.Header{Key: "X-Request-Id", Value: "req-42"})
	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode())
	require.Contains(t, string(resp.Body()), "req-42")
	require.Equal(t, "no-store, no-cache", string(resp.Header.Peek("Cache-Control")))
	require.Contains(t, string(resp.Header.ContentType()), "text/html")
}

func TestRenderOnBareContext(t *testing.T) {
	f, _ := newFixture(t, nil)
	ctx := app.NewContext(0)
	require.Nil(t, ctx.HTMLRender)

	f.server.render(ctx, http.StatusBadRequest, "error.html", utils.H{"RequestId": "req-7"})

	require.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
	require.Contains(t, string(ctx.Response.Body()), "req-7")
	require.Contains(t, string(ctx.Response.Header.ContentType()), "text/html")
}

func TestScoreClass(t *testing.T) {
	require.Equal(t, "score-high", scoreClass("High"))
	require.Equal(t, "score-high", scoreClass("4"))
	require.Equal(t, "score-medium", scoreClass("Medium"))
	require.Equal(t, "score-low", scoreClass("verylow"))
	require.Equal(t, "score-none", scoreClass("Error"))
}
