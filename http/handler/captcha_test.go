package handler

import (
	stdjson "encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/leeforge/captchakit/captcha"
	limiter "github.com/leeforge/captchakit/middleware"
	"github.com/leeforge/captchakit/render"
	"github.com/leeforge/captchakit/session"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Data  stdjson.RawMessage `json:"data"`
	Error *struct {
		Code int `json:"code"`
	} `json:"error"`
}

type client struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
}

func newTestClient(t *testing.T, opts ...func(*RouterConfig)) *client {
	t.Helper()
	store := session.NewMemoryStore(0, 0)
	t.Cleanup(func() { _ = store.Close() })

	svc, err := captcha.NewService(captcha.Groups{
		captcha.DefaultGroup: {},
		"quiz":               {"style": "riddle", "promote": 2},
	}, store,
		captcha.WithRendererFactory(captcha.StyleImage, render.NewImageRenderer),
		captcha.WithRiddleSource(captcha.StaticRiddles{"en": {{Prompt: "Sky colour?", Answer: "Blue"}}}),
	)
	require.NoError(t, err)

	cfg := RouterConfig{
		Service: svc,
		Session: session.CookieOptions{Secret: "test-secret"},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &client{t: t, handler: NewRouter(cfg)}
}

func (c *client) do(method, target, contentType, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rr := httptest.NewRecorder()
	c.handler.ServeHTTP(rr, req)
	if got := rr.Result().Cookies(); len(got) > 0 {
		c.cookies = got
	}
	return rr
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	var env envelope
	require.NoError(t, stdjson.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	require.Nil(t, env.Error, rr.Body.String())
	require.NoError(t, stdjson.Unmarshal(env.Data, v))
}

func TestRiddleRoundTrip(t *testing.T) {
	c := newTestClient(t)

	rr := c.do(http.MethodGet, "/captcha/quiz", "", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var issued IssueResponse
	decodeData(t, rr, &issued)
	require.Equal(t, captcha.StyleRiddle, issued.Style)
	require.Contains(t, issued.HTML, "Sky colour?")
	require.NotContains(t, rr.Body.String(), "Blue")
	require.Empty(t, issued.Image)

	rr = c.do(http.MethodPost, "/captcha/quiz/check", "application/json", `{"response":"blue"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var res CheckResponse
	decodeData(t, rr, &res)
	require.Equal(t, CheckResponse{Valid: true, ValidCount: 1}, res)

	// form bodies are accepted too
	c.do(http.MethodGet, "/captcha/quiz", "", "")
	form := url.Values{"response": {"BLUE"}}.Encode()
	rr = c.do(http.MethodPost, "/captcha/quiz/check", "application/x-www-form-urlencoded", form)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	decodeData(t, rr, &res)
	require.Equal(t, CheckResponse{Valid: true, Promoted: true, ValidCount: 2}, res)
}

func TestCheck_GarbageCountedOnce(t *testing.T) {
	c := newTestClient(t)
	c.do(http.MethodGet, "/captcha/quiz", "", "")

	rr := c.do(http.MethodPost, "/captcha/quiz/check", "application/json", `{"response":"green"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var res CheckResponse
	decodeData(t, rr, &res)
	require.False(t, res.Valid)
	require.Equal(t, 1, res.InvalidCount)

	rr = c.do(http.MethodGet, "/captcha/quiz/status", "", "")
	var st captcha.Status
	decodeData(t, rr, &st)
	require.Equal(t, 1, st.InvalidCount)
	require.Equal(t, 0, st.ValidCount)
}

func TestCheck_EmptyResponseCountsInvalid(t *testing.T) {
	for _, body := range []string{`{"response":""}`, `{}`, `{"response":"` + strings.Repeat("x", 500) + `"}`} {
		c := newTestClient(t)
		c.do(http.MethodGet, "/captcha/quiz", "", "")

		rr := c.do(http.MethodPost, "/captcha/quiz/check", "application/json", body)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var res CheckResponse
		decodeData(t, rr, &res)
		require.Equal(t, CheckResponse{InvalidCount: 1}, res)
	}

	c := newTestClient(t)
	c.do(http.MethodGet, "/captcha/quiz", "", "")
	rr := c.do(http.MethodPost, "/captcha/quiz/check", "application/x-www-form-urlencoded", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var st captcha.Status
	decodeData(t, c.do(http.MethodGet, "/captcha/quiz/status", "", ""), &st)
	require.Equal(t, 1, st.InvalidCount)
}

func TestIssueLimiter_CookielessClientsShareIPBucket(t *testing.T) {
	rl := limiter.NewRateLimiter(limiter.RateLimitConfig{Rate: 0.001, Burst: 2}, limiter.SessionOrIP, nil)
	c := newTestClient(t, func(cfg *RouterConfig) { cfg.IssueLimiter = rl })

	allowed := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodGet, "/captcha/quiz", nil)
		req.RemoteAddr = "10.0.0.1:4000"
		rr := httptest.NewRecorder()
		c.handler.ServeHTTP(rr, req)
		if rr.Code == http.StatusOK {
			allowed++
		} else {
			require.Equal(t, http.StatusTooManyRequests, rr.Code)
		}
	}
	require.Equal(t, 2, allowed)
	require.Equal(t, 1, rl.Len())

	// a client returning with a signed cookie gets its own bucket
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	c.handler.ServeHTTP(rr, req)
	c.cookies = rr.Result().Cookies()
	require.NotEmpty(t, c.cookies)

	req = httptest.NewRequest(http.MethodGet, "/captcha/quiz", nil)
	req.RemoteAddr = "10.0.0.1:4000"
	req.AddCookie(c.cookies[0])
	rr = httptest.NewRecorder()
	c.handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 2, rl.Len())
}

func TestStatus_ThresholdOverride(t *testing.T) {
	c := newTestClient(t)
	c.do(http.MethodGet, "/captcha/quiz", "", "")
	c.do(http.MethodPost, "/captcha/quiz/check", "application/json", `{"response":"blue"}`)

	var st captcha.Status
	decodeData(t, c.do(http.MethodGet, "/captcha/quiz/status", "", ""), &st)
	require.False(t, st.Promoted)

	decodeData(t, c.do(http.MethodGet, "/captcha/quiz/status?threshold=1", "", ""), &st)
	require.True(t, st.Promoted)

	rr := c.do(http.MethodGet, "/captcha/quiz/status?threshold=zero", "", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestReset(t *testing.T) {
	c := newTestClient(t)
	c.do(http.MethodGet, "/captcha/quiz", "", "")
	c.do(http.MethodPost, "/captcha/quiz/check", "application/json", `{"response":"nope"}`)

	rr := c.do(http.MethodDelete, "/captcha/quiz/counts", "", "")
	require.Equal(t, http.StatusNoContent, rr.Code)

	var st captcha.Status
	decodeData(t, c.do(http.MethodGet, "/captcha/quiz/status", "", ""), &st)
	require.Equal(t, 0, st.InvalidCount)
}

func TestErrors(t *testing.T) {
	c := newTestClient(t)

	tests := []struct {
		name        string
		method      string
		target      string
		contentType string
		body        string
		status      int
	}{
		{"unknown group", http.MethodGet, "/captcha/nope", "", "", http.StatusNotFound},
		{"unknown route", http.MethodGet, "/nowhere", "", "", http.StatusNotFound},
		{"malformed json", http.MethodPost, "/captcha/quiz/check", "application/json", "{", http.StatusBadRequest},
		{"empty body", http.MethodPost, "/captcha/quiz/check", "application/json", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := c.do(tt.method, tt.target, tt.contentType, tt.body)
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rr.Code, tt.status, rr.Body.String())
			}
		})
	}
}

func TestImageEndpoints(t *testing.T) {
	c := newTestClient(t)

	rr := c.do(http.MethodGet, "/captcha/default/image", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	require.Equal(t, "\x89PNG", rr.Body.String()[:4])

	rr = c.do(http.MethodGet, "/captcha/default", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var issued IssueResponse
	decodeData(t, rr, &issued)
	require.Equal(t, captcha.StyleImage, issued.Style)
	require.True(t, strings.HasPrefix(issued.Image, "data:image/png;base64,"))
	require.Contains(t, issued.HTML, "/captcha/default/image")
}

func TestSessionHeaderForNonBrowserClients(t *testing.T) {
	c := newTestClient(t)
	rr := c.do(http.MethodGet, "/captcha/quiz", "", "")
	token := rr.Header().Get(session.HeaderName)
	require.NotEmpty(t, token)

	req := httptest.NewRequest(http.MethodPost, "/captcha/quiz/check", strings.NewReader(`{"response":"blue"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(session.HeaderName, token)
	rr = httptest.NewRecorder()
	c.handler.ServeHTTP(rr, req)

	var res CheckResponse
	decodeData(t, rr, &res)
	require.True(t, res.Valid)
}

func TestMetricsEndpoint(t *testing.T) {
	c := newTestClient(t)
	c.do(http.MethodGet, "/captcha/quiz", "", "")

	rr := c.do(http.MethodGet, "/metrics?format=prometheus", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "captcha_issued_total")

	rr = c.do(http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "quiz")
}
