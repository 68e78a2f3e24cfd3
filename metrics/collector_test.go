package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestCollector_CounterKeyIgnoresLabelOrder(t *testing.T) {
	c := NewCollector()
	c.IncCounter("hits", map[string]string{"a": "1", "b": "2"})
	c.IncCounter("hits", map[string]string{"b": "2", "a": "1"})

	if got := c.Value("hits", map[string]string{"a": "1", "b": "2"}); got != 2 {
		t.Fatalf("Value = %v, want 2", got)
	}
	if len(c.GetMetrics()) != 1 {
		t.Fatalf("expected one series, got %d", len(c.GetMetrics()))
	}
}

func TestCollector_HistogramKeepsRecentHistory(t *testing.T) {
	c := NewCollector()
	for i := 0; i < historySize+10; i++ {
		c.ObserveHistogram("latency", float64(i), nil)
	}

	m := c.GetMetric("latency", nil)
	if len(m.History) != historySize {
		t.Fatalf("history len = %d, want %d", len(m.History), historySize)
	}
	if m.Value != float64(historySize+9) {
		t.Errorf("Value = %v, want last observation", m.Value)
	}
}

func TestCollector_Sum(t *testing.T) {
	c := NewCollector()
	c.IncCounter("checks", map[string]string{"result": "valid"})
	c.AddCounter("checks", 2, map[string]string{"result": "invalid"})
	c.SetGauge("other", 10, nil)

	if got := c.Sum("checks"); got != 3 {
		t.Fatalf("Sum = %v, want 3", got)
	}
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	c := NewCollector()
	r := chi.NewRouter()
	r.Use(Middleware(c))
	r.Get("/captcha/{group}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/captcha/login", nil))

	labels := map[string]string{"method": "GET", "route": "/captcha/{group}", "status": "4xx"}
	if got := c.Value("http_requests_total", labels); got != 1 {
		t.Fatalf("http_requests_total = %v, metrics = %v", got, c.GetMetrics())
	}
}

func TestHandler_Formats(t *testing.T) {
	c := NewCollector()
	c.IncCounter("captcha_issued_total", map[string]string{"group": "default", "style": "math"})

	rr := httptest.NewRecorder()
	Handler(c).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rr.Body.String(), `"captcha_issued_total"`) {
		t.Errorf("json output missing metric: %s", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	Handler(c).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics?format=prometheus", nil))
	want := `captcha_issued_total{group="default",style="math"} 1`
	if !strings.Contains(rr.Body.String(), want) {
		t.Errorf("prometheus output = %q, want line %q", rr.Body.String(), want)
	}
}
