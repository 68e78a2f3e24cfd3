package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Middleware HTTP 指标中间件，路由标签取 chi 的路由模板
func Middleware(collector *Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			collector.RecordRequest(r.Method, route, ww.statusCode, time.Since(start).Seconds())
		})
	}
}

// responseWriter 包装器
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Handler 指标处理器，?format=prometheus 时输出文本格式
func Handler(collector *Collector) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("format") == "prometheus" {
			w.Header().Set("Content-Type", "text/plain; version=0.0.4")
			_, _ = w.Write([]byte(prometheusText(collector)))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(collector.GetMetrics())
	})
}

// prometheusText 导出 Prometheus 文本格式，直方图只导出最近观测值
func prometheusText(collector *Collector) string {
	metrics := collector.GetMetrics()
	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		m := metrics[k]
		sb.WriteString(m.Name)
		if len(m.Labels) > 0 {
			names := make([]string, 0, len(m.Labels))
			for name := range m.Labels {
				names = append(names, name)
			}
			sort.Strings(names)

			pairs := make([]string, len(names))
			for i, name := range names {
				pairs[i] = fmt.Sprintf("%s=%q", name, m.Labels[name])
			}
			sb.WriteString("{" + strings.Join(pairs, ",") + "}")
		}
		fmt.Fprintf(&sb, " %g\n", m.Value)
	}
	return sb.String()
}
