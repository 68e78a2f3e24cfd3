package metrics

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// 指标类型
const (
	TypeCounter   = "counter"
	TypeGauge     = "gauge"
	TypeHistogram = "histogram"
)

// historySize 直方图保留的最近观测值数量
const historySize = 100

// Collector 指标收集器
type Collector struct {
	metrics map[string]*Metric
	mu      sync.RWMutex
	now     func() time.Time
}

// Metric 指标
type Metric struct {
	Name      string            `json:"name"`
	Type      string            `json:"type"`
	Value     float64           `json:"value"`
	Labels    map[string]string `json:"labels,omitempty"`
	History   []float64         `json:"history,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

// NewCollector 创建指标收集器
func NewCollector() *Collector {
	return &Collector{
		metrics: make(map[string]*Metric),
		now:     time.Now,
	}
}

// IncCounter 增加计数器
func (c *Collector) IncCounter(name string, labels map[string]string) {
	c.AddCounter(name, 1, labels)
}

// AddCounter 增加计数器值
func (c *Collector) AddCounter(name string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.metric(name, TypeCounter, labels)
	m.Value += value
}

// SetGauge 设置仪表值
func (c *Collector) SetGauge(name string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.metric(name, TypeGauge, labels).Value = value
}

// ObserveHistogram 观察直方图，Value 为最近一次观测值
func (c *Collector) ObserveHistogram(name string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.metric(name, TypeHistogram, labels)
	m.Value = value
	m.History = append(m.History, value)
	if len(m.History) > historySize {
		m.History = m.History[len(m.History)-historySize:]
	}
}

// metric 获取或创建指标，调用方需持有写锁
func (c *Collector) metric(name, typ string, labels map[string]string) *Metric {
	key := buildKey(name, labels)
	m, ok := c.metrics[key]
	if !ok {
		m = &Metric{Name: name, Type: typ, Labels: copyLabels(labels)}
		c.metrics[key] = m
	}
	m.Timestamp = c.now().Unix()
	return m
}

// RecordRequest 记录 HTTP 请求
func (c *Collector) RecordRequest(method, route string, status int, duration float64) {
	labels := map[string]string{
		"method": method,
		"route":  route,
		"status": statusClass(status),
	}

	c.IncCounter("http_requests_total", labels)
	c.ObserveHistogram("http_request_duration_seconds", duration, labels)
}

// GetMetrics 获取所有指标的副本
func (c *Collector) GetMetrics() map[string]*Metric {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]*Metric, len(c.metrics))
	for k, v := range c.metrics {
		cp := *v
		cp.Labels = copyLabels(v.Labels)
		cp.History = append([]float64(nil), v.History...)
		result[k] = &cp
	}
	return result
}

// GetMetric 获取单个指标，不存在时返回 nil
func (c *Collector) GetMetric(name string, labels map[string]string) *Metric {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.metrics[buildKey(name, labels)]
	if !ok {
		return nil
	}
	cp := *m
	return &cp
}

// Value 返回指标值，不存在时为 0
func (c *Collector) Value(name string, labels map[string]string) float64 {
	if m := c.GetMetric(name, labels); m != nil {
		return m.Value
	}
	return 0
}

// Sum 累加同名指标在所有标签组合下的值
func (c *Collector) Sum(name string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var total float64
	for _, m := range c.metrics {
		if m.Name == name {
			total += m.Value
		}
	}
	return total
}

// Reset 重置指标
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = make(map[string]*Metric)
}

// buildKey 按标签名排序构建指标键
func buildKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(name)
	for _, k := range keys {
		sb.WriteString(":")
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(labels[k])
	}
	return sb.String()
}

func copyLabels(labels map[string]string) map[string]string {
	if len(labels) == 0 {
		return nil
	}
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
