// Package metrics 提供Prometheus文本格式的监控指标
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// 指标名称
const (
	HTTPRequestsTotal   = "kinmu_http_requests_total"
	HTTPRequestDuration = "kinmu_http_request_duration_seconds"
	RunsTotal           = "kinmu_schedule_runs_total"
	RunDuration         = "kinmu_schedule_run_duration_seconds"
	ActiveRuns          = "kinmu_active_runs"
	ModelSize           = "kinmu_model_size"
	AuditViolations     = "kinmu_audit_violations_total"
	PriorityFullRate    = "kinmu_priority_full_rate"
	ArchiveTotal        = "kinmu_archive_total"
)

// MetricsRegistry 指标注册表
type MetricsRegistry struct {
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
	mu         sync.RWMutex
}

// Counter 计数器
type Counter struct {
	Name   string
	Help   string
	Labels []string
	values map[string]float64
	mu     sync.RWMutex
}

// Gauge 仪表盘
type Gauge struct {
	Name   string
	Help   string
	Labels []string
	values map[string]float64
	mu     sync.RWMutex
}

// Histogram 直方图
type Histogram struct {
	Name    string
	Help    string
	Labels  []string
	Buckets []float64
	counts  map[string][]int
	sums    map[string]float64
	mu      sync.RWMutex
}

var (
	registry *MetricsRegistry
	once     sync.Once
)

// GetRegistry 获取全局注册表
func GetRegistry() *MetricsRegistry {
	once.Do(func() {
		registry = NewRegistry()
		registry.registerDefaults()
	})
	return registry
}

// NewRegistry 创建空注册表
func NewRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		counters:   make(map[string]*Counter),
		gauges:     make(map[string]*Gauge),
		histograms: make(map[string]*Histogram),
	}
}

func (r *MetricsRegistry) registerDefaults() {
	r.NewCounter(HTTPRequestsTotal, "HTTP请求总数", []string{"method", "path", "status"})
	r.NewHistogram(HTTPRequestDuration, "HTTP请求延迟",
		[]string{"method", "path"},
		[]float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0, 300.0})

	r.NewCounter(RunsTotal, "排班求解次数", []string{"solver", "status"})
	r.NewHistogram(RunDuration, "排班求解耗时",
		[]string{"solver"},
		[]float64{0.01, 0.1, 0.5, 1.0, 5.0, 10.0, 30.0, 60.0, 300.0})
	r.NewGauge(ActiveRuns, "正在进行的排班求解数", []string{})
	r.NewGauge(ModelSize, "最近一次约束模型规模", []string{"kind"})
	r.NewCounter(AuditViolations, "审计发现的违规次数", []string{"rule"})
	r.NewGauge(PriorityFullRate, "最近一次排班重点日满员率", []string{})
	r.NewCounter(ArchiveTotal, "排班结果归档次数", []string{"result"})
}

// NewCounter 创建计数器
func (r *MetricsRegistry) NewCounter(name, help string, labels []string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()

	counter := &Counter{
		Name:   name,
		Help:   help,
		Labels: labels,
		values: make(map[string]float64),
	}
	r.counters[name] = counter
	return counter
}

// NewGauge 创建仪表盘
func (r *MetricsRegistry) NewGauge(name, help string, labels []string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()

	gauge := &Gauge{
		Name:   name,
		Help:   help,
		Labels: labels,
		values: make(map[string]float64),
	}
	r.gauges[name] = gauge
	return gauge
}

// NewHistogram 创建直方图
func (r *MetricsRegistry) NewHistogram(name, help string, labels []string, buckets []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()

	histogram := &Histogram{
		Name:    name,
		Help:    help,
		Labels:  labels,
		Buckets: buckets,
		counts:  make(map[string][]int),
		sums:    make(map[string]float64),
	}
	r.histograms[name] = histogram
	return histogram
}

// GetCounter 获取计数器
func (r *MetricsRegistry) GetCounter(name string) *Counter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counters[name]
}

// GetGauge 获取仪表盘
func (r *MetricsRegistry) GetGauge(name string) *Gauge {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gauges[name]
}

// GetHistogram 获取直方图
func (r *MetricsRegistry) GetHistogram(name string) *Histogram {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.histograms[name]
}

// Inc 增加计数
func (c *Counter) Inc(labelValues ...string) {
	c.Add(1, labelValues...)
}

// Add 增加指定值
func (c *Counter) Add(value float64, labelValues ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[labelKey(labelValues)] += value
}

// Value 当前值
func (c *Counter) Value(labelValues ...string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[labelKey(labelValues)]
}

// Set 设置值
func (g *Gauge) Set(value float64, labelValues ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values[labelKey(labelValues)] = value
}

// Inc 增加
func (g *Gauge) Inc(labelValues ...string) {
	g.Add(1, labelValues...)
}

// Dec 减少
func (g *Gauge) Dec(labelValues ...string) {
	g.Add(-1, labelValues...)
}

// Add 增加指定值
func (g *Gauge) Add(value float64, labelValues ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values[labelKey(labelValues)] += value
}

// Value 当前值
func (g *Gauge) Value(labelValues ...string) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.values[labelKey(labelValues)]
}

// Observe 记录观测值
func (h *Histogram) Observe(value float64, labelValues ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := labelKey(labelValues)
	if _, exists := h.counts[key]; !exists {
		h.counts[key] = make([]int, len(h.Buckets)+1)
	}

	// 只计入第一个满足的 bucket，输出时再累加
	idx := len(h.Buckets)
	for i, bucket := range h.Buckets {
		if value <= bucket {
			idx = i
			break
		}
	}
	h.counts[key][idx]++
	h.sums[key] += value
}

// Count 观测次数
func (h *Histogram) Count(labelValues ...string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, n := range h.counts[labelKey(labelValues)] {
		total += n
	}
	return total
}

func labelKey(labels []string) string {
	return strings.Join(labels, ",")
}

func splitLabelKey(key string) []string {
	if key == "" {
		return nil
	}
	return strings.Split(key, ",")
}

func formatLabels(names []string, key string) string {
	vals := splitLabelKey(key)
	parts := make([]string, len(names))
	for i, name := range names {
		val := ""
		if i < len(vals) {
			val = vals[i]
		}
		parts[i] = fmt.Sprintf("%s=%q", name, val)
	}
	return strings.Join(parts, ",")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Handler 返回Prometheus格式的指标HTTP处理器
func Handler() http.Handler {
	return GetRegistry().Handler()
}

// Handler 输出注册表中的全部指标，按名称排序
func (r *MetricsRegistry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

		r.mu.RLock()
		defer r.mu.RUnlock()

		for _, name := range sortedKeys(r.counters) {
			counter := r.counters[name]
			fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n", name, counter.Help, name)
			counter.mu.RLock()
			for _, key := range sortedKeys(counter.values) {
				writeSample(w, name, counter.Labels, key, counter.values[key])
			}
			counter.mu.RUnlock()
		}

		for _, name := range sortedKeys(r.gauges) {
			gauge := r.gauges[name]
			fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n", name, gauge.Help, name)
			gauge.mu.RLock()
			for _, key := range sortedKeys(gauge.values) {
				writeSample(w, name, gauge.Labels, key, gauge.values[key])
			}
			gauge.mu.RUnlock()
		}

		for _, name := range sortedKeys(r.histograms) {
			h := r.histograms[name]
			fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s histogram\n", name, h.Help, name)
			h.mu.RLock()
			for _, key := range sortedKeys(h.counts) {
				labels := ""
				if key != "" {
					labels = formatLabels(h.Labels, key) + ","
				}
				counts := h.counts[key]
				cumulative := 0
				for i, bucket := range h.Buckets {
					cumulative += counts[i]
					fmt.Fprintf(w, "%s_bucket{%sle=\"%g\"} %d\n", name, labels, bucket, cumulative)
				}
				cumulative += counts[len(h.Buckets)]
				fmt.Fprintf(w, "%s_bucket{%sle=\"+Inf\"} %d\n", name, labels, cumulative)
				writeSample(w, name+"_sum", h.Labels, key, h.sums[key])
				writeSample(w, name+"_count", h.Labels, key, float64(cumulative))
			}
			h.mu.RUnlock()
		}
	})
}

func writeSample(w io.Writer, name string, labelNames []string, key string, value float64) {
	if key == "" {
		fmt.Fprintf(w, "%s %g\n", name, value)
		return
	}
	fmt.Fprintf(w, "%s{%s} %g\n", name, formatLabels(labelNames, key), value)
}

// RecordRequestMetrics 记录请求指标
func RecordRequestMetrics(method, path string, status int, duration time.Duration) {
	registry := GetRegistry()
	if counter := registry.GetCounter(HTTPRequestsTotal); counter != nil {
		counter.Inc(method, path, fmt.Sprintf("%d", status))
	}
	if histogram := registry.GetHistogram(HTTPRequestDuration); histogram != nil {
		histogram.Observe(duration.Seconds(), method, path)
	}
}

// RunStarted 标记一次求解开始，返回的函数在结束时调用
func RunStarted() func() {
	gauge := GetRegistry().GetGauge(ActiveRuns)
	gauge.Inc()
	return func() { gauge.Dec() }
}

// RecordRun 记录一次排班求解，status 为求解状态或错误码
func RecordRun(solver, status string, duration time.Duration) {
	registry := GetRegistry()
	if counter := registry.GetCounter(RunsTotal); counter != nil {
		counter.Inc(solver, status)
	}
	if histogram := registry.GetHistogram(RunDuration); histogram != nil {
		histogram.Observe(duration.Seconds(), solver)
	}
}

// SetModelSize 记录最近一次模型规模
func SetModelSize(vars, rows int) {
	gauge := GetRegistry().GetGauge(ModelSize)
	gauge.Set(float64(vars), "vars")
	gauge.Set(float64(rows), "rows")
}

// RecordAuditViolation 记录审计违规
func RecordAuditViolation(rule string) {
	GetRegistry().GetCounter(AuditViolations).Inc(rule)
}

// SetPriorityFullRate 记录重点日满员率
func SetPriorityFullRate(rate float64) {
	GetRegistry().GetGauge(PriorityFullRate).Set(rate)
}

// RecordArchive 记录归档结果
func RecordArchive(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	GetRegistry().GetCounter(ArchiveTotal).Inc(result)
}
