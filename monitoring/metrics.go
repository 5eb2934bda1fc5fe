package monitoring

import (
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MetricType 指标类型
type MetricType string

const (
	MetricTypeCounter   MetricType = "counter"
	MetricTypeGauge     MetricType = "gauge"
	MetricTypeHistogram MetricType = "histogram"
)

// 每个指标保留的最大历史条数
const maxHistory = 1000

// 预测服务使用的指标名
const (
	MetricPredictRequests = "predict_requests_total"
	MetricPredictErrors   = "predict_errors_total"
	MetricPredictRejected = "predict_rejected_total"
	MetricPredictLatency  = "predict_latency_ms"
	MetricCacheHits       = "predict_cache_hits"
	MetricCacheMisses     = "predict_cache_misses"
)

// Metric 指标
type Metric struct {
	Name      string            `json:"name"`
	Type      MetricType        `json:"type"`
	Value     float64           `json:"value"`
	Labels    map[string]string `json:"labels,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Help      string            `json:"help,omitempty"`
}

// Summary 指标摘要
type Summary struct {
	Name    string     `json:"name"`
	Type    MetricType `json:"type"`
	Count   int        `json:"count"`
	Total   float64    `json:"total"`
	Latest  float64    `json:"latest"`
	Min     float64    `json:"min"`
	Max     float64    `json:"max"`
	Average float64    `json:"average"`
	Updated time.Time  `json:"updated"`
}

// MetricsCollector 指标收集器
type MetricsCollector struct {
	metrics     map[string][]Metric
	totals      map[string]float64
	counts      map[string]int
	series      map[string]map[string]float64 // 计数器按标签集合分别累计
	metricsLock sync.RWMutex

	startTime time.Time
}

// NewMetricsCollector 创建指标收集器
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics:   make(map[string][]Metric),
		totals:    make(map[string]float64),
		counts:    make(map[string]int),
		series:    make(map[string]map[string]float64),
		startTime: time.Now(),
	}
}

// RecordMetric 记录指标
func (mc *MetricsCollector) RecordMetric(metric Metric) {
	mc.metricsLock.Lock()
	defer mc.metricsLock.Unlock()

	metric.Timestamp = time.Now()
	history := append(mc.metrics[metric.Name], metric)
	// 限制历史大小，计数与总和不受截断影响
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}
	mc.metrics[metric.Name] = history
	mc.totals[metric.Name] += metric.Value
	mc.counts[metric.Name]++
	if metric.Type == MetricTypeCounter {
		if mc.series[metric.Name] == nil {
			mc.series[metric.Name] = make(map[string]float64)
		}
		mc.series[metric.Name][formatLabels(metric.Labels)] += metric.Value
	}
}

// formatLabels 生成Prometheus标签串，如 {reason="form"}；无标签时为空串
func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + strconv.Quote(labels[k])
	}
	return "{" + strings.Join(pairs, ",") + "}"
}

// IncrCounter 增加计数器
func (mc *MetricsCollector) IncrCounter(name string, labels map[string]string) {
	mc.RecordMetric(Metric{Name: name, Type: MetricTypeCounter, Value: 1, Labels: labels})
}

// SetGauge 设置仪表
func (mc *MetricsCollector) SetGauge(name string, value float64) {
	mc.RecordMetric(Metric{Name: name, Type: MetricTypeGauge, Value: value})
}

// ObserveDuration 记录耗时（毫秒）
func (mc *MetricsCollector) ObserveDuration(name string, d time.Duration) {
	mc.RecordMetric(Metric{Name: name, Type: MetricTypeHistogram, Value: float64(d) / float64(time.Millisecond)})
}

// GetSummary 获取指标摘要
func (mc *MetricsCollector) GetSummary(name string) (Summary, error) {
	mc.metricsLock.RLock()
	defer mc.metricsLock.RUnlock()

	history, ok := mc.metrics[name]
	if !ok || len(history) == 0 {
		return Summary{}, fmt.Errorf("metric %s not found", name)
	}
	return mc.summarize(name, history), nil
}

// GetAllSummaries 获取全部指标摘要
func (mc *MetricsCollector) GetAllSummaries() []Summary {
	mc.metricsLock.RLock()
	defer mc.metricsLock.RUnlock()

	names := make([]string, 0, len(mc.metrics))
	for name := range mc.metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]Summary, 0, len(names))
	for _, name := range names {
		result = append(result, mc.summarize(name, mc.metrics[name]))
	}
	return result
}

func (mc *MetricsCollector) summarize(name string, history []Metric) Summary {
	latest := history[len(history)-1]
	s := Summary{
		Name:    name,
		Type:    latest.Type,
		Count:   mc.counts[name],
		Total:   mc.totals[name],
		Latest:  latest.Value,
		Min:     history[0].Value,
		Max:     history[0].Value,
		Updated: latest.Timestamp,
	}
	sum := 0.0
	for _, m := range history {
		sum += m.Value
		if m.Value < s.Min {
			s.Min = m.Value
		}
		if m.Value > s.Max {
			s.Max = m.Value
		}
	}
	s.Average = sum / float64(len(history))
	return s
}

// ExportPrometheus 导出Prometheus文本格式
func (mc *MetricsCollector) ExportPrometheus() string {
	summaries := mc.GetAllSummaries()

	mc.metricsLock.RLock()
	defer mc.metricsLock.RUnlock()

	var b strings.Builder
	for _, s := range summaries {
		switch s.Type {
		case MetricTypeCounter:
			fmt.Fprintf(&b, "# TYPE %s counter\n", s.Name)
			series := mc.series[s.Name]
			keys := make([]string, 0, len(series))
			for k := range series {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(&b, "%s%s %g\n", s.Name, k, series[k])
			}
		case MetricTypeHistogram:
			// 不保留分桶，只导出总和与次数，按summary暴露
			fmt.Fprintf(&b, "# TYPE %s summary\n", s.Name)
			fmt.Fprintf(&b, "%s_sum %g\n%s_count %d\n", s.Name, s.Total, s.Name, s.Count)
		default:
			fmt.Fprintf(&b, "# TYPE %s %s\n", s.Name, s.Type)
			fmt.Fprintf(&b, "%s %g\n", s.Name, s.Latest)
		}
	}
	return b.String()
}

// GetUptime 获取运行时间
func (mc *MetricsCollector) GetUptime() time.Duration {
	return time.Since(mc.startTime)
}

// GetSystemStats 获取系统统计
func (mc *MetricsCollector) GetSystemStats() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]interface{}{
		"uptime":     mc.GetUptime().String(),
		"goroutines": runtime.NumGoroutine(),
		"memory": map[string]interface{}{
			"heap_alloc": m.HeapAlloc,
			"heap_sys":   m.HeapSys,
			"gc_count":   m.NumGC,
		},
	}
}
