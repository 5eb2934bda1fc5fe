package http

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"flightfare/ml"
	"flightfare/monitoring"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.New("index.html").
	Funcs(template.FuncMap{"label": ml.Label}).
	ParseFS(templateFS, "templates/index.html"))

// PricePredictor 价格预测器
type PricePredictor interface {
	Predict(ctx context.Context, req ml.PredictionRequest) (decimal.Decimal, error)
}

// cacheReporter 可选接口，用于上报缓存命中情况
type cacheReporter interface {
	CacheStats() (hits, misses int64)
}

// Handler 持有请求处理所需的只读依赖
type Handler struct {
	predictor PricePredictor
	metrics   *monitoring.MetricsCollector
	logger    *zap.Logger
	strict    bool
}

// HandlerOption 处理器选项
type HandlerOption func(*Handler)

// WithStrictCategories 先规范化类别拼写（大小写、重音、空格），再拒绝取值集合之外的类别，而不是编码为全零
func WithStrictCategories(strict bool) HandlerOption {
	return func(h *Handler) {
		h.strict = strict
	}
}

// WithMetrics 设置指标收集器
func WithMetrics(metrics *monitoring.MetricsCollector) HandlerOption {
	return func(h *Handler) {
		h.metrics = metrics
	}
}

// NewHandler 创建处理器
func NewHandler(predictor PricePredictor, logger *zap.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		predictor: predictor,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.metrics == nil {
		h.metrics = monitoring.NewMetricsCollector()
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h
}

// RegisterHandlers 注册所有路由
func (h *Handler) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("POST /predict", h.handlePredict)
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/schema", handleSchema)
	mux.HandleFunc("POST /api/encode", h.handleEncode)
	mux.HandleFunc("GET /api/metrics", h.handleMetrics)
}

type indexPage struct {
	Cities      []ml.City
	FlightTypes []ml.FlightType
	Agencies    []ml.Agency
	Day         int
	WeekNo      int
	WeekDay     int
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := indexPage{
		Cities:      ml.Cities(),
		FlightTypes: ml.FlightTypes(),
		Agencies:    ml.Agencies(),
		Day:         5,
		WeekNo:      7,
		WeekDay:     5,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, page); err != nil {
		h.logger.Error("render index", zap.Error(err))
	}
}

func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	h.metrics.IncrCounter(monitoring.MetricPredictRequests, nil)

	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	price, err := h.predictor.Predict(r.Context(), req)
	h.metrics.ObserveDuration(monitoring.MetricPredictLatency, time.Since(start))
	if err != nil {
		h.metrics.IncrCounter(monitoring.MetricPredictErrors, nil)
		h.logger.Error("prediction failed",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Any("request", req),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"prediction": ml.FormatPrice(price)})
}

func (h *Handler) handleEncode(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"request":  req,
		"features": ml.Encode(req).Named(),
	})
}

// decodeRequest 解析表单；失败时已写出响应
func (h *Handler) decodeRequest(w http.ResponseWriter, r *http.Request) (ml.PredictionRequest, bool) {
	req, err := parsePredictionForm(r)
	if err != nil {
		h.metrics.IncrCounter(monitoring.MetricPredictRejected, map[string]string{"reason": "form"})
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return req, false
	}
	if h.strict {
		req = req.Canonical()
		if err := req.Validate(); err != nil {
			h.metrics.IncrCounter(monitoring.MetricPredictRejected, map[string]string{"reason": "category"})
			writeError(w, http.StatusBadRequest, err.Error())
			return req, false
		}
	}
	return req, true
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"features":    ml.FeatureNames(),
		"cities":      ml.Cities(),
		"flightTypes": ml.FlightTypes(),
		"agencies":    ml.Agencies(),
	})
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if reporter, ok := h.predictor.(cacheReporter); ok {
		hits, misses := reporter.CacheStats()
		h.metrics.SetGauge(monitoring.MetricCacheHits, float64(hits))
		h.metrics.SetGauge(monitoring.MetricCacheMisses, float64(misses))
	}

	if r.URL.Query().Get("format") == "prometheus" {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		_, _ = w.Write([]byte(h.metrics.ExportPrometheus()))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"metrics": h.metrics.GetAllSummaries(),
		"system":  h.metrics.GetSystemStats(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
