package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler 支持 http.Handler 接口（/metrics 等）
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

// ServeHTTP 每个请求分配 request id 并记录访问日志
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	id := req.Header.Get("X-Request-ID")
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", id)

	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	start := time.Now()
	r.mux.ServeHTTP(sw, req)
	r.logger.Debug("http request",
		zap.String("request_id", id),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", sw.status),
		zap.Duration("elapsed", time.Since(start)),
	)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// RegisterHealthRoutes 健康检查
func (r *Router) RegisterHealthRoutes() {
	r.Handle("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "ok"}))
	})
}

// RegisterPromoRoutes 促销表单 / 上传 / SQL 生成
func (r *Router) RegisterPromoRoutes(h *PromoHandler) {
	r.Handle("/promo/api/v1/promotions", h.ServeHTTP)
	r.Handle("/promo/api/v1/promotions/", h.ServeHTTP)
}

// RegisterDeviceRoutes 别名搜索 / 别名表重建 / 新设备检测
func (r *Router) RegisterDeviceRoutes(h *DeviceHandler) {
	r.Handle("/device/api/v1/search", h.Search)
	r.Handle("/device/api/v1/batch", h.BatchSearch)
	r.Handle("/device/api/v1/batch/export", h.ExportBatch)
	r.Handle("/device/api/v1/mapping/rebuild", h.RebuildMapping)
	r.Handle("/device/api/v1/detection/run", h.RunDetection)
	r.Handle("/device/api/v1/detection/status", h.DetectionStatus)
}
