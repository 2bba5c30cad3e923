package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"promo-data/internal/devices"
	"promo-data/internal/service"
)

// DeviceHandler 设备别名搜索 / 别名表 / 新设备检测
type DeviceHandler struct {
	devices   *service.DeviceService
	detection *service.DetectionService // 可为 nil
	logger    *zap.Logger
}

func NewDeviceHandler(devs *service.DeviceService, detection *service.DetectionService, logger *zap.Logger) *DeviceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeviceHandler{devices: devs, detection: detection, logger: logger}
}

// BatchRequest 别名列表；aliases 与 text（每行一个）二选一
type BatchRequest struct {
	Aliases []string `json:"aliases"`
	Text    string   `json:"text"`
}

func (b BatchRequest) list() []string {
	var out []string
	for _, a := range b.Aliases {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return append(out, devices.ParseAliasList(b.Text)...)
}

// SearchRow 一行匹配结果：搜索词 + 目录原始列
type SearchRow struct {
	SearchTerm string            `json:"search_term"`
	Model      string            `json:"model"`
	Columns    map[string]string `json:"columns"`
}

// SearchResponse 搜索结果
type SearchResponse struct {
	Available bool                   `json:"available"`
	Status    string                 `json:"status,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Header    []string               `json:"header"`
	Rows      []SearchRow            `json:"rows"`
	Summary   []devices.AliasSummary `json:"summary"`
	Counts    map[string]int         `json:"counts"`
}

func toResponse(out *service.SearchOutcome) SearchResponse {
	resp := SearchResponse{
		Available: out.Available,
		Message:   out.Message,
		Header:    out.Header,
		Rows:      make([]SearchRow, 0, len(out.Batch.Rows)),
		Summary:   out.Batch.Summary,
		Counts:    out.Batch.Counts(),
	}
	if !out.Available {
		resp.Status = service.StatusUnavailable
	}
	if resp.Summary == nil {
		resp.Summary = []devices.AliasSummary{}
	}
	for _, row := range out.Batch.Rows {
		resp.Rows = append(resp.Rows, SearchRow{SearchTerm: row.Alias, Model: row.Device.Model, Columns: row.Device.Row})
	}
	return resp
}

// Search GET /device/api/v1/search?alias=
func (h *DeviceHandler) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	alias := strings.TrimSpace(r.URL.Query().Get("alias"))
	if alias == "" {
		writeJSON(w, http.StatusOK, Fail("alias is required"))
		return
	}
	resp := toResponse(h.devices.Search(r.Context(), alias))
	if len(resp.Summary) == 1 {
		resp.Status = resp.Summary[0].Status
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// BatchSearch POST /device/api/v1/batch
func (h *DeviceHandler) BatchSearch(w http.ResponseWriter, r *http.Request) {
	aliases, ok := h.readBatch(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, Ok(toResponse(h.devices.BatchSearch(r.Context(), aliases))))
}

// ExportBatch POST /device/api/v1/batch/export，返回 xlsx
func (h *DeviceHandler) ExportBatch(w http.ResponseWriter, r *http.Request) {
	aliases, ok := h.readBatch(w, r)
	if !ok {
		return
	}
	data, out, err := h.devices.ExportBatch(r.Context(), aliases)
	if err != nil {
		h.logger.Error("ExportBatch failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to export: %v", err)))
		return
	}
	if !out.Available {
		writeJSON(w, http.StatusOK, FailWith(out.Message, toResponse(out)))
		return
	}
	name := fmt.Sprintf("device_search_results_%s.xlsx", time.Now().Format("20060102_150405"))
	writeFile(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", name, data)
}

func (h *DeviceHandler) readBatch(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return nil, false
	}
	var req BatchRequest
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("invalid body: %v", err)))
		return nil, false
	}
	aliases := req.list()
	if len(aliases) == 0 {
		writeJSON(w, http.StatusOK, Fail("no aliases provided"))
		return nil, false
	}
	return aliases, true
}

// RebuildMapping POST /device/api/v1/mapping/rebuild
func (h *DeviceHandler) RebuildMapping(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	stats, err := h.devices.RebuildMapping(r.Context())
	if err != nil {
		if devices.IsNotFound(err) {
			writeJSON(w, http.StatusOK, Fail(err.Error()))
			return
		}
		h.logger.Error("RebuildMapping failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to rebuild mapping: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(stats))
}

// RunDetection POST /device/api/v1/detection/run
func (h *DeviceHandler) RunDetection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if h.detection == nil {
		writeJSON(w, http.StatusOK, Fail("device detection is not configured"))
		return
	}
	det, err := h.detection.RunOnce(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrDetectionRunning) {
			writeJSON(w, http.StatusConflict, Fail(err.Error()))
			return
		}
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(det))
}

// DetectionStatus GET /device/api/v1/detection/status
func (h *DeviceHandler) DetectionStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if h.detection == nil {
		writeJSON(w, http.StatusOK, Fail("device detection is not configured"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(h.detection.Status()))
}
