package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"promo-data/internal/domain"
	"promo-data/internal/repository"
	"promo-data/internal/service"
	"promo-data/internal/sqlgen"
)

const promoPrefix = "/promo/api/v1/promotions"

// PromoHandler 促销相关接口
type PromoHandler struct {
	svc    *service.PromoService
	logger *zap.Logger
}

func NewPromoHandler(svc *service.PromoService, logger *zap.Logger) *PromoHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PromoHandler{svc: svc, logger: logger}
}

// PromoSummary 列表项
type PromoSummary struct {
	Code           string    `json:"code"`
	Owner          string    `json:"owner"`
	BillFacingName string    `json:"bill_facing_name"`
	PromoStartDate string    `json:"promo_start_date"`
	PromoEndDate   string    `json:"promo_end_date"`
	HasSQL         bool      `json:"has_sql"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// GenerateResponse SQL 生成结果
type GenerateResponse struct {
	Script     string `json:"script"`
	Statements int    `json:"statements"`
	Error      string `json:"error,omitempty"`
}

// ServeHTTP
//
//	GET    /promotions                      列表
//	GET    /promotions/{code}               读取（不存在时返回默认值，created=true）
//	PUT    /promotions/{code}               保存
//	DELETE /promotions/{code}               删除
//	POST   /promotions/{code}/uploads/{kind} 上传 SKU / trade-in 清单（multipart file）
//	POST   /promotions/{code}/sql           生成 SQL（?format=text 直接下载脚本）
func (h *PromoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, promoPrefix)
	switch {
	case len(parts) == 0:
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.List(w, r)
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			h.Get(w, r, parts[0])
		case http.MethodPut, http.MethodPost:
			h.Save(w, r, parts[0])
		case http.MethodDelete:
			h.Delete(w, r, parts[0])
		default:
			methodNotAllowed(w)
		}
	case len(parts) == 3 && parts[1] == "uploads":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.Upload(w, r, parts[0], parts[2])
	case len(parts) == 2 && parts[1] == "sql":
		if r.Method != http.MethodPost && r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.GenerateSQL(w, r, parts[0])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *PromoHandler) List(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.Error("ListPromotions failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to list promotions: %v", err)))
		return
	}
	out := make([]PromoSummary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, PromoSummary{
			Code:           rec.Code,
			Owner:          rec.Owner.Trim(),
			BillFacingName: rec.BillFacingName.Trim(),
			PromoStartDate: rec.PromoStartDate.Trim(),
			PromoEndDate:   rec.PromoEndDate.Trim(),
			HasSQL:         rec.GeneratedSQL != "",
			UpdatedAt:      rec.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

func (h *PromoHandler) Get(w http.ResponseWriter, r *http.Request, code string) {
	rec, created, err := h.svc.GetOrCreate(r.Context(), code)
	if err != nil {
		h.fail(w, "get promotion", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"record": rec, "created": created}))
}

func (h *PromoHandler) Save(w http.ResponseWriter, r *http.Request, code string) {
	rec := domain.NewPromotionRecord(code)
	if err := readBodyJSON(r, maxJSONBody, rec); err != nil {
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("invalid body: %v", err)))
		return
	}
	if body := strings.TrimSpace(rec.Code); body != "" && body != strings.TrimSpace(code) {
		writeJSON(w, http.StatusOK, Fail("promotion code in body does not match path"))
		return
	}
	// 版本日志和脚本缓存由服务端维护
	rec.Code = code
	rec.VersionHistory = nil
	rec.GeneratedSQL = ""
	if err := h.svc.Save(r.Context(), rec, userName(r)); err != nil {
		h.fail(w, "save promotion", err)
		return
	}
	saved, err := h.svc.Get(r.Context(), code)
	if err != nil {
		h.fail(w, "get promotion", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(saved))
}

func (h *PromoHandler) Delete(w http.ResponseWriter, r *http.Request, code string) {
	if err := h.svc.Delete(r.Context(), code); err != nil {
		h.fail(w, "delete promotion", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"code": code}))
}

func (h *PromoHandler) Upload(w http.ResponseWriter, r *http.Request, code, kind string) {
	if err := r.ParseMultipartForm(service.MaxUploadBytes); err != nil {
		writeJSON(w, http.StatusOK, Fail("failed to parse form"))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusOK, Fail("file not found in request"))
		return
	}
	defer file.Close()

	sum, err := h.svc.StoreUpload(r.Context(), code, kind, file)
	if err != nil {
		h.fail(w, "store upload", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(sum))
}

func (h *PromoHandler) GenerateSQL(w http.ResponseWriter, r *http.Request, code string) {
	res, err := h.svc.GenerateSQL(r.Context(), code)
	if err != nil && res.Script == "" {
		h.fail(w, "generate sql", err)
		return
	}
	if err != nil {
		// 脚本已生成，只是缓存失败
		h.logger.Warn("generated sql not cached", zap.String("promo_code", code), zap.Error(err))
	}

	if r.URL.Query().Get("format") == "text" {
		writeFile(w, "text/plain; charset=utf-8", sqlFileName(code), []byte(res.Script))
		return
	}
	resp := GenerateResponse{Script: res.Script, Statements: res.Statements}
	if !res.OK() {
		resp.Error = res.Err.Error()
		writeJSON(w, http.StatusOK, FailWith(resp.Error, resp))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func sqlFileName(code string) string {
	return fmt.Sprintf("%s_%s.sql", strings.TrimSpace(code), time.Now().Format("20060102"))
}

func (h *PromoHandler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeJSON(w, http.StatusNotFound, Fail(err.Error()))
	case errors.Is(err, service.ErrInvalidCode), sqlgen.IsValidationError(err):
		writeJSON(w, http.StatusOK, Fail(err.Error()))
	default:
		h.logger.Error(op+" failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to %s: %v", op, err)))
	}
}
