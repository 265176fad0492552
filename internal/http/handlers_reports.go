package httpx

import (
	"net/http"
	"strconv"

	"github.com/loopkitchen/storewatch/internal/domain/model"
	apperrors "github.com/loopkitchen/storewatch/internal/errors"
	"github.com/loopkitchen/storewatch/internal/report"
	"github.com/loopkitchen/storewatch/internal/service"
)

// ReportHandlers provides HTTP handlers for report lifecycle operations.
type ReportHandlers struct {
	Svc *service.ReportService
}

// reportResponse is the wire shape of a report.
type reportResponse struct {
	ReportID  string  `json:"report_id"`
	Status    string  `json:"status"`
	ResultURL *string `json:"result_url,omitempty"`
	LastError *string `json:"last_error,omitempty"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
	Message   string  `json:"message,omitempty"`
}

func toReportResponse(r *model.Report) reportResponse {
	resp := reportResponse{
		ReportID:  r.ReportID,
		Status:    string(r.Status),
		LastError: r.LastError,
		CreatedAt: r.CreatedAt.Format(timeLayout),
		UpdatedAt: r.UpdatedAt.Format(timeLayout),
	}
	if r.ResultURL != nil {
		publicURL := report.PublicURL(*r.ResultURL)
		resp.ResultURL = &publicURL
	}
	return resp
}

// TriggerReport handles HTTP requests to start a report run. When a report is
// already in flight its id is returned instead of starting a second run.
func (h *ReportHandlers) TriggerReport(w http.ResponseWriter, r *http.Request) {
	result, err := h.Svc.Trigger(r.Context())
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "trigger_failed", Err: err})
		return
	}

	resp := toReportResponse(result.Report)
	resp.Message = result.Message

	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	code := http.StatusOK
	if result.Created {
		code = http.StatusAccepted
	}
	WriteJSON(w, code, resp)
}

// GetReport handles HTTP requests to poll a report's status.
func (h *ReportHandlers) GetReport(w http.ResponseWriter, r *http.Request) {
	reportID := r.PathValue("id")

	result, err := h.Svc.Poll(r.Context(), reportID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			WriteDetail(w, http.StatusNotFound, apperrors.GetMessage(err))
			return
		}
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "poll_failed", Err: err})
		return
	}

	if result.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	}
	WriteJSON(w, http.StatusOK, toReportResponse(result.Report))
}

// ListReports handles HTTP requests to list recent reports, newest first.
func (h *ReportHandlers) ListReports(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	reports, err := h.Svc.List(r.Context(), limit, offset)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "list_failed", Err: err})
		return
	}

	out := make([]reportResponse, 0, len(reports))
	for _, rep := range reports {
		out = append(out, toReportResponse(rep))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"reports": out})
}

// parseIntQuery parses an integer query parameter with a fallback default.
func parseIntQuery(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// timeLayout is RFC 3339 with sub-second precision dropped; the lifecycle
// timestamps are second-granular.
const timeLayout = "2006-01-02T15:04:05Z07:00"
