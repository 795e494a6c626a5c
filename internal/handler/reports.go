package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"classledger/internal/httputil"
	"classledger/internal/ledger"
	"classledger/internal/report"
)

// ReportHandler serves monthly aggregation reports
type ReportHandler struct {
	stores *ledger.Manager
	logger *slog.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(stores *ledger.Manager, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		stores: stores,
		logger: logger,
	}
}

// Monthly returns per-student hour totals for one month.
// GET /api/reports/monthly?month=YYYY-MM
// Defaults to the most recent month that has sessions.
func (h *ReportHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	userID := requireUserID(w, r)
	if userID == "" {
		return
	}

	store, err := h.stores.Acquire(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	snap := store.Snapshot()
	month, ok := h.resolveMonth(r, snap)
	if !ok {
		httputil.RespondError(w, http.StatusBadRequest, "no month given and no sessions recorded")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, report.BuildMonthly(snap, month))
}

// ExportMonthly downloads the monthly report as an Excel workbook.
// GET /api/reports/monthly/export?month=YYYY-MM
func (h *ReportHandler) ExportMonthly(w http.ResponseWriter, r *http.Request) {
	userID := requireUserID(w, r)
	if userID == "" {
		return
	}

	store, err := h.stores.Acquire(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	snap := store.Snapshot()
	month, ok := h.resolveMonth(r, snap)
	if !ok {
		httputil.RespondError(w, http.StatusBadRequest, "no month given and no sessions recorded")
		return
	}

	rep := report.BuildMonthly(snap, month)

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="hours-%s.xlsx"`, month))
	if err := report.WriteMonthlyXLSX(rep, w); err != nil {
		// Headers are already out; all we can do is log
		h.logger.Error("xlsx export failed", "month", month, "error", err)
	}
}

// resolveMonth picks the requested month, falling back to the most
// recent month present in the ledger.
func (h *ReportHandler) resolveMonth(r *http.Request, snap ledger.Snapshot) (string, bool) {
	if month := r.URL.Query().Get("month"); month != "" {
		return month, true
	}
	months := ledger.AvailableMonths(snap.Sessions)
	if len(months) == 0 {
		return "", false
	}
	return months[0], true
}
