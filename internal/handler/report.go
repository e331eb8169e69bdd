package handler

import (
	"fmt"
	"net/http"
	"time"
)

// salesReport handles GET /api/reports/sales.xlsx?from=YYYY-MM-DD&to=YYYY-MM-DD.
// The range is half-open: from is included, to is not.
func (s *Server) salesReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid_query", "from must be a YYYY-MM-DD date")
		return
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid_query", "to must be a YYYY-MM-DD date")
		return
	}
	if !to.After(from) {
		writeError(ctx, w, http.StatusBadRequest, "invalid_query", "to must be after from")
		return
	}

	data, err := s.reports.SalesXLSX(ctx, from, to)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, "internal", "could not build report")
		return
	}

	filename := fmt.Sprintf("sales_%s_%s.xlsx", from.Format("2006-01-02"), to.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
