package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"fees-module/http/response"
	svc "fees-module/http/services"
)

// DefaulterHandler serves the admin class-wise defaulter report.
type DefaulterHandler struct {
	defaulters *svc.DefaulterService
}

func NewDefaulterHandler(defaulters *svc.DefaulterService) *DefaulterHandler {
	return &DefaulterHandler{defaulters: defaulters}
}

// ClassWise returns students with due > 0 grouped by class.
func (h *DefaulterHandler) ClassWise(w http.ResponseWriter, r *http.Request) {
	report, err := h.defaulters.ClassWise(r.Context())
	if err != nil {
		response.Err(w, err)
		return
	}

	response.SuccessResponse(w, http.StatusOK, "", report)
}

// Export streams the defaulter report as an XLSX download.
func (h *DefaulterHandler) Export(w http.ResponseWriter, r *http.Request) {
	report, err := h.defaulters.ClassWise(r.Context())
	if err != nil {
		response.Err(w, err)
		return
	}

	f, err := svc.ExportDefaulters(report)
	if err != nil {
		log.Printf("Error building defaulter export: %v", err)
		response.ErrorResponse(w, http.StatusInternalServerError, "Error building export")
		return
	}

	fileName := fmt.Sprintf("defaulters_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	if err := f.Write(w); err != nil {
		log.Printf("Error streaming defaulter export: %v", err)
	}
}
