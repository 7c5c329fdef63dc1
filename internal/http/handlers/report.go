package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/disaforms-backend/internal/http/response"
	"github.com/yungbote/disaforms-backend/internal/services"
)

type ReportHandler struct {
	reports services.ReportService
}

func NewReportHandler(reports services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// GET /api/forms/:formType/bulk-data?fromDate&toDate[&machine]
func (h *ReportHandler) Bulk(c *gin.Context) {
	groups, err := h.reports.Bulk(c.Request.Context(), rangeQuery(c))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"groups": groups})
}

// GET /api/forms/:formType/report?fromDate&toDate[&machine][&format=pdf|xlsx]
func (h *ReportHandler) Report(c *gin.Context) {
	out, err := h.reports.Render(c.Request.Context(), rangeQuery(c), c.Query("format"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Filename))
	c.Data(http.StatusOK, out.ContentType, out.Body)
}
