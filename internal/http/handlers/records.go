package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/disaforms-backend/internal/http/response"
	"github.com/yungbote/disaforms-backend/internal/services"
)

type RecordHandler struct {
	records services.RecordService
}

func NewRecordHandler(records services.RecordService) *RecordHandler {
	return &RecordHandler{records: records}
}

// GET /api/forms/:formType/details?date=YYYY-MM-DD&machine=...[&shift=N]
func (h *RecordHandler) Details(c *gin.Context) {
	shift, err := optionalInt(c, "shift")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	d, err := h.records.Details(c.Request.Context(), services.DetailsQuery{
		FormType: formType(c),
		Date:     strings.TrimSpace(c.Query("date")),
		Machine:  strings.TrimSpace(c.Query("machine")),
		Shift:    shift,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, d)
}

// POST /api/forms/:formType/save
func (h *RecordHandler) Save(c *gin.Context) {
	var req services.SaveRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	res, err := h.records.Save(c.Request.Context(), formType(c), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"recordIds": res.RecordIDs,
		"inserted":  res.Inserted,
		"updated":   res.Updated,
		"deleted":   res.Deleted,
	})
}

// GET /api/forms/:formType/records?fromDate&toDate[&machine]
func (h *RecordHandler) List(c *gin.Context) {
	rows, err := h.records.List(c.Request.Context(), rangeQuery(c))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"records": rows})
}

// DELETE /api/forms/:formType/records/:id
func (h *RecordHandler) Delete(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if err := h.records.Delete(c.Request.Context(), formType(c), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /api/forms/:formType/last-value/:field
func (h *RecordHandler) LastValue(c *gin.Context) {
	field := c.Param("field")
	v, err := h.records.LastValue(c.Request.Context(), formType(c), field)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"field": field, "value": v})
}
