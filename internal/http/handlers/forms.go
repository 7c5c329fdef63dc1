package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/disaforms-backend/internal/data/aggregates"
	"github.com/yungbote/disaforms-backend/internal/forms"
	"github.com/yungbote/disaforms-backend/internal/http/response"
	"github.com/yungbote/disaforms-backend/internal/services"
)

// FormHandler serves the form catalogue plus the custom-column registry and
// checkpoint master of each form.
type FormHandler struct {
	cat         *forms.Catalogue
	columns     services.ColumnService
	checkpoints services.CheckpointService
}

func NewFormHandler(cat *forms.Catalogue, columns services.ColumnService, checkpoints services.CheckpointService) *FormHandler {
	return &FormHandler{
		cat:         cat,
		columns:     columns,
		checkpoints: checkpoints,
	}
}

// GET /api/forms
func (h *FormHandler) ListForms(c *gin.Context) {
	response.RespondOK(c, gin.H{"forms": h.cat.All()})
}

// GET /api/forms/:formType
func (h *FormHandler) GetForm(c *gin.Context) {
	s, err := h.cat.Get(formType(c))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"form": s})
}

// GET /api/forms/:formType/custom-columns
func (h *FormHandler) ListColumns(c *gin.Context) {
	cols, err := h.columns.List(c.Request.Context(), formType(c))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"columns": cols})
}

type columnRequest struct {
	Label string `json:"label"`
}

// POST /api/forms/:formType/custom-columns
// body: { "label": "..." }
func (h *FormHandler) AddColumn(c *gin.Context) {
	var req columnRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	col, err := h.columns.Add(c.Request.Context(), formType(c), req.Label)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"column": col})
}

// PUT /api/forms/:formType/custom-columns/:id
func (h *FormHandler) RenameColumn(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var req columnRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	col, err := h.columns.Rename(c.Request.Context(), formType(c), id, req.Label)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"column": col})
}

// DELETE /api/forms/:formType/custom-columns/:id
func (h *FormHandler) RemoveColumn(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if err := h.columns.Remove(c.Request.Context(), formType(c), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /api/forms/:formType/checkpoints
func (h *FormHandler) ListCheckpoints(c *gin.Context) {
	cps, err := h.checkpoints.List(c.Request.Context(), formType(c))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"checkpoints": cps})
}

// PUT /api/forms/:formType/checkpoints
// body: { "checkpoints": [{ "id"?, "description", "method" }] } in display order
func (h *FormHandler) ReplaceCheckpoints(c *gin.Context) {
	var req struct {
		Checkpoints []aggregates.CheckpointInput `json:"checkpoints"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	cps, err := h.checkpoints.Replace(c.Request.Context(), formType(c), req.Checkpoints)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"checkpoints": cps})
}
