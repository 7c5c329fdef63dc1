package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/disaforms-backend/internal/http/response"
	"github.com/yungbote/disaforms-backend/internal/services"
)

type SignoffHandler struct {
	signoff services.SignoffService
	ncrs    services.NCRService
}

func NewSignoffHandler(signoff services.SignoffService, ncrs services.NCRService) *SignoffHandler {
	return &SignoffHandler{signoff: signoff, ncrs: ncrs}
}

// GET /api/forms/:formType/pending/:role/:person
func (h *SignoffHandler) Pending(c *gin.Context) {
	items, err := h.signoff.Pending(c.Request.Context(), formType(c), c.Param("role"), c.Param("person"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"pending": items})
}

// POST /api/forms/:formType/sign
// body: { "recordId"? | "date", "machine", "shift"?; "role", "signature", "signerName"? }
func (h *SignoffHandler) Sign(c *gin.Context) {
	var req services.SignRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	res, err := h.signoff.Sign(c.Request.Context(), formType(c), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"role": res.Role, "recordIds": res.RecordIDs})
}

// POST /api/forms/:formType/ncr
func (h *SignoffHandler) CreateNCR(c *gin.Context) {
	var req services.NCRRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	ncr, err := h.ncrs.Create(c.Request.Context(), formType(c), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"ncr": ncr})
}

// GET /api/forms/:formType/ncr/pending/:person
func (h *SignoffHandler) PendingNCRs(c *gin.Context) {
	out, err := h.ncrs.Pending(c.Request.Context(), formType(c), c.Param("person"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ncrs": out})
}

// POST /api/forms/:formType/ncr/:id/sign
// body: { "signature": "data:image/png;base64,..." }
func (h *SignoffHandler) CompleteNCR(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var req struct {
		Signature string `json:"signature"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	ncr, err := h.ncrs.Complete(c.Request.Context(), formType(c), id, req.Signature)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ncr": ncr})
}
