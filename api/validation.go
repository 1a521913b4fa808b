package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// forceSellRequest is the body of a manual force-sell request. Reason
// is required so the notification feed and audit trail always say why
// an operator intervened, not just that one did.
type forceSellRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=200"`
}

// validationError maps a validator.ValidationErrors into a field ->
// human-readable message map, the way the teacher's validateStruct did.
func validationError(err error) map[string]string {
	details := make(map[string]string)
	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		details["_"] = err.Error()
		return details
	}
	for _, fe := range fieldErrors {
		switch fe.Tag() {
		case "required":
			details[fe.Field()] = "this field is required"
		case "min":
			details[fe.Field()] = "value is too short"
		case "max":
			details[fe.Field()] = "value is too long"
		default:
			details[fe.Field()] = "validation failed on tag " + fe.Tag()
		}
	}
	return details
}

// ForceSellHandler places an immediate sell for the trade named in the
// URL, provided the request body justifies it. It is the one write
// endpoint on the control plane that takes a body, so it's the one
// that needs struct-tag validation rather than ad-hoc query parsing.
func (h *Handler) ForceSellHandler(w http.ResponseWriter, r *http.Request) {
	tradeID := chi.URLParam(r, "id")

	var req forceSellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "validation failed",
			"details": validationError(err),
		})
		return
	}

	if err := h.orchestrator.ForceSell(r.Context(), tradeID); err != nil {
		writeError(w, http.StatusConflict, "force sell failed: "+err.Error())
		return
	}
	if h.notifier != nil {
		h.notifier.Info("force-sell reason for trade "+tradeID+": "+req.Reason, map[string]interface{}{
			"trade_id": tradeID,
			"reason":   req.Reason,
		})
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sell_placed", "trade_id": tradeID, "reason": req.Reason})
}
