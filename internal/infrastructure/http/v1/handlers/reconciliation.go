package handlers

import (
	"github.com/gin-gonic/gin"

	"stayledger/internal/core/apperror"
	"stayledger/internal/core/id"
	"stayledger/internal/domain/reconciliation"
	"stayledger/internal/infrastructure/http/v1/dto"
	"stayledger/internal/infrastructure/storage/postgres"
)

// ReconciliationHandler serves the reconciliation API.
type ReconciliationHandler struct {
	BaseHandler
	svc   *reconciliation.Service
	audit *postgres.AuditStore
}

// NewReconciliationHandler creates the handler.
func NewReconciliationHandler(svc *reconciliation.Service, audit *postgres.AuditStore) *ReconciliationHandler {
	return &ReconciliationHandler{svc: svc, audit: audit}
}

// Create computes and persists a reconciliation for a property and month.
// POST /api/v1/reconciliations
func (h *ReconciliationHandler) Create(c *gin.Context) {
	var req dto.CreateReconciliationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	propertyID, err := id.Parse(req.PropertyID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid property id").WithDetail("propertyId", req.PropertyID))
		return
	}
	month, err := reconciliation.ParseMonth(req.Month)
	if err != nil {
		h.Error(c, err)
		return
	}

	rec, err := h.svc.Create(c.Request.Context(), propertyID, month)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromReconciliation(rec))
}

// Get returns a reconciliation with its ledger.
// GET /api/v1/reconciliations/:id
func (h *ReconciliationHandler) Get(c *gin.Context) {
	recID, ok := h.pathID(c)
	if !ok {
		return
	}

	rec, err := h.svc.Get(c.Request.Context(), recID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromReconciliation(rec))
}

// List returns reconciliations filtered by property and status.
// GET /api/v1/reconciliations
func (h *ReconciliationHandler) List(c *gin.Context) {
	filter := reconciliation.DefaultListFilter()
	filter.Limit = h.ParseIntQuery(c, "limit", filter.Limit)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	if orderBy := c.Query("orderBy"); orderBy != "" {
		filter.OrderBy = orderBy
	}

	if propertyID := c.Query("propertyId"); propertyID != "" {
		pid, err := id.Parse(propertyID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid property id").WithDetail("propertyId", propertyID))
			return
		}
		filter.PropertyID = &pid
	}
	if status := c.Query("status"); status != "" {
		s := reconciliation.Status(status)
		filter.Status = &s
	}

	result, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{
		Items:      dto.FromReconciliationList(result.Items),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Finalize advances a preview reconciliation to draft.
// POST /api/v1/reconciliations/:id/finalize
func (h *ReconciliationHandler) Finalize(c *gin.Context) {
	recID, ok := h.pathID(c)
	if !ok {
		return
	}

	rec, err := h.svc.Finalize(c.Request.Context(), recID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromReconciliation(rec))
}

// Sweep finalizes all due preview reconciliations immediately. The same
// pass the scheduled sweeper runs, exposed for operators.
// POST /api/v1/reconciliations/sweep
func (h *ReconciliationHandler) Sweep(c *gin.Context) {
	result, err := h.svc.FinalizeDue(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Delete soft-deletes a draft reconciliation.
// DELETE /api/v1/reconciliations/:id
func (h *ReconciliationHandler) Delete(c *gin.Context) {
	recID, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), recID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// AuditTrail returns the audit history for a reconciliation.
// GET /api/v1/reconciliations/:id/audit
func (h *ReconciliationHandler) AuditTrail(c *gin.Context) {
	recID, ok := h.pathID(c)
	if !ok {
		return
	}
	limit := h.ParseIntQuery(c, "limit", 50)

	entries, err := h.audit.GetEntityHistory(c.Request.Context(), "monthly_reconciliation", recID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": entries})
}

func (h *ReconciliationHandler) pathID(c *gin.Context) (id.ID, bool) {
	recID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid reconciliation id").WithDetail("id", c.Param("id")))
		return id.Nil(), false
	}
	return recID, true
}
