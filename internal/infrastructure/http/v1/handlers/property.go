package handlers

import (
	"github.com/gin-gonic/gin"

	"stayledger/internal/core/apperror"
	"stayledger/internal/core/id"
	"stayledger/internal/domain"
	"stayledger/internal/domain/property"
	"stayledger/internal/infrastructure/http/v1/dto"
)

// PropertyHandler serves the property directory, read-only. Properties
// are maintained by back-office flows outside this service.
type PropertyHandler struct {
	BaseHandler
	props property.Repository
}

// NewPropertyHandler creates the handler.
func NewPropertyHandler(props property.Repository) *PropertyHandler {
	return &PropertyHandler{props: props}
}

// List returns managed properties.
// GET /api/v1/properties
func (h *PropertyHandler) List(c *gin.Context) {
	filter := domain.DefaultListFilter()
	filter.OrderBy = "name"
	filter.Limit = h.ParseIntQuery(c, "limit", filter.Limit)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.Search = c.Query("search")

	result, err := h.props.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{
		Items:      dto.FromPropertyList(result.Items),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get returns one property.
// GET /api/v1/properties/:id
func (h *PropertyHandler) Get(c *gin.Context) {
	propertyID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid property id").WithDetail("id", c.Param("id")))
		return
	}

	p, err := h.props.GetByID(c.Request.Context(), propertyID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromProperty(p))
}
