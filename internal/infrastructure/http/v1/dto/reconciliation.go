package dto

import (
	"time"

	"stayledger/internal/domain/reconciliation"
)

// CreateReconciliationRequest starts a reconciliation computation.
type CreateReconciliationRequest struct {
	PropertyID string `json:"propertyId" binding:"required,uuid"`
	Month      string `json:"month" binding:"required"`
}

// LineItemResponse is one ledger entry.
type LineItemResponse struct {
	ID       string `json:"id"`
	ItemType string `json:"itemType"`
	ItemID   string `json:"itemId"`
	Amount   string `json:"amount"`
	Date     string `json:"date"`
	Category string `json:"category,omitempty"`
	Verified bool   `json:"verified"`
}

// ReconciliationResponse is the full financial record. Monetary values
// are serialized as decimal strings.
type ReconciliationResponse struct {
	ID         string `json:"id"`
	PropertyID string `json:"propertyId"`
	Month      string `json:"month"`
	Status     string `json:"status"`
	Version    int    `json:"version"`

	FeePercent       string `json:"feePercent"`
	TotalRevenue     string `json:"totalRevenue"`
	ShortTermRevenue string `json:"shortTermRevenue"`
	MidTermRevenue   string `json:"midTermRevenue"`
	VisitFees        string `json:"visitFees"`
	TotalExpenses    string `json:"totalExpenses"`
	ManagementFee    string `json:"managementFee"`
	OrderMinimumFee  string `json:"orderMinimumFee"`
	NetToOwner       string `json:"netToOwner"`

	// LineItemCount is populated whenever the ledger was loaded; list
	// responses omit items and carry zero here.
	LineItemCount int                `json:"lineItemCount"`
	Items         []LineItemResponse `json:"items,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
}

// FromReconciliation maps the domain record to its response shape.
func FromReconciliation(rec *reconciliation.MonthlyReconciliation) ReconciliationResponse {
	resp := ReconciliationResponse{
		ID:         rec.ID.String(),
		PropertyID: rec.PropertyID.String(),
		Month:      rec.Month.Format("2006-01"),
		Status:     string(rec.Status),
		Version:    rec.Version,

		FeePercent:       rec.FeePercent.String(),
		TotalRevenue:     rec.TotalRevenue.String(),
		ShortTermRevenue: rec.ShortTermRevenue.String(),
		MidTermRevenue:   rec.MidTermRevenue.String(),
		VisitFees:        rec.VisitFees.String(),
		TotalExpenses:    rec.TotalExpenses.String(),
		ManagementFee:    rec.ManagementFee.String(),
		OrderMinimumFee:  rec.OrderMinimumFee.String(),
		NetToOwner:       rec.NetToOwner.String(),

		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		CreatedBy: rec.CreatedBy,
	}
	resp.LineItemCount = len(rec.Items)
	for _, li := range rec.Items {
		resp.Items = append(resp.Items, LineItemResponse{
			ID:       li.ID.String(),
			ItemType: string(li.ItemType),
			ItemID:   li.ItemID,
			Amount:   li.Amount.String(),
			Date:     li.Date.Format("2006-01-02"),
			Category: li.Category,
			Verified: li.Verified,
		})
	}
	return resp
}

// FromReconciliationList maps a list of records, without line items.
func FromReconciliationList(recs []*reconciliation.MonthlyReconciliation) []ReconciliationResponse {
	out := make([]ReconciliationResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, FromReconciliation(rec))
	}
	return out
}
