package queries

import (
	"context"
	"database/sql"
	"errors"

	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
)

// GetStockQueryHandler retrieves SKU counters from the database.
type GetStockQueryHandler struct {
	db *gorm.DB
}

// NewGetStockQueryHandler creates a handler for stock read queries.
func NewGetStockQueryHandler(db *gorm.DB) GetStockQueryHandler {
	return GetStockQueryHandler{db: db}
}

// Handle executes the query. Returns *errs.ObjectNotFoundError when the
// organization has no SKU with the code.
func (h GetStockQueryHandler) Handle(ctx context.Context, query GetStockQuery) (GetStockQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetStockQueryResponse{}, err
	}

	row := h.db.WithContext(ctx).Raw(`
		SELECT
			code,
			quantity_on_hand,
			reserved
		FROM skus
		WHERE org_id = ? AND code = ?
	`, query.OrgID().String(), query.SKUCode()).Row()

	var resp GetStockQueryResponse

	err := row.Scan(&resp.Code, &resp.QuantityOnHand, &resp.Reserved)
	if errors.Is(err, sql.ErrNoRows) {
		return GetStockQueryResponse{}, errs.NewObjectNotFoundError("sku", query.SKUCode())
	}
	if err != nil {
		return GetStockQueryResponse{}, err
	}

	resp.Available = resp.QuantityOnHand - resp.Reserved
	return resp, nil
}
