package queries

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrGetStockQueryIsNotConstructed = errors.New(
		"GetStockQuery must be created via NewGetStockQuery constructor",
	)
)

// GetStockQuery retrieves the inventory counters of one SKU by its code.
type GetStockQuery struct { //nolint:recvcheck //using for validation
	orgID   kernel.UUID
	skuCode string

	guard guard.ConstructorGuard
}

// NewGetStockQuery creates a query scoped to the caller's organization.
func NewGetStockQuery(orgID kernel.UUID, skuCode string) (GetStockQuery, error) {
	q := GetStockQuery{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(q.setOrgID(orgID), q.setSKUCode(skuCode)); err != nil {
		return GetStockQuery{}, err
	}

	return q, nil
}

// Validate ensures the query was created through the constructor.
func (q GetStockQuery) Validate() error {
	return q.guard.Validate(ErrGetStockQueryIsNotConstructed)
}

// OrgID returns the caller's organization scope.
func (q GetStockQuery) OrgID() kernel.UUID {
	return q.orgID
}

// SKUCode returns the stock keeping unit code to look up.
func (q GetStockQuery) SKUCode() string {
	return q.skuCode
}

func (q *GetStockQuery) setOrgID(orgID kernel.UUID) error {
	if err := orgID.Validate(); err != nil {
		return err
	}
	q.orgID = orgID
	return nil
}

func (q *GetStockQuery) setSKUCode(skuCode string) error {
	if skuCode == "" {
		return errs.NewValueIsRequiredError("skuCode")
	}
	q.skuCode = skuCode
	return nil
}

// GetStockQueryResponse is the inventory read model of one SKU.
// Available is derived: on hand minus reserved.
type GetStockQueryResponse struct {
	Code           string `json:"code"`
	QuantityOnHand int    `json:"quantity_on_hand"`
	Reserved       int    `json:"reserved"`
	Available      int    `json:"available"`
}
