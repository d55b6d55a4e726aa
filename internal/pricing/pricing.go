// Package pricing computes an order's monetary total from decoupled sources.
package pricing

import (
	"math"

	"kedaiku/backend/internal/domain"
)

// ComputeTotal returns (productPrice + addOnValue) * quantity. A nil product
// or add-on, and a NaN price left behind by bad form input, both contribute
// zero: the calculator never fails on a stale or missing reference, at the
// cost of silently under-pricing an order whose product was deleted after
// creation.
func ComputeTotal(quantity int, product *domain.InventoryItem, addOn *domain.AddOn) float64 {
	var productPrice, addOnValue float64
	if product != nil {
		productPrice = orZero(float64(product.Price))
	}
	if addOn != nil {
		addOnValue = orZero(float64(addOn.Value))
	}
	return (productPrice + addOnValue) * float64(quantity)
}

func orZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
