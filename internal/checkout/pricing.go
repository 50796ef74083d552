package checkout

import "github.com/hannalindberg/atelje-backend/internal/config"

// Quote is the priced result of a cart: subtotal over the resolved variants,
// shipping from the flat-fee/threshold rule, and their sum.
type Quote struct {
	Subtotal int64 `json:"subtotal"`
	Shipping int64 `json:"shipping"`
	Total    int64 `json:"total"`
}

// PriceCart computes the quote for an already-resolved cart. Shipping is free
// once the subtotal reaches the threshold, otherwise the flat fee applies.
func PriceCart(subtotal int64, pricing config.Pricing) Quote {
	shipping := pricing.ShippingFee
	if subtotal >= pricing.FreeShippingThreshold {
		shipping = 0
	}
	return Quote{
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    subtotal + shipping,
	}
}
