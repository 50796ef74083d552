package checkout

import (
	"errors"
	"fmt"
	"time"

	"github.com/hannalindberg/atelje-backend/internal/config"
	"github.com/hannalindberg/atelje-backend/internal/domain"
)

var ErrEmptyCart = errors.New("cart is empty")

// ValidationError marks a cart that cannot become an order. It is rejected
// before any write happens.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// CartLine is one entry in a customer's cart.
type CartLine struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// ResolvedVariant is the catalog snapshot for a single variant, taken at the
// moment of checkout. The materializer copies these values into the order's
// line items so later catalog edits never reach historical orders.
type ResolvedVariant struct {
	ProductID    string
	ProductTitle string
	VariantName  string
	Price        int64
	Stock        int
	ImageURL     string
}

// Snapshot maps variant ids to their resolved catalog state.
type Snapshot map[string]ResolvedVariant

// Materialize turns a cart plus a shipping address into a pending order with
// snapshot line items. It rejects empty carts, lines whose variant is missing
// from the snapshot, non-positive quantities, and quantities above the
// snapshot stock. The returned order is not yet persisted.
func Materialize(lines []CartLine, snapshot Snapshot, address domain.Address, pricing config.Pricing, userID *string) (*domain.Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	if err := address.Validate(); err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}

	var subtotal int64
	items := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, &ValidationError{Reason: fmt.Sprintf("invalid quantity %d for variant %s", line.Quantity, line.VariantID)}
		}
		variant, ok := snapshot[line.VariantID]
		if !ok {
			return nil, &ValidationError{Reason: fmt.Sprintf("variant %s is no longer available", line.VariantID)}
		}
		if line.Quantity > variant.Stock {
			return nil, &ValidationError{Reason: fmt.Sprintf("only %d left in stock for %s", variant.Stock, variant.VariantName)}
		}
		subtotal += variant.Price * int64(line.Quantity)
		items = append(items, domain.OrderItem{
			ProductID:    variant.ProductID,
			VariantID:    line.VariantID,
			ProductTitle: variant.ProductTitle,
			VariantName:  variant.VariantName,
			Price:        variant.Price,
			Quantity:     line.Quantity,
			ImageURL:     variant.ImageURL,
		})
	}

	now := time.Now().UTC()
	quote := PriceCart(subtotal, pricing)

	return &domain.Order{
		OrderNumber:     NewOrderNumber(pricing.OrderNumberPrefix, now),
		UserID:          userID,
		Subtotal:        quote.Subtotal,
		Shipping:        quote.Shipping,
		Total:           quote.Total,
		Status:          domain.OrderStatusPending,
		Address:         address,
		Items:           items,
		CreatedAt:       now,
		StatusChangedAt: now,
	}, nil
}
