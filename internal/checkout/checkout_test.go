package checkout

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hannalindberg/atelje-backend/internal/config"
	"github.com/hannalindberg/atelje-backend/internal/domain"
)

func testAddress() domain.Address {
	return domain.Address{
		FirstName: "Hanna", LastName: "Lindberg", Email: "hanna@example.com",
		Street: "Storgatan 1", City: "Stockholm", PostalCode: "111 22", Country: "SE",
	}
}

func TestPriceCart(t *testing.T) {
	pricing := config.DefaultPricing()

	t.Run("below threshold pays flat fee", func(t *testing.T) {
		q := PriceCart(299, pricing)
		if q.Shipping != 49 {
			t.Errorf("expected shipping 49, got %d", q.Shipping)
		}
		if q.Total != 348 {
			t.Errorf("expected total 348, got %d", q.Total)
		}
	})

	t.Run("raised threshold keeps the fee on larger carts", func(t *testing.T) {
		raised := config.Pricing{FreeShippingThreshold: 1000, ShippingFee: 49}
		q := PriceCart(997, raised)
		if q.Shipping != 49 {
			t.Errorf("expected shipping 49, got %d", q.Shipping)
		}
		if q.Total != 1046 {
			t.Errorf("expected total 1046, got %d", q.Total)
		}
	})

	t.Run("at threshold ships free", func(t *testing.T) {
		q := PriceCart(500, pricing)
		if q.Shipping != 0 {
			t.Errorf("expected free shipping, got %d", q.Shipping)
		}
		if q.Total != 500 {
			t.Errorf("expected total 500, got %d", q.Total)
		}
	})

	t.Run("total always equals subtotal plus shipping", func(t *testing.T) {
		for _, subtotal := range []int64{0, 1, 49, 499, 500, 501, 9999} {
			q := PriceCart(subtotal, pricing)
			if q.Total != q.Subtotal+q.Shipping {
				t.Errorf("subtotal %d: total %d != %d + %d", subtotal, q.Total, q.Subtotal, q.Shipping)
			}
		}
	})
}

func TestNewOrderNumber(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	n := NewOrderNumber("AT", now)

	parts := strings.Split(n, "-")
	if len(parts) != 3 {
		t.Fatalf("expected 3 segments, got %q", n)
	}
	if parts[0] != "AT" {
		t.Errorf("expected prefix AT, got %s", parts[0])
	}
	if len(parts[2]) != suffixLen {
		t.Errorf("expected suffix length %d, got %q", suffixLen, parts[2])
	}
	if n != strings.ToUpper(n) {
		t.Errorf("expected upper-case code, got %q", n)
	}

	// Same instant should still usually differ thanks to the random suffix.
	distinct := map[string]bool{}
	for range 50 {
		distinct[NewOrderNumber("AT", now)] = true
	}
	if len(distinct) < 2 {
		t.Error("expected random suffix to vary across generations")
	}
}

func TestMaterialize(t *testing.T) {
	pricing := config.DefaultPricing()
	snapshot := Snapshot{
		"var-linen": {
			ProductID: "prod-1", ProductTitle: "Linen Throw", VariantName: "120x180",
			Price: 299, Stock: 10, ImageURL: "https://cdn.atelje.example/linen.jpg",
		},
		"var-vase": {
			ProductID: "prod-2", ProductTitle: "Stoneware Vase", VariantName: "Large",
			Price: 399, Stock: 3,
		},
	}

	t.Run("empty cart is rejected", func(t *testing.T) {
		_, err := Materialize(nil, snapshot, testAddress(), pricing, nil)
		if !errors.Is(err, ErrEmptyCart) {
			t.Fatalf("expected ErrEmptyCart, got %v", err)
		}
	})

	t.Run("unknown variant is rejected", func(t *testing.T) {
		lines := []CartLine{{ProductID: "prod-9", VariantID: "var-missing", Quantity: 1}}
		_, err := Materialize(lines, snapshot, testAddress(), pricing, nil)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("quantity above stock is rejected", func(t *testing.T) {
		lines := []CartLine{{ProductID: "prod-2", VariantID: "var-vase", Quantity: 4}}
		_, err := Materialize(lines, snapshot, testAddress(), pricing, nil)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("incomplete address is rejected", func(t *testing.T) {
		addr := testAddress()
		addr.PostalCode = ""
		lines := []CartLine{{ProductID: "prod-1", VariantID: "var-linen", Quantity: 1}}
		_, err := Materialize(lines, snapshot, addr, pricing, nil)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("builds pending order with snapshot items and totals", func(t *testing.T) {
		lines := []CartLine{
			{ProductID: "prod-1", VariantID: "var-linen", Quantity: 2},
			{ProductID: "prod-2", VariantID: "var-vase", Quantity: 1},
		}
		order, err := Materialize(lines, snapshot, testAddress(), pricing, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if order.Status != domain.OrderStatusPending {
			t.Errorf("expected pending, got %s", order.Status)
		}
		if order.Subtotal != 997 {
			t.Errorf("expected subtotal 997, got %d", order.Subtotal)
		}
		if order.Shipping != 0 {
			t.Errorf("expected free shipping at 997, got %d", order.Shipping)
		}
		if order.Total != order.Subtotal+order.Shipping {
			t.Errorf("total %d != subtotal %d + shipping %d", order.Total, order.Subtotal, order.Shipping)
		}
		if len(order.Items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(order.Items))
		}
		if order.Items[0].ProductTitle != "Linen Throw" || order.Items[0].Price != 299 || order.Items[0].Quantity != 2 {
			t.Errorf("unexpected first item snapshot: %+v", order.Items[0])
		}
		if order.OrderNumber == "" {
			t.Error("expected order number to be generated")
		}
		if order.UserID != nil {
			t.Error("expected guest order to have no user id")
		}
	})

	t.Run("subtotal below threshold gets flat fee", func(t *testing.T) {
		lines := []CartLine{{ProductID: "prod-1", VariantID: "var-linen", Quantity: 1}}
		order, err := Materialize(lines, snapshot, testAddress(), pricing, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if order.Subtotal != 299 || order.Shipping != 49 || order.Total != 348 {
			t.Errorf("unexpected totals: %+v", order)
		}
	})

	t.Run("snapshot edits after materialization do not touch items", func(t *testing.T) {
		snap := Snapshot{"var-linen": snapshot["var-linen"]}
		lines := []CartLine{{ProductID: "prod-1", VariantID: "var-linen", Quantity: 1}}
		order, err := Materialize(lines, snap, testAddress(), pricing, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		v := snap["var-linen"]
		v.Price = 999
		v.ProductTitle = "Renamed"
		snap["var-linen"] = v

		if order.Items[0].Price != 299 || order.Items[0].ProductTitle != "Linen Throw" {
			t.Errorf("line item changed after catalog edit: %+v", order.Items[0])
		}
	})
}
