package orders

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hannalindberg/atelje-backend/internal/accounts"
	"github.com/hannalindberg/atelje-backend/internal/checkout"
	"github.com/hannalindberg/atelje-backend/internal/config"
	"github.com/hannalindberg/atelje-backend/internal/domain"
)

type fakeOrderStore struct {
	orders  map[string]*domain.Order
	created []*domain.Order
}

func (s *fakeOrderStore) Create(_ context.Context, order *domain.Order) error {
	order.ID = "order-" + order.OrderNumber
	s.orders[order.ID] = order
	s.created = append(s.created, order)
	return nil
}

func (s *fakeOrderStore) GetByID(_ context.Context, id string) (*domain.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (s *fakeOrderStore) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	var list []domain.Order
	for _, o := range s.orders {
		if o.UserID != nil && *o.UserID == userID {
			list = append(list, *o)
		}
	}
	return list, nil
}

type fakeResolver struct {
	snapshot checkout.Snapshot
}

func (f *fakeResolver) ResolveVariants(_ context.Context, _ []string) (checkout.Snapshot, error) {
	return f.snapshot, nil
}

func newTestHandler(orders ...*domain.Order) (*Handler, *fakeOrderStore, *fakeDispatcher) {
	store := &fakeOrderStore{orders: map[string]*domain.Order{}}
	for _, o := range orders {
		store.orders[o.ID] = o
	}
	resolver := &fakeResolver{snapshot: checkout.Snapshot{
		"var-1": {ProductID: "prod-1", ProductTitle: "Linen Throw", VariantName: "120x180", Price: 299, Stock: 10},
	}}
	dispatcher := &fakeDispatcher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(store, resolver, dispatcher, config.DefaultPricing(), nil, logger), store, dispatcher
}

func TestHandleCheckout(t *testing.T) {
	t.Run("valid cart creates pending order and dispatches confirmation", func(t *testing.T) {
		handler, store, dispatcher := newTestHandler()

		body := `{
			"items": [{"product_id": "prod-1", "variant_id": "var-1", "quantity": 1}],
			"address": {
				"first_name": "Hanna", "last_name": "Lindberg", "email": "hanna@example.com",
				"street": "Storgatan 1", "city": "Stockholm", "postal_code": "111 22", "country": "SE"
			}
		}`
		req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.HandleCheckout(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
		}
		if len(store.created) != 1 {
			t.Fatalf("expected 1 order created, got %d", len(store.created))
		}
		if store.created[0].Status != domain.OrderStatusPending {
			t.Errorf("expected pending, got %s", store.created[0].Status)
		}
		if len(dispatcher.dispatched) != 1 || dispatcher.dispatched[0] != domain.EmailOrderConfirmation {
			t.Errorf("expected order_confirmation dispatch, got %v", dispatcher.dispatched)
		}
	})

	t.Run("oversold cart is rejected without a write", func(t *testing.T) {
		handler, store, dispatcher := newTestHandler()

		body := `{
			"items": [{"product_id": "prod-1", "variant_id": "var-1", "quantity": 11}],
			"address": {
				"first_name": "Hanna", "last_name": "Lindberg", "email": "hanna@example.com",
				"street": "Storgatan 1", "city": "Stockholm", "postal_code": "111 22", "country": "SE"
			}
		}`
		req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.HandleCheckout(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d: %s", http.StatusBadRequest, rec.Code, rec.Body.String())
		}
		if len(store.created) != 0 {
			t.Errorf("expected no orders created, got %d", len(store.created))
		}
		if len(dispatcher.dispatched) != 0 {
			t.Errorf("expected no dispatches, got %v", dispatcher.dispatched)
		}
	})
}

func TestHandleGet(t *testing.T) {
	owner := "user-1"
	guestOrder := &domain.Order{ID: "o-guest", OrderNumber: "AT-G1", Status: domain.OrderStatusPending}
	ownedOrder := &domain.Order{ID: "o-owned", OrderNumber: "AT-O1", Status: domain.OrderStatusPending, UserID: &owner}

	get := func(handler *Handler, orderID string, userID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/orders/"+orderID, nil)
		req.SetPathValue("id", orderID)
		if userID != "" {
			req = req.WithContext(accounts.ContextWithUserID(req.Context(), userID))
		}
		rec := httptest.NewRecorder()
		handler.HandleGet(rec, req)
		return rec
	}

	t.Run("guest order is reachable by id alone", func(t *testing.T) {
		handler, _, _ := newTestHandler(guestOrder)

		rec := get(handler, "o-guest", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
		}
	})

	t.Run("owned order requires its owner", func(t *testing.T) {
		handler, _, _ := newTestHandler(ownedOrder)

		rec := get(handler, "o-owned", owner)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
		}

		var got domain.Order
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if got.OrderNumber != "AT-O1" {
			t.Errorf("unexpected order: %+v", got)
		}
	})

	t.Run("owned order hides from anonymous requests", func(t *testing.T) {
		handler, _, _ := newTestHandler(ownedOrder)

		rec := get(handler, "o-owned", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status %d, got %d: %s", http.StatusNotFound, rec.Code, rec.Body.String())
		}
	})

	t.Run("owned order hides from other users", func(t *testing.T) {
		handler, _, _ := newTestHandler(ownedOrder)

		rec := get(handler, "o-owned", "user-2")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status %d, got %d: %s", http.StatusNotFound, rec.Code, rec.Body.String())
		}
	})

	t.Run("missing order", func(t *testing.T) {
		handler, _, _ := newTestHandler()

		rec := get(handler, "o-missing", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status %d, got %d: %s", http.StatusNotFound, rec.Code, rec.Body.String())
		}
	})
}
