//go:build integration

package test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hannalindberg/atelje-backend/internal/accounts"
	"github.com/hannalindberg/atelje-backend/internal/catalog"
	"github.com/hannalindberg/atelje-backend/internal/config"
	"github.com/hannalindberg/atelje-backend/internal/domain"
	"github.com/hannalindberg/atelje-backend/internal/email"
	"github.com/hannalindberg/atelje-backend/internal/orders"
	"github.com/hannalindberg/atelje-backend/internal/worker"
)

func seedVariant(ctx context.Context, t *testing.T, repo *catalog.Repository, title string, price int64, stock int) *domain.Variant {
	t.Helper()

	product := &domain.Product{Title: title, Category: "knitwear", Published: true}
	if err := repo.CreateProduct(ctx, product); err != nil {
		t.Fatalf("failed to create product: %v", err)
	}

	variant := &domain.Variant{ProductID: product.ID, Name: "One size", Price: price, Stock: stock}
	if err := repo.CreateVariant(ctx, variant); err != nil {
		t.Fatalf("failed to create variant: %v", err)
	}

	return variant
}

func testAddress() string {
	return `{
		"first_name": "Hanna",
		"last_name": "Lindberg",
		"email": "hanna@example.se",
		"street": "Storgatan 1",
		"city": "Stockholm",
		"postal_code": "11122",
		"country": "SE"
	}`
}

func TestCheckoutFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := DBWithSchema(pg.ConnStr, "shop")
	if err != nil {
		t.Fatalf("failed to open shop DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	catalogRepo := catalog.NewRepository(db)
	orderRepo := orders.NewOrderRepository(db)
	dispatcher := orders.NewNotificationDispatcher(nil, logger)
	handler := orders.NewHandler(orderRepo, catalogRepo, dispatcher, config.DefaultPricing(), nil, logger)

	variant := seedVariant(ctx, t, catalogRepo, "Merino sweater", 299, 10)

	reqBody := `{
		"items": [{"product_id": "` + variant.ProductID + `", "variant_id": "` + variant.ID + `", "quantity": 1}],
		"address": ` + testAddress() + `
	}`
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.HandleCheckout(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var created domain.Order
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if created.ID == "" {
		t.Fatal("expected order ID to be set")
	}
	if !strings.HasPrefix(created.OrderNumber, "AT-") {
		t.Fatalf("unexpected order number: %s", created.OrderNumber)
	}
	if created.Status != domain.OrderStatusPending {
		t.Fatalf("expected status %s, got %s", domain.OrderStatusPending, created.Status)
	}
	if created.Subtotal != 299 {
		t.Fatalf("expected subtotal 299, got %d", created.Subtotal)
	}
	if created.Shipping != 49 {
		t.Fatalf("expected shipping 49 below the free-shipping threshold, got %d", created.Shipping)
	}
	if created.Total != 348 {
		t.Fatalf("expected total 348, got %d", created.Total)
	}

	fetched, err := orderRepo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("failed to fetch order from DB: %v", err)
	}
	if fetched == nil {
		t.Fatal("order not found in database")
	}
	if len(fetched.Items) != 1 {
		t.Fatalf("expected 1 line item, got %d", len(fetched.Items))
	}
	if fetched.Items[0].ProductTitle != "Merino sweater" {
		t.Fatalf("unexpected line item title: %s", fetched.Items[0].ProductTitle)
	}
	if len(fetched.Events) != 1 || fetched.Events[0].Type != domain.EventOrderCreated {
		t.Fatalf("expected a single order_created event, got %+v", fetched.Events)
	}
}

func TestCheckoutRejectsOverselling(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := DBWithSchema(pg.ConnStr, "shop")
	if err != nil {
		t.Fatalf("failed to open shop DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	catalogRepo := catalog.NewRepository(db)
	orderRepo := orders.NewOrderRepository(db)
	dispatcher := orders.NewNotificationDispatcher(nil, logger)
	handler := orders.NewHandler(orderRepo, catalogRepo, dispatcher, config.DefaultPricing(), nil, logger)

	variant := seedVariant(ctx, t, catalogRepo, "Linen shirt", 450, 2)

	reqBody := `{
		"items": [{"product_id": "` + variant.ProductID + `", "variant_id": "` + variant.ID + `", "quantity": 3}],
		"address": ` + testAddress() + `
	}`
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.HandleCheckout(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d: %s", http.StatusBadRequest, rec.Code, rec.Body.String())
	}

	list, err := orderRepo.List(ctx)
	if err != nil {
		t.Fatalf("failed to list orders: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no orders after rejected checkout, got %d", len(list))
	}
}

func TestOrderLifecycle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := DBWithSchema(pg.ConnStr, "shop")
	if err != nil {
		t.Fatalf("failed to open shop DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	catalogRepo := catalog.NewRepository(db)
	orderRepo := orders.NewOrderRepository(db)
	dispatcher := orders.NewNotificationDispatcher(nil, logger)
	handler := orders.NewHandler(orderRepo, catalogRepo, dispatcher, config.DefaultPricing(), nil, logger)
	engine := orders.NewEngine(orderRepo, dispatcher, logger)

	variant := seedVariant(ctx, t, catalogRepo, "Wool coat", 1800, 5)

	reqBody := `{
		"items": [{"product_id": "` + variant.ProductID + `", "variant_id": "` + variant.ID + `", "quantity": 1}],
		"address": ` + testAddress() + `
	}`
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.HandleCheckout(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var created domain.Order
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode order: %v", err)
	}

	confirmed, err := engine.Transition(ctx, created.ID, orders.TransitionRequest{Target: domain.OrderStatusConfirmed})
	if err != nil {
		t.Fatalf("failed to confirm order: %v", err)
	}
	if confirmed.Status != domain.OrderStatusConfirmed {
		t.Fatalf("expected status %s, got %s", domain.OrderStatusConfirmed, confirmed.Status)
	}

	_, err = engine.Transition(ctx, created.ID, orders.TransitionRequest{Target: domain.OrderStatusShipped})
	if err != orders.ErrTrackingRequired {
		t.Fatalf("expected ErrTrackingRequired without tracking, got %v", err)
	}

	shipped, err := engine.Transition(ctx, created.ID, orders.TransitionRequest{
		Target:         domain.OrderStatusShipped,
		TrackingNumber: "PN123456789SE",
		TrackingURL:    "https://tracking.postnord.com/PN123456789SE",
	})
	if err != nil {
		t.Fatalf("failed to ship order: %v", err)
	}
	if shipped.TrackingNumber == nil || *shipped.TrackingNumber != "PN123456789SE" {
		t.Fatalf("expected tracking number to be stored, got %+v", shipped.TrackingNumber)
	}

	delivered, err := engine.Transition(ctx, created.ID, orders.TransitionRequest{Target: domain.OrderStatusDelivered})
	if err != nil {
		t.Fatalf("failed to deliver order: %v", err)
	}
	if delivered.Status != domain.OrderStatusDelivered {
		t.Fatalf("expected status %s, got %s", domain.OrderStatusDelivered, delivered.Status)
	}

	_, err = engine.Transition(ctx, created.ID, orders.TransitionRequest{Target: domain.OrderStatusPending})
	if err == nil {
		t.Fatal("expected delivered -> pending to be rejected")
	}

	final, err := orderRepo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("failed to fetch order: %v", err)
	}

	var statusChanges int
	for _, event := range final.Events {
		if event.Type == domain.EventStatusChanged {
			statusChanges++
		}
	}
	if statusChanges != 3 {
		t.Fatalf("expected 3 status_changed events, got %d", statusChanges)
	}
}

type providerCapture struct {
	mu    sync.Mutex
	sends []map[string]any
}

func (p *providerCapture) handler(w http.ResponseWriter, r *http.Request) {
	var req map[string]any
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	p.sends = append(p.sends, req)
	p.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, `{"id":"msg-123"}`)
}

func (p *providerCapture) getSends() []map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := make([]map[string]any, len(p.sends))
	copy(result, p.sends)
	return result
}

func TestNotificationFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := DBWithSchema(pg.ConnStr, "shop")
	if err != nil {
		t.Fatalf("failed to open shop DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	catalogRepo := catalog.NewRepository(db)
	orderRepo := orders.NewOrderRepository(db)
	dispatcher := orders.NewNotificationDispatcher(nil, logger)
	checkoutHandler := orders.NewHandler(orderRepo, catalogRepo, dispatcher, config.DefaultPricing(), nil, logger)

	variant := seedVariant(ctx, t, catalogRepo, "Cashmere scarf", 650, 3)

	reqBody := `{
		"items": [{"product_id": "` + variant.ProductID + `", "variant_id": "` + variant.ID + `", "quantity": 1}],
		"address": ` + testAddress() + `
	}`
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	checkoutHandler.HandleCheckout(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var created domain.Order
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode order: %v", err)
	}

	providerCap := &providerCapture{}
	providerServer := httptest.NewServer(http.HandlerFunc(providerCap.handler))
	defer providerServer.Close()

	provider := email.NewProvider(config.Mail{
		APIKey:      "test-key",
		APIBaseURL:  providerServer.URL,
		FromAddress: "Atelje <orders@atelje.example>",
	}, providerServer.Client())
	emailHandler := email.NewHandler(orderRepo, provider, logger)

	emailMux := http.NewServeMux()
	emailMux.HandleFunc("POST /notify", emailHandler.HandleNotify)
	emailServer := httptest.NewServer(emailMux)
	defer emailServer.Close()

	httpClient := &http.Client{Timeout: 10 * time.Second}
	notificationHandler := worker.NewNotificationHandler(emailServer.URL, httpClient, logger)

	event := domain.OrderNotificationEvent{
		OrderID:     created.ID,
		OrderNumber: created.OrderNumber,
		EmailType:   domain.EmailOrderConfirmation,
		Timestamp:   created.CreatedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}

	if err := notificationHandler.Handle(ctx, payload); err != nil {
		t.Fatalf("worker handler failed: %v", err)
	}

	sends := providerCap.getSends()
	if len(sends) != 1 {
		t.Fatalf("expected 1 provider send, got %d", len(sends))
	}

	subject, _ := sends[0]["subject"].(string)
	if !strings.Contains(subject, created.OrderNumber) {
		t.Fatalf("expected subject to mention order number %s, got: %s", created.OrderNumber, subject)
	}

	final, err := orderRepo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("failed to fetch order: %v", err)
	}

	var sent int
	for _, ev := range final.Events {
		if ev.Type == domain.EventEmailSent {
			sent++
		}
	}
	if sent != 1 {
		t.Fatalf("expected 1 email_sent event, got %d", sent)
	}
}

func TestCustomerOrderList(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := DBWithSchema(pg.ConnStr, "shop")
	if err != nil {
		t.Fatalf("failed to open shop DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	catalogRepo := catalog.NewRepository(db)
	orderRepo := orders.NewOrderRepository(db)
	dispatcher := orders.NewNotificationDispatcher(nil, logger)
	handler := orders.NewHandler(orderRepo, catalogRepo, dispatcher, config.DefaultPricing(), nil, logger)

	userID, err := SeedProfile(db, "hanna@example.se", false)
	if err != nil {
		t.Fatal(err)
	}

	variant := seedVariant(ctx, t, catalogRepo, "Silk blouse", 890, 4)

	reqBody := `{
		"items": [{"product_id": "` + variant.ProductID + `", "variant_id": "` + variant.ID + `", "quantity": 1}],
		"address": ` + testAddress() + `
	}`
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(reqBody))
	req = req.WithContext(accounts.ContextWithUserID(req.Context(), userID))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.HandleCheckout(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	listReq := httptest.NewRequest(http.MethodGet, "/account/orders", nil)
	listReq = listReq.WithContext(accounts.ContextWithUserID(listReq.Context(), userID))
	listRec := httptest.NewRecorder()
	handler.HandleListMine(listRec, listReq)

	if listRec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, listRec.Code, listRec.Body.String())
	}

	var list []domain.Order
	if err := json.NewDecoder(listRec.Body).Decode(&list); err != nil {
		t.Fatalf("failed to decode order list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 order for the customer, got %d", len(list))
	}
	if list[0].UserID == nil || *list[0].UserID != userID {
		t.Fatalf("expected order owner %s, got %+v", userID, list[0].UserID)
	}
}

func TestKafkaConnection(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	brokers, cleanup := SetupKafka(ctx, t)
	defer cleanup()

	if len(brokers) == 0 {
		t.Fatal("expected at least one broker")
	}

	t.Logf("kafka brokers: %v", brokers)
}
