package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotificationHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("posts event to email service", func(t *testing.T) {
		var gotBody map[string]string
		emailServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/notify" {
				t.Errorf("expected /notify, got %s", r.URL.Path)
			}
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"success":true,"email_id":"msg-1"}`))
		}))
		defer emailServer.Close()

		handler := NewNotificationHandler(emailServer.URL, emailServer.Client(), discardLogger())

		payload := []byte(`{"order_id":"o1","email_type":"order_shipped","tracking_number":"PN123","tracking_url":"https://t.example/PN123"}`)
		if err := handler.Handle(ctx, payload); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if gotBody["order_id"] != "o1" || gotBody["email_type"] != "order_shipped" {
			t.Errorf("unexpected body: %v", gotBody)
		}
		if gotBody["tracking_number"] != "PN123" {
			t.Errorf("expected tracking number forwarded, got %v", gotBody)
		}
	})

	t.Run("email service failure is swallowed", func(t *testing.T) {
		emailServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer emailServer.Close()

		handler := NewNotificationHandler(emailServer.URL, emailServer.Client(), discardLogger())

		payload := []byte(`{"order_id":"o1","email_type":"order_confirmation"}`)
		if err := handler.Handle(ctx, payload); err != nil {
			t.Fatalf("expected failure to be swallowed, got %v", err)
		}
	})

	t.Run("malformed payload is dropped", func(t *testing.T) {
		handler := NewNotificationHandler("http://unused", http.DefaultClient, discardLogger())

		if err := handler.Handle(ctx, []byte(`{not json`)); err != nil {
			t.Fatalf("expected malformed payload to be dropped, got %v", err)
		}
	})
}
