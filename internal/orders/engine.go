package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hannalindberg/atelje-backend/internal/domain"
)

var (
	ErrOrderNotFound = errors.New("order not found")

	// ErrTrackingRequired rejects a shipped transition when no carrier
	// tracking number is stored or supplied with the request.
	ErrTrackingRequired = errors.New("tracking number required before marking order shipped")
)

// InvalidTransitionError rejects a status change the lifecycle does not allow.
// Nothing is written when it is returned.
type InvalidTransitionError struct {
	From domain.OrderStatus
	To   domain.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

// Store is the persistence the engine needs. *OrderRepository satisfies it.
// ApplyTransition must only write when the order is still in the from
// status, returning nil, nil otherwise.
type Store interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ApplyTransition(ctx context.Context, id string, from, to domain.OrderStatus, tracking *Tracking, event domain.OrderEvent) (*domain.Order, error)
}

// Dispatcher hands a lifecycle email off for best-effort delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, order *domain.Order, emailType domain.EmailType) error
}

// Engine validates and applies order status transitions. Persistence of the
// status and its audit event is one transaction; the notification that
// follows is fire-and-forget and never rolls the transition back.
type Engine struct {
	store      Store
	dispatcher Dispatcher
	logger     *slog.Logger
}

func NewEngine(store Store, dispatcher Dispatcher, logger *slog.Logger) *Engine {
	return &Engine{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

type TransitionRequest struct {
	Target         domain.OrderStatus
	TrackingNumber string
	TrackingURL    string
	SuppressEmail  bool
}

// Transition moves an order to req.Target if the state machine allows it.
// Shipped additionally requires tracking, either already saved on the order
// or carried by the request.
func (e *Engine) Transition(ctx context.Context, orderID string, req TransitionRequest) (*domain.Order, error) {
	if !req.Target.IsValid() {
		return nil, fmt.Errorf("unknown order status %q", req.Target)
	}

	order, err := e.store.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	if !order.Status.CanTransitionTo(req.Target) {
		return nil, &InvalidTransitionError{From: order.Status, To: req.Target}
	}

	var tracking *Tracking
	if req.Target == domain.OrderStatusShipped {
		switch {
		case req.TrackingNumber != "":
			tracking = &Tracking{Number: req.TrackingNumber, URL: req.TrackingURL}
		case order.HasTracking():
			// already saved, nothing to update
		default:
			return nil, ErrTrackingRequired
		}
	}

	event := domain.OrderEvent{
		Type:        domain.EventStatusChanged,
		Description: fmt.Sprintf("Status changed from %s to %s", order.Status, req.Target),
		Metadata:    map[string]any{"from": string(order.Status), "to": string(req.Target)},
	}

	updated, err := e.store.ApplyTransition(ctx, orderID, order.Status, req.Target, tracking, event)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// Either the order vanished or a concurrent transition won the
		// race between our read and the guarded update.
		current, err := e.store.GetByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, ErrOrderNotFound
		}
		return nil, &InvalidTransitionError{From: current.Status, To: req.Target}
	}

	if !req.SuppressEmail {
		if emailType, ok := domain.EmailTypeFor(req.Target); ok {
			if err := e.dispatcher.Dispatch(ctx, updated, emailType); err != nil {
				e.logger.Error("failed to dispatch notification", "error", err, "order_id", updated.ID, "email_type", emailType)
			}
		}
	}

	e.logger.Info("order status updated", "order_id", updated.ID, "order_number", updated.OrderNumber, "status", updated.Status)
	return updated, nil
}
