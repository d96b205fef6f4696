package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/mesa-pos/api/internal/enum"
)

// KitchenListener surfaces events the kitchen display cares about: new
// orders, new items on open orders, and cancellations.
type KitchenListener struct{}

func (KitchenListener) Name() string { return "kitchen" }

func (KitchenListener) Notify(_ context.Context, ev Event) error {
	switch ev.Type {
	case enum.EventOrderCreated:
		log.Printf("KITCHEN: new order %s for table %d", ev.OrderID, ev.TableNumber)
	case enum.EventOrderItemAdded:
		log.Printf("KITCHEN: order %s updated: %s", ev.OrderID, ev.Detail)
	case enum.EventOrderCancelled:
		log.Printf("KITCHEN: order %s cancelled, stop preparation", ev.OrderID)
	}
	return nil
}

// FloorListener tells waitstaff when food is ready and tracks hand-off and
// payment so tables can be turned over.
type FloorListener struct{}

func (FloorListener) Name() string { return "floor" }

func (FloorListener) Notify(_ context.Context, ev Event) error {
	switch ev.Type {
	case enum.EventOrderReady:
		log.Printf("FLOOR: order %s ready for table %d", ev.OrderID, ev.TableNumber)
	case enum.EventOrderDelivered:
		log.Printf("FLOOR: order %s delivered to table %d", ev.OrderID, ev.TableNumber)
	case enum.EventOrderPaid:
		log.Printf("FLOOR: table %d paid, ready to clear", ev.TableNumber)
	}
	return nil
}

// SupervisorListener records every event for the audit trail.
type SupervisorListener struct{}

func (SupervisorListener) Name() string { return "supervisor" }

func (SupervisorListener) Notify(_ context.Context, ev Event) error {
	log.Printf("AUDIT: %s order=%s table=%d actor=%s %s -> %s %s",
		ev.Type, ev.OrderID, ev.TableNumber, ev.Actor, ev.PrevStatus, ev.NewStatus, ev.Detail)
	return nil
}

// Mailer sends a plain text message. The production implementation is an
// SMTP client; tests and local runs use the log-only one below.
type Mailer interface {
	Send(ctx context.Context, subject, body string) error
}

// LogMailer stands in for a real mail transport.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, subject, body string) error {
	log.Printf("MAIL: %s | %s", subject, body)
	return nil
}

// EmailListener mails the back office on payment and cancellation.
type EmailListener struct {
	Mailer Mailer
}

func (l *EmailListener) Name() string { return "email" }

func (l *EmailListener) Notify(ctx context.Context, ev Event) error {
	switch ev.Type {
	case enum.EventOrderPaid:
		subject := fmt.Sprintf("Order %s paid", ev.OrderID)
		return l.Mailer.Send(ctx, subject, ev.Detail)
	case enum.EventOrderCancelled:
		subject := fmt.Sprintf("Order %s cancelled", ev.OrderID)
		return l.Mailer.Send(ctx, subject, ev.Detail)
	}
	return nil
}

// Broadcaster pushes a payload to every websocket client on a topic.
type Broadcaster interface {
	Broadcast(topic string, payload []byte)
}

// HubListener mirrors events onto the websocket hub so connected screens
// update without polling.
type HubListener struct {
	Hub Broadcaster
}

func (l *HubListener) Name() string { return "hub" }

func (l *HubListener) Notify(_ context.Context, ev Event) error {
	payload, err := json.Marshal(map[string]any{
		"type":         ev.Type,
		"order_id":     ev.OrderID,
		"table_number": ev.TableNumber,
		"prev_status":  ev.PrevStatus,
		"new_status":   ev.NewStatus,
		"at":           ev.At,
		"detail":       ev.Detail,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	for _, topic := range topicsFor(ev.Type) {
		l.Hub.Broadcast(topic, payload)
	}
	return nil
}

func topicsFor(eventType string) []string {
	topics := []string{enum.TopicAll}
	switch eventType {
	case enum.EventOrderCreated, enum.EventOrderItemAdded, enum.EventOrderCancelled:
		topics = append(topics, enum.TopicKitchen)
	case enum.EventOrderReady, enum.EventOrderDelivered:
		topics = append(topics, enum.TopicFloor)
	case enum.EventOrderPaid, enum.EventOrderInvoiced:
		topics = append(topics, enum.TopicCashier, enum.TopicFloor)
	case enum.EventOrderStatusChanged:
		topics = append(topics, enum.TopicKitchen, enum.TopicFloor)
	}
	return topics
}
