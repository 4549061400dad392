package handlers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/weave-cash/backend/internal/events"
)

// WSHub pushes invoice events to websocket clients watching that invoice.
type WSHub struct {
	subscriber  events.Subscriber
	log         *zap.Logger
	mu          sync.RWMutex
	connections map[uuid.UUID][]*websocket.Conn
}

func NewWSHub(subscriber events.Subscriber, log *zap.Logger) *WSHub {
	return &WSHub{
		subscriber:  subscriber,
		log:         log,
		connections: make(map[uuid.UUID][]*websocket.Conn),
	}
}

func (h *WSHub) Start(ctx context.Context) error {
	return h.subscriber.Subscribe(ctx, events.ChannelInvoice, h.dispatch)
}

func (h *WSHub) dispatch(event events.Event) {
	id, err := uuid.Parse(event.InvoiceID())
	if err != nil {
		h.log.Debug("ws: event without invoice id", zap.String("type", event.Type))
		return
	}
	h.SendToInvoice(id, event)
}

func (h *WSHub) SendToInvoice(invoiceID uuid.UUID, event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	// Subscriber callbacks run on one goroutine, so writes per conn are serialized.
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections[invoiceID] {
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}
}

// Watchers reports how many connections follow the invoice.
func (h *WSHub) Watchers(invoiceID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[invoiceID])
}

// WSUpgradeMiddleware checks for websocket upgrade
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

func (h *WSHub) register(id uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	h.connections[id] = append(h.connections[id], conn)
	h.mu.Unlock()
}

func (h *WSHub) unregister(id uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.connections[id]
	for i, c := range conns {
		if c == conn {
			h.connections[id] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.connections[id]) == 0 {
		delete(h.connections, id)
	}
}

func (h *WSHub) HandleWS(conn *websocket.Conn) {
	invoiceID, err := uuid.Parse(conn.Query("invoice_id"))
	if err != nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid invoice_id"}`))
		conn.Close()
		return
	}

	h.register(invoiceID, conn)
	defer func() {
		h.unregister(invoiceID, conn)
		conn.Close()
	}()

	// Read loop (keep alive / pings)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
