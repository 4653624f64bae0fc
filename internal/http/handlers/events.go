// README: Server-Sent Events hub pushing session and suggestion updates to connected browsers.
package handlers

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gin-gonic/gin"

	"zekken/internal/modules/search"
	"zekken/internal/modules/suggest"
)

type EventType string

const (
	EventState       EventType = "state"
	EventSuggestions EventType = "suggestions"
)

type Event struct {
	Type EventType
	Data any
}

type client struct {
	events chan Event
}

// Hub fans events out to every connected stream. Slow clients miss events rather than block publishers.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	log     *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{clients: make(map[*client]struct{}), log: log}
}

func (h *Hub) Publish(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.events <- e:
		default:
			h.log.Warn("event buffer full; dropping event", "type", e.Type)
		}
	}
}

// PublishState is a search.Listener.
func (h *Hub) PublishState(st search.State) {
	h.Publish(Event{Type: EventState, Data: NewSessionResponse(st)})
}

// PublishSuggestions is a suggest.Listener.
func (h *Hub) PublishSuggestions(s suggest.Suggestions) {
	h.Publish(Event{Type: EventSuggestions, Data: s})
}

func (h *Hub) addClient() *client {
	c := &client{events: make(chan Event, 32)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *Hub) removeClient(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// Clients reports how many streams are connected.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stream serves the event stream, starting with the current session.
func (h *Hub) Stream(svc *search.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		cl := h.addClient()
		defer h.removeClient(cl)

		h.send(c, Event{Type: EventState, Data: NewSessionResponse(svc.State())})

		done := c.Request.Context().Done()
		for {
			select {
			case <-done:
				return
			case e := <-cl.events:
				h.send(c, e)
			}
		}
	}
}

func (h *Hub) send(c *gin.Context, e Event) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		h.log.Error("could not encode event", "type", e.Type, "err", err)
		return
	}
	c.SSEvent(string(e.Type), string(data))
	c.Writer.Flush()
}
