package httpserver

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// liveEvents streams conversation lifecycle events to a websocket client as
// JSON. Each client gets its own bus subscription; a slow client drops events
// rather than stalling the turn loop.
func (h *Handlers) liveEvents(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("httpserver: websocket upgrade failed: %v", err)
		return err
	}
	defer conn.Close()

	events, unsubscribe := h.Conv.Events().Subscribe(256)
	defer unsubscribe()

	// Read loop exists only to detect the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return nil
		case <-c.Request().Context().Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := conn.WriteJSON(ev); err != nil {
				log.Printf("httpserver: websocket write failed: %v", err)
				return nil
			}
		}
	}
}
