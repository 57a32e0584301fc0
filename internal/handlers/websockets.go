package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"stereovision/internal/logger"
	wshub "stereovision/internal/services/websocket"
)

const (
	viewerReadTimeout = 60 * time.Second
	pingWriteTimeout  = 10 * time.Second
)

var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ViewWebsocketHandler streams display messages to a viewer until it
// disconnects. Viewers only receive; anything they send is discarded. The
// server pings so that a silent viewer's pongs keep the read deadline alive.
func ViewWebsocketHandler(hub *wshub.HubService, logger *logger.Logger) http.HandlerFunc {
	return viewWebsocketHandler(hub, logger, viewerReadTimeout)
}

func viewWebsocketHandler(hub *wshub.HubService, logger *logger.Logger, readTimeout time.Duration) http.HandlerFunc {
	pingPeriod := readTimeout * 9 / 10

	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warning("WebSocket upgrade error: %v", err)
			return
		}
		connection.SetReadLimit(512)
		connection.SetReadDeadline(time.Now().Add(readTimeout))
		connection.SetPongHandler(func(appData string) error {
			connection.SetReadDeadline(time.Now().Add(readTimeout))
			return nil
		})

		hub.Register(connection)
		defer hub.Unregister(connection)

		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(pingPeriod)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					// WriteControl may run alongside the hub's writes
					if err := connection.WriteControl(websocket.PingMessage, nil, time.Now().Add(pingWriteTimeout)); err != nil {
						return
					}
				}
			}
		}()

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				return
			}
			connection.SetReadDeadline(time.Now().Add(readTimeout))
		}
	}
}
