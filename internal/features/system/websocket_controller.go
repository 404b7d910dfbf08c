package system

import (
	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

type WebSocketController struct {
	Hub    *Hub
	Logger *zap.Logger
}

func NewWebSocketController(hub *Hub, logger *zap.Logger) *WebSocketController {
	return &WebSocketController{
		Hub:    hub,
		Logger: logger,
	}
}

// HandleWebSocket subscribes the connection to every published event. Inbound
// frames are read and discarded until the peer goes away.
func (h *WebSocketController) HandleWebSocket(c *websocket.Conn) {
	// the connection is pooled once this returns, so wait for its writer
	done := h.Hub.Register(c)
	defer func() {
		h.Hub.Unregister(c)
		<-done
	}()

	h.Logger.Debug("Websocket client connected", zap.String("remote", c.RemoteAddr().String()))
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			h.Logger.Debug("Websocket client disconnected", zap.Error(err))
			return
		}
	}
}
