package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/nxtgen-lms-api/internal/middleware"
	"github.com/noah-isme/nxtgen-lms-api/internal/service"
	"github.com/noah-isme/nxtgen-lms-api/internal/session"
)

const (
	changeSubscriberKey = "change_subscriber_id"
	changePingInterval  = 30 * time.Second
	changeWriteTimeout  = 10 * time.Second
)

// ChangeHandler streams change events to the signed-in user over a websocket.
type ChangeHandler struct {
	service service.ChangeService
	logger  zerolog.Logger
}

// NewChangeHandler creates a change feed handler.
func NewChangeHandler(service service.ChangeService, logger zerolog.Logger) *ChangeHandler {
	return &ChangeHandler{
		service: service,
		logger:  logger.With().Str("component", "change_handler").Logger(),
	}
}

// Register binds the websocket upgrade under the provided router group.
func (h *ChangeHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		principal, ok := session.Current(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		c.Locals(changeSubscriberKey, principal.UserID())
		return c.Next()
	})

	router.Get("/ws", websocket.New(h.handleConnection))
}

func (h *ChangeHandler) handleConnection(conn *websocket.Conn) {
	userID, ok := conn.Locals(changeSubscriberKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "user id missing"))
		_ = conn.Close()
		return
	}

	log := h.logger.With().
		Str("user_id", userID.String()).
		Str("correlation_id", toString(conn.Locals(middleware.LocalCorrelationID))).
		Logger()

	events, unsubscribe := h.service.Subscribe(userID)
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(changePingInterval)
	defer ticker.Stop()

	log.Info().Msg("change feed connected")
	defer log.Info().Msg("change feed disconnected")

	for {
		select {
		case <-closed:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(changeWriteTimeout))
			if err := conn.WriteJSON(event); err != nil {
				log.Debug().Err(err).Msg("change feed write failed")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(changeWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func toString(value interface{}) string {
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}
