package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const maxEventBodySize = 1 << 20 // 1MB

// EventFirer is the host event bus as seen by the ingress endpoint
type EventFirer interface {
	Fire(ctx context.Context, event string, args ...any) int
}

// EventHandler lets the host application fire named events over HTTP
type EventHandler struct {
	bus EventFirer
}

// NewEventHandler creates a new event handler
func NewEventHandler(bus EventFirer) *EventHandler {
	return &EventHandler{bus: bus}
}

// HandleFire fires :event with the elements of the JSON array body as
// positional arguments. Deliveries run inline, so the response is sent only
// after every subscribed webhook has been called.
func (eh *EventHandler) HandleFire(c *gin.Context) {
	event := c.Param("event")
	if event == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "event name is required",
		})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxEventBodySize+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to read request body",
		})
		return
	}
	if len(body) > maxEventBodySize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": "payload too large (max 1MB)",
		})
		return
	}

	args, err := decodeEventArgs(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "body must be a JSON array of event arguments",
		})
		return
	}

	listeners := eh.bus.Fire(c.Request.Context(), event, args...)

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"event":     event,
		"listeners": listeners,
	})
}

// decodeEventArgs keeps every argument as raw JSON so it is re-sent verbatim
func decodeEventArgs(body []byte) ([]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}

	args := make([]any, len(raw))
	for i, r := range raw {
		args[i] = r
	}
	return args, nil
}
