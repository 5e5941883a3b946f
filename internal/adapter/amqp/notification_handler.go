package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
)

type NotificationHandler struct {
	logger logger.Logger
	out    io.Writer
}

func NewNotificationHandler(logger logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		logger: logger,
		out:    os.Stdout,
	}
}

func (h *NotificationHandler) HandleNotification(ctx context.Context, body []byte) error {
	var msg interfaces.NotificationMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse notification", "", nil, err)
		return err
	}

	h.logger.Debug("notification_received", fmt.Sprintf("Received %s for customer %d", msg.Type, msg.CustomerID),
		"", map[string]interface{}{
			"customer_id": msg.CustomerID,
			"type":        msg.Type,
		})

	switch msg.Type {
	case interfaces.NotificationItemRepurposed:
		fmt.Fprintf(h.out, "[%s] %s <- %s (%s): %s\n",
			msg.Timestamp.Format("15:04:05"), msg.CustomerName, msg.FromCustomer, msg.Kind, msg.Message)
	default:
		fmt.Fprintf(h.out, "[%s] %s: %s\n", msg.Timestamp.Format("15:04:05"), msg.CustomerName, msg.Message)
	}

	return nil
}
