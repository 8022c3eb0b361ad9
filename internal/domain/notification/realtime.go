package notification

import (
	"github.com/google/uuid"
)

// RealtimePublisher pushes notification events to connected clients.
type RealtimePublisher interface {
	NotifyAccount(accountID uuid.UUID, n *NotificationResponse, unreadCount int) error
	NotifyAdmins(event string, payload any) error
}

type wsSender interface {
	SendToAccountJSON(accountID uuid.UUID, payload any) error
	SendToAdminsJSON(payload any) error
}

// WSPublisher publishes notification events over websocket.
type WSPublisher struct {
	sender wsSender
}

// NewWSPublisher creates a WS-backed realtime publisher.
func NewWSPublisher(sender wsSender) *WSPublisher {
	return &WSPublisher{sender: sender}
}

func (p *WSPublisher) NotifyAccount(accountID uuid.UUID, n *NotificationResponse, unreadCount int) error {
	if p == nil || p.sender == nil {
		return nil
	}

	payload := map[string]interface{}{
		"type": "notification:new",
		"data": map[string]interface{}{
			"notification": n,
			"unread_count": unreadCount,
		},
	}

	return p.sender.SendToAccountJSON(accountID, payload)
}

func (p *WSPublisher) NotifyAdmins(event string, payload any) error {
	if p == nil || p.sender == nil {
		return nil
	}

	return p.sender.SendToAdminsJSON(map[string]interface{}{
		"type": event,
		"data": payload,
	})
}
