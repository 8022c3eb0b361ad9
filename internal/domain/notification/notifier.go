package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vispass/vispass-api/internal/domain/pass"
	"github.com/vispass/vispass-api/internal/domain/topup"
)

// Notifier translates domain events into stored notifications and realtime
// pushes. It implements topup.Notifier and pass.Notifier.
type Notifier struct {
	svc *Service
}

// NewNotifier creates the fan-out adapter
func NewNotifier(svc *Service) *Notifier {
	return &Notifier{svc: svc}
}

var _ topup.Notifier = (*Notifier)(nil)
var _ pass.Notifier = (*Notifier)(nil)

// create stores a notification and logs a persistence failure. Fan-out is
// fire-and-forget for the caller, but a dropped notification must leave a
// trace.
func (n *Notifier) create(ctx context.Context, accountID uuid.UUID, notifType Type, title, body string, data *EventData) {
	if _, err := n.svc.Create(ctx, accountID, notifType, title, body, data); err != nil {
		log.Error().Err(err).
			Str("account_id", accountID.String()).
			Str("type", string(notifType)).
			Msg("failed to store notification")
	}
}

// TopUpSubmitted alerts the admin room that a request is awaiting verification.
func (n *Notifier) TopUpSubmitted(ctx context.Context, req *topup.Request) {
	n.svc.Broadcast(string(TypeTopUpSubmitted), map[string]interface{}{
		"topup_id":   req.ID,
		"account_id": req.AccountID,
		"amount":     req.Amount,
		"method":     string(req.Method),
	})
}

// TopUpDecided notifies the submitter about the verdict.
func (n *Notifier) TopUpDecided(ctx context.Context, req *topup.Request) {
	data := &EventData{TopUpID: &req.ID, Amount: &req.Amount}

	if req.Status == topup.StatusApproved {
		n.create(ctx, req.AccountID, TypeTopUpApproved,
			"Top-up approved",
			fmt.Sprintf("%d credited to your wallet", req.Amount),
			data,
		)
		return
	}

	body := "Your top-up request was rejected"
	if req.AdminNote.Valid && req.AdminNote.String != "" {
		body = "Your top-up request was rejected: " + req.AdminNote.String
	}
	n.create(ctx, req.AccountID, TypeTopUpRejected, "Top-up rejected", body, data)
}

// PassIssued confirms issuance to the owner.
func (n *Notifier) PassIssued(ctx context.Context, c *pass.Credential) {
	n.create(ctx, c.AccountID, TypePassIssued,
		"Visitor pass issued",
		fmt.Sprintf("Pass for %s is ready, %d charged", c.VisitorName, c.FeeCharged),
		&EventData{PassID: &c.ID, Amount: &c.FeeCharged},
	)
}

// PassConsumed tells the owner their visitor entered.
func (n *Notifier) PassConsumed(ctx context.Context, c *pass.Credential) {
	n.create(ctx, c.AccountID, TypePassConsumed,
		"Visitor entered",
		c.VisitorName+" has been admitted at the gate",
		&EventData{PassID: &c.ID},
	)
}

// PassExpired tells the owner their pass lapsed or was cancelled.
func (n *Notifier) PassExpired(ctx context.Context, c *pass.Credential) {
	n.create(ctx, c.AccountID, TypePassExpired,
		"Visitor pass expired",
		"Pass for "+c.VisitorName+" is no longer valid",
		&EventData{PassID: &c.ID},
	)
}
