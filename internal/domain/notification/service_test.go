package notification

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vispass/vispass-api/internal/domain/pass"
	"github.com/vispass/vispass-api/internal/domain/topup"
)

type fakeRepo struct {
	mu    sync.Mutex
	items []*Notification
}

func (f *fakeRepo) Create(ctx context.Context, n *Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *n
	f.items = append(f.items, &copied)
	return nil
}

func (f *fakeRepo) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Notification
	for _, n := range f.items {
		if n.AccountID == accountID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeRepo) CountUnreadByAccount(ctx context.Context, accountID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, n := range f.items {
		if n.AccountID == accountID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) MarkAsRead(ctx context.Context, id, accountID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.items {
		if n.ID == id && n.AccountID == accountID {
			n.IsRead = true
		}
	}
	return nil
}

func (f *fakeRepo) MarkAllAsRead(ctx context.Context, accountID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.items {
		if n.AccountID == accountID {
			n.IsRead = true
		}
	}
	return nil
}

func (f *fakeRepo) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	return 0, nil
}

type recordingPublisher struct {
	mu            sync.Mutex
	accountPushes []*NotificationResponse
	unreadCounts  []int
	adminEvents   []string
}

func (p *recordingPublisher) NotifyAccount(accountID uuid.UUID, n *NotificationResponse, unreadCount int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accountPushes = append(p.accountPushes, n)
	p.unreadCounts = append(p.unreadCounts, unreadCount)
	return nil
}

func (p *recordingPublisher) NotifyAdmins(event string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.adminEvents = append(p.adminEvents, event)
	return nil
}

func TestCreatePersistsAndPushes(t *testing.T) {
	repo := &fakeRepo{}
	pub := &recordingPublisher{}
	svc := NewService(repo, pub)

	accountID := uuid.New()
	n, err := svc.Create(context.Background(), accountID, TypePassIssued, "Visitor pass issued", "Pass for Jane is ready", nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if n.IsRead {
		t.Fatal("new notification must be unread")
	}

	if len(repo.items) != 1 {
		t.Fatalf("expected 1 stored notification, got %d", len(repo.items))
	}
	if len(pub.accountPushes) != 1 {
		t.Fatalf("expected 1 realtime push, got %d", len(pub.accountPushes))
	}
	if pub.unreadCounts[0] != 1 {
		t.Fatalf("expected unread count 1 in push, got %d", pub.unreadCounts[0])
	}
	if pub.accountPushes[0].Type != string(TypePassIssued) {
		t.Fatalf("expected type %s in push, got %s", TypePassIssued, pub.accountPushes[0].Type)
	}
}

func TestMarkAsReadIsAccountScoped(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, nil)

	owner := uuid.New()
	intruder := uuid.New()

	n, err := svc.Create(context.Background(), owner, TypeTopUpApproved, "Top-up approved", "", nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := svc.MarkAsRead(context.Background(), n.ID, intruder); err != nil {
		t.Fatalf("mark as read failed: %v", err)
	}
	count, _ := svc.GetUnreadCount(context.Background(), owner)
	if count != 1 {
		t.Fatalf("expected foreign mark-as-read to be a no-op, unread=%d", count)
	}

	if err := svc.MarkAsRead(context.Background(), n.ID, owner); err != nil {
		t.Fatalf("mark as read failed: %v", err)
	}
	count, _ = svc.GetUnreadCount(context.Background(), owner)
	if count != 0 {
		t.Fatalf("expected unread 0 after owner read, got %d", count)
	}
}

func TestNotifierTopUpDecidedMapping(t *testing.T) {
	repo := &fakeRepo{}
	pub := &recordingPublisher{}
	notifier := NewNotifier(NewService(repo, pub))

	accountID := uuid.New()

	approved := &topup.Request{ID: uuid.New(), AccountID: accountID, Amount: 500, Status: topup.StatusApproved}
	notifier.TopUpDecided(context.Background(), approved)

	rejected := &topup.Request{
		ID:        uuid.New(),
		AccountID: accountID,
		Amount:    300,
		Status:    topup.StatusRejected,
		AdminNote: sql.NullString{String: "blurry receipt", Valid: true},
	}
	notifier.TopUpDecided(context.Background(), rejected)

	if len(repo.items) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(repo.items))
	}
	if repo.items[0].Type != TypeTopUpApproved {
		t.Fatalf("expected %s, got %s", TypeTopUpApproved, repo.items[0].Type)
	}
	if repo.items[1].Type != TypeTopUpRejected {
		t.Fatalf("expected %s, got %s", TypeTopUpRejected, repo.items[1].Type)
	}
	if !repo.items[1].Body.Valid || repo.items[1].Body.String != "Your top-up request was rejected: blurry receipt" {
		t.Fatalf("expected admin note in rejection body, got %+v", repo.items[1].Body)
	}

	data := repo.items[0].GetData()
	if data.TopUpID == nil || *data.TopUpID != approved.ID {
		t.Fatal("expected topup ID in notification data")
	}
	if data.Amount == nil || *data.Amount != 500 {
		t.Fatal("expected amount in notification data")
	}
}

func TestNotifierTopUpSubmittedBroadcastsToAdmins(t *testing.T) {
	repo := &fakeRepo{}
	pub := &recordingPublisher{}
	notifier := NewNotifier(NewService(repo, pub))

	req := &topup.Request{ID: uuid.New(), AccountID: uuid.New(), Amount: 100, Method: topup.MethodGCash}
	notifier.TopUpSubmitted(context.Background(), req)

	if len(repo.items) != 0 {
		t.Fatalf("admin broadcast must not be persisted, got %d rows", len(repo.items))
	}
	if len(pub.adminEvents) != 1 || pub.adminEvents[0] != "topup_submitted" {
		t.Fatalf("expected topup_submitted admin event, got %v", pub.adminEvents)
	}
}

type failingRepo struct {
	fakeRepo
}

func (f *failingRepo) Create(ctx context.Context, n *Notification) error {
	return errors.New("connection refused")
}

func TestNotifierSurvivesStorageFailure(t *testing.T) {
	repo := &failingRepo{}
	pub := &recordingPublisher{}
	notifier := NewNotifier(NewService(repo, pub))

	c := &pass.Credential{ID: uuid.New(), AccountID: uuid.New(), VisitorName: "Jane", FeeCharged: 100}
	notifier.PassIssued(context.Background(), c)

	// The event stays fire-and-forget for the caller, and nothing is pushed
	// for a notification that was never stored
	if len(pub.accountPushes) != 0 {
		t.Fatalf("expected no push after failed persistence, got %d", len(pub.accountPushes))
	}
}

func TestNotifierPassLifecycle(t *testing.T) {
	repo := &fakeRepo{}
	notifier := NewNotifier(NewService(repo, nil))

	accountID := uuid.New()
	c := &pass.Credential{ID: uuid.New(), AccountID: accountID, VisitorName: "Jane", FeeCharged: 100}

	notifier.PassIssued(context.Background(), c)
	notifier.PassConsumed(context.Background(), c)
	notifier.PassExpired(context.Background(), c)

	if len(repo.items) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(repo.items))
	}
	want := []Type{TypePassIssued, TypePassConsumed, TypePassExpired}
	for i, typ := range want {
		if repo.items[i].Type != typ {
			t.Fatalf("notification %d: expected %s, got %s", i, typ, repo.items[i].Type)
		}
	}
}
