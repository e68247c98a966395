package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/DJELO6elisee/YouVoice-API/internal/dto"
	"github.com/DJELO6elisee/YouVoice-API/internal/models"
	"github.com/DJELO6elisee/YouVoice-API/internal/testutil"
	"github.com/google/uuid"
)

func TestCreateDirectConversationIsDeduplicated(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	svc := NewConversationService(db)

	first, created, err := svc.Create(ctx, alice.ID, &dto.CreateConversationRequest{ParticipantIDs: []string{bob.ID.String()}})
	if err != nil || !created {
		t.Fatalf("Create: created=%v err=%v", created, err)
	}
	if first.IsGroup || len(first.Participants) != 2 {
		t.Fatalf("unexpected conversation: %+v", first)
	}

	// Same pair from the other side, with a duplicate id thrown in.
	second, created, err := svc.Create(ctx, bob.ID, &dto.CreateConversationRequest{ParticipantIDs: []string{alice.ID.String(), alice.ID.String()}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created || second.ID != first.ID {
		t.Errorf("expected existing conversation %s, got %s (created=%v)", first.ID, second.ID, created)
	}

	var count int64
	db.Model(&models.Conversation{}).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 conversation, got %d", count)
	}
}

func TestConcurrentDirectCreatesShareOneConversation(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	svc := NewConversationService(db)

	const workers = 8
	ids := make([]uuid.UUID, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			creator, other := alice, bob
			if i%2 == 1 {
				creator, other = bob, alice
			}
			c, _, err := svc.Create(ctx, creator.ID, &dto.CreateConversationRequest{ParticipantIDs: []string{other.ID.String()}})
			errs[i] = err
			if err == nil {
				ids[i] = c.ID
			}
		}(i)
	}
	wg.Wait()

	for i := range ids {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Errorf("worker %d got conversation %s, want %s", i, ids[i], ids[0])
		}
	}
	var count int64
	db.Model(&models.Conversation{}).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 conversation, got %d", count)
	}
}

func TestCreateGroupConversation(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	carol := testutil.CreateUser(t, db, "carol")
	svc := NewConversationService(db)

	group, created, err := svc.Create(ctx, alice.ID, &dto.CreateConversationRequest{ParticipantIDs: []string{bob.ID.String(), carol.ID.String()}})
	if err != nil || !created {
		t.Fatalf("Create: created=%v err=%v", created, err)
	}
	if !group.IsGroup || group.Name == nil || *group.Name != "Group (3)" {
		t.Errorf("unexpected group: %+v", group)
	}

	if _, _, err := svc.Create(ctx, alice.ID, &dto.CreateConversationRequest{ParticipantIDs: []string{alice.ID.String()}}); !errors.Is(err, ErrTooFewParticipants) {
		t.Errorf("expected ErrTooFewParticipants, got %v", err)
	}
	if _, _, err := svc.Create(ctx, alice.ID, &dto.CreateConversationRequest{ParticipantIDs: []string{uuid.NewString()}}); !errors.Is(err, ErrParticipantNotFound) {
		t.Errorf("expected ErrParticipantNotFound, got %v", err)
	}
}

func TestSendMessage(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	mallory := testutil.CreateUser(t, db, "mallory")

	pub := &testutil.Publisher{}
	svc := NewConversationService(db)
	svc.SetPublisher(pub)

	conv, _, err := svc.Create(ctx, alice.ID, &dto.CreateConversationRequest{ParticipantIDs: []string{bob.ID.String()}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	msg, err := svc.SendMessage(ctx, alice.ID, conv.ID, "  hi bob  ")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if msg.Content != "hi bob" || msg.Sender == nil || msg.Sender.Username != "alice" {
		t.Errorf("unexpected message: %+v", msg)
	}
	if len(pub.Events) != 1 || pub.Events[0].Room != ConversationRoom(conv.ID) || pub.Events[0].Event != EventNewMessage {
		t.Errorf("unexpected events: %+v", pub.Events)
	}

	if _, err := svc.SendMessage(ctx, mallory.ID, conv.ID, "let me in"); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("expected ErrNotParticipant, got %v", err)
	}
	if _, err := svc.SendMessage(ctx, alice.ID, conv.ID, "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}
	if _, err := svc.SendMessage(ctx, alice.ID, conv.ID, strings.Repeat("é", models.MaxMessageLength+1)); !errors.Is(err, ErrMessageTooLong) {
		t.Errorf("expected ErrMessageTooLong, got %v", err)
	}

	reloaded, err := svc.Get(ctx, conv.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if reloaded.LastMessageID == nil || *reloaded.LastMessageID != msg.ID {
		t.Errorf("last message should still be the first message, got %v", reloaded.LastMessageID)
	}
	if reloaded.LastMessage == nil || reloaded.LastMessage.Content != "hi bob" {
		t.Errorf("expected last message attached, got %+v", reloaded.LastMessage)
	}
	if len(pub.Events) != 1 {
		t.Errorf("failed sends must not publish, got %d events", len(pub.Events))
	}
}

func TestMessagesAccessAndOrder(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	mallory := testutil.CreateUser(t, db, "mallory")
	svc := NewConversationService(db)

	conv, _, err := svc.Create(ctx, alice.ID, &dto.CreateConversationRequest{ParticipantIDs: []string{bob.ID.String()}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, text := range []string{"one", "two", "three"} {
		if _, err := svc.SendMessage(ctx, alice.ID, conv.ID, text); err != nil {
			t.Fatalf("SendMessage: %v", err)
		}
	}

	page := dto.PageQuery{Page: 1, Limit: 2}
	messages, total, err := svc.Messages(ctx, bob.ID, conv.ID, page)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if total != 3 || len(messages) != 2 {
		t.Fatalf("expected 2 of 3 messages, got %d of %d", len(messages), total)
	}
	if messages[0].Content != "two" || messages[1].Content != "three" {
		t.Errorf("expected the latest page in chronological order, got %q, %q", messages[0].Content, messages[1].Content)
	}

	if _, _, err := svc.Messages(ctx, mallory.ID, conv.ID, page); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("expected ErrNotParticipant, got %v", err)
	}
	if _, _, err := svc.Messages(ctx, alice.ID, uuid.New(), page); !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("expected ErrConversationNotFound, got %v", err)
	}

	list, total, err := svc.List(ctx, bob.ID, dto.PageQuery{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || list[0].LastMessage == nil || list[0].LastMessage.Content != "three" {
		t.Errorf("unexpected conversation list: %+v", list)
	}
}

func TestFindUsersExcludesCaller(t *testing.T) {
	db := testutil.NewDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	testutil.CreateUser(t, db, "alicia")
	testutil.CreateUser(t, db, "bob")
	svc := NewConversationService(db)

	users, err := svc.FindUsers(context.Background(), alice.ID, "ALI")
	if err != nil {
		t.Fatalf("FindUsers: %v", err)
	}
	if len(users) != 1 || users[0].Username != "alicia" {
		t.Errorf("unexpected users: %+v", users)
	}
	if _, err := svc.FindUsers(context.Background(), alice.ID, " "); !errors.Is(err, ErrEmptySearch) {
		t.Errorf("expected ErrEmptySearch, got %v", err)
	}
}
