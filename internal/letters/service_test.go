package letters

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/entwine-labs/entwine/backend/internal/ident"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newLettersTestService(t *testing.T, now time.Time) (*Service, *[]string) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Letter{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	notifications := &[]string{}
	service, err := NewService(ServiceConfig{
		Database:   db,
		Clock:      func() time.Time { return now },
		IDProvider: ident.NewUUIDProvider(),
		Notify: func(coupleID, event string) {
			*notifications = append(*notifications, event)
		},
	})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return service, notifications
}

func TestCreateRequiresTitleAndBody(t *testing.T) {
	service, _ := newLettersTestService(t, time.Unix(1750000000, 0))
	ctx := context.Background()
	if _, err := service.Create(ctx, "couple-1", "alice", "  ", "body", 0); !errors.Is(err, ErrInvalidLetter) {
		t.Fatalf("expected ErrInvalidLetter, got %v", err)
	}
	if _, err := service.Create(ctx, "couple-1", "alice", "title", "", 0); !errors.Is(err, ErrInvalidLetter) {
		t.Fatalf("expected ErrInvalidLetter, got %v", err)
	}
}

func TestSealedBodiesHiddenFromPartnerUntilUnseal(t *testing.T) {
	now := time.Unix(1750000000, 0)
	service, _ := newLettersTestService(t, now)
	ctx := context.Background()

	created, err := service.Create(ctx, "couple-1", "alice", "open later", "surprise", now.Add(24*time.Hour).Unix())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	asAuthor, err := service.Get(ctx, "couple-1", created.LetterID, "alice")
	if err != nil {
		t.Fatalf("author get: %v", err)
	}
	if asAuthor.Body != "surprise" {
		t.Fatalf("author must always see the body, got %q", asAuthor.Body)
	}

	asPartner, err := service.Get(ctx, "couple-1", created.LetterID, "bob")
	if err != nil {
		t.Fatalf("partner get: %v", err)
	}
	if asPartner.Body != "" {
		t.Fatalf("sealed body must be hidden from the partner, got %q", asPartner.Body)
	}

	listed, err := service.List(ctx, "couple-1", "bob")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].Body != "" {
		t.Fatalf("sealed letters must list with blank bodies: %+v", listed)
	}
}

func TestUnsealedLettersVisibleToBoth(t *testing.T) {
	now := time.Unix(1750000000, 0)
	service, _ := newLettersTestService(t, now)
	ctx := context.Background()

	created, err := service.Create(ctx, "couple-1", "alice", "hello", "dear you", now.Add(-time.Hour).Unix())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	asPartner, err := service.Get(ctx, "couple-1", created.LetterID, "bob")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if asPartner.Body != "dear you" {
		t.Fatalf("expected visible body, got %q", asPartner.Body)
	}
}

func TestDeleteRestrictedToAuthor(t *testing.T) {
	service, notifications := newLettersTestService(t, time.Unix(1750000000, 0))
	ctx := context.Background()

	created, err := service.Create(ctx, "couple-1", "alice", "title", "body", 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := service.Delete(ctx, "couple-1", created.LetterID, "bob"); !errors.Is(err, ErrNotAuthor) {
		t.Fatalf("expected ErrNotAuthor, got %v", err)
	}
	if err := service.Delete(ctx, "couple-1", created.LetterID, "alice"); err != nil {
		t.Fatalf("author delete: %v", err)
	}
	if err := service.Delete(ctx, "couple-1", created.LetterID, "alice"); !errors.Is(err, ErrLetterNotFound) {
		t.Fatalf("expected ErrLetterNotFound, got %v", err)
	}

	count, err := service.Count(ctx, "couple-1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty mailbox, got %d", count)
	}
	expected := []string{"letter-created", "letter-deleted"}
	if len(*notifications) != len(expected) {
		t.Fatalf("unexpected notifications: %v", *notifications)
	}
	for i, event := range expected {
		if (*notifications)[i] != event {
			t.Fatalf("expected notification %q at %d, got %v", event, i, *notifications)
		}
	}
}
