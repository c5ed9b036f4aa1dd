package couples

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/entwine-labs/entwine/backend/internal/ident"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newCouplesTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Couple{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	service, err := NewService(ServiceConfig{
		Database:   db,
		IDProvider: ident.NewUUIDProvider(),
	})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return service
}

func TestCreateIssuesInviteCode(t *testing.T) {
	service := newCouplesTestService(t)
	couple, err := service.Create(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if couple.User1ID != "alice" {
		t.Fatalf("expected alice as user1, got %q", couple.User1ID)
	}
	if len(couple.InviteCode) != inviteCodeLength {
		t.Fatalf("expected %d-char invite code, got %q", inviteCodeLength, couple.InviteCode)
	}
	for _, char := range couple.InviteCode {
		if !strings.ContainsRune(inviteCodeChars, char) {
			t.Fatalf("invite code %q uses character outside the alphabet", couple.InviteCode)
		}
	}
}

func TestCreateRejectsAlreadyPairedUser(t *testing.T) {
	service := newCouplesTestService(t)
	ctx := context.Background()
	if _, err := service.Create(ctx, "alice"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := service.Create(ctx, "alice"); !errors.Is(err, ErrAlreadyPaired) {
		t.Fatalf("expected ErrAlreadyPaired, got %v", err)
	}
}

func TestJoinPairsSecondUser(t *testing.T) {
	service := newCouplesTestService(t)
	ctx := context.Background()
	created, err := service.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	joined, err := service.Join(ctx, strings.ToLower(created.InviteCode), "bob")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if joined.User2ID != "bob" {
		t.Fatalf("expected bob as user2, got %q", joined.User2ID)
	}

	membership, err := service.MembershipOf(ctx, created.CoupleID)
	if err != nil {
		t.Fatalf("membership: %v", err)
	}
	if membership.User1ID != "alice" || membership.User2ID != "bob" {
		t.Fatalf("unexpected membership: %+v", membership)
	}
}

func TestJoinRejectsSelfAndFullCouples(t *testing.T) {
	service := newCouplesTestService(t)
	ctx := context.Background()
	created, err := service.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := service.Join(ctx, created.InviteCode, "alice"); !errors.Is(err, ErrAlreadyPaired) {
		t.Fatalf("expected creator join to be rejected, got %v", err)
	}
	if _, err := service.Join(ctx, created.InviteCode, "bob"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := service.Join(ctx, created.InviteCode, "carol"); !errors.Is(err, ErrCoupleFull) {
		t.Fatalf("expected ErrCoupleFull, got %v", err)
	}
}

func TestJoinUnknownCode(t *testing.T) {
	service := newCouplesTestService(t)
	if _, err := service.Join(context.Background(), "NOPE42", "bob"); !errors.Is(err, ErrCoupleNotFound) {
		t.Fatalf("expected ErrCoupleNotFound, got %v", err)
	}
}

func TestRequireMemberChecksBothSlots(t *testing.T) {
	service := newCouplesTestService(t)
	ctx := context.Background()
	created, err := service.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.Join(ctx, created.InviteCode, "bob"); err != nil {
		t.Fatalf("join: %v", err)
	}

	for _, member := range []string{"alice", "BOB"} {
		if _, err := service.RequireMember(ctx, created.CoupleID, member); err != nil {
			t.Fatalf("expected %s to be a member: %v", member, err)
		}
	}
	if _, err := service.RequireMember(ctx, created.CoupleID, "mallory"); !errors.Is(err, ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
}

func TestMembershipContainsAndPartnerOf(t *testing.T) {
	membership := Membership{User1ID: "Alice", User2ID: "bob"}
	if !membership.Contains("alice") || !membership.Contains("BOB") {
		t.Fatalf("expected case-insensitive membership")
	}
	if membership.Contains("carol") {
		t.Fatalf("carol is not a member")
	}
	if partner := membership.PartnerOf("alice"); partner != "bob" {
		t.Fatalf("expected bob as partner, got %q", partner)
	}
	if partner := membership.PartnerOf("bob"); partner != "Alice" {
		t.Fatalf("expected Alice as partner, got %q", partner)
	}
	if partner := membership.PartnerOf("carol"); partner != "" {
		t.Fatalf("expected empty partner for outsider, got %q", partner)
	}
}
