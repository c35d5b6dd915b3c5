package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/comptaline/backoffice/internal/newsletter/domain"
	"github.com/comptaline/backoffice/internal/newsletter/repository"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:newsletter_%d?mode=memory&cache=shared", time.Now().UnixNano())), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Subscriber{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	return &Service{
		db:    db,
		log:   zap.NewNop(),
		genID: node,
		repo:  repository.Provide(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func TestSubscribeLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, "  Jean.Dupont@Example.FR ", "footer")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if sub.Email != "jean.dupont@example.fr" {
		t.Fatalf("email not normalized: %q", sub.Email)
	}
	if !sub.Active() {
		t.Fatal("new subscriber should be active")
	}

	if _, err := svc.Subscribe(ctx, "jean.dupont@example.fr", "footer"); err != domain.ErrAlreadySubscribed {
		t.Fatalf("duplicate subscribe: got %v, want ErrAlreadySubscribed", err)
	}

	if err := svc.Unsubscribe(ctx, "jean.dupont@example.fr"); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	// Unsubscribing twice is a no-op.
	if err := svc.Unsubscribe(ctx, "jean.dupont@example.fr"); err != nil {
		t.Fatalf("second unsubscribe: %v", err)
	}

	reactivated, err := svc.Subscribe(ctx, "jean.dupont@example.fr", "checkout")
	if err != nil {
		t.Fatalf("resubscribe: %v", err)
	}
	if !reactivated.Active() {
		t.Fatal("resubscriber should be active again")
	}
	if reactivated.Source != "checkout" {
		t.Fatalf("source not updated: %q", reactivated.Source)
	}
}

func TestSubscribeRejectsInvalidEmail(t *testing.T) {
	svc := newTestService(t)
	for _, email := range []string{"", "no-at-sign", "a@b", "deux @mots.fr"} {
		if _, err := svc.Subscribe(context.Background(), email, "footer"); err != domain.ErrInvalidEmail {
			t.Errorf("Subscribe(%q): got %v, want ErrInvalidEmail", email, err)
		}
	}
}

func TestUnsubscribeUnknownEmail(t *testing.T) {
	svc := newTestService(t)
	if err := svc.Unsubscribe(context.Background(), "absent@example.fr"); err != domain.ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestImportCSV(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Subscribe(ctx, "deja@example.fr", "footer"); err != nil {
		t.Fatalf("seed subscriber: %v", err)
	}

	input := strings.Join([]string{
		"email,source",
		"alice@example.fr,salon",
		"deja@example.fr",
		"pas-un-email",
		"bob@example.fr",
	}, "\n")

	summary, err := svc.ImportCSV(ctx, strings.NewReader(input), "import")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if summary.Imported != 2 || summary.Skipped != 1 || summary.Invalid != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	alice, err := svc.repo.FindByEmail(ctx, svc.db, "alice@example.fr")
	if err != nil || alice == nil {
		t.Fatalf("alice not imported: %v", err)
	}
	if alice.Source != "salon" {
		t.Fatalf("row source ignored: %q", alice.Source)
	}
	bob, err := svc.repo.FindByEmail(ctx, svc.db, "bob@example.fr")
	if err != nil || bob == nil {
		t.Fatalf("bob not imported: %v", err)
	}
	if bob.Source != "import" {
		t.Fatalf("fallback source ignored: %q", bob.Source)
	}
}

func TestExportCSV(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Subscribe(ctx, "alice@example.fr", "salon"); err != nil {
		t.Fatalf("subscribe alice: %v", err)
	}
	if _, err := svc.Subscribe(ctx, "bob@example.fr", "footer"); err != nil {
		t.Fatalf("subscribe bob: %v", err)
	}
	if err := svc.Unsubscribe(ctx, "bob@example.fr"); err != nil {
		t.Fatalf("unsubscribe bob: %v", err)
	}

	var buf bytes.Buffer
	if err := svc.ExportCSV(ctx, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines:\n%s", len(lines), buf.String())
	}
	if lines[0] != "email,source,subscribed_at,unsubscribed_at" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(buf.String(), "alice@example.fr,salon,") {
		t.Fatalf("alice row missing:\n%s", buf.String())
	}
	var bobLine string
	for _, line := range lines[1:] {
		if strings.HasPrefix(line, "bob@example.fr,") {
			bobLine = line
		}
	}
	if bobLine == "" || strings.HasSuffix(bobLine, ",") {
		t.Fatalf("bob row should carry an unsubscribed_at timestamp: %q", bobLine)
	}
}
