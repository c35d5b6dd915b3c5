package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/comptaline/backoffice/internal/page/domain"
	"github.com/comptaline/backoffice/internal/page/repository"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:page_%d?mode=memory&cache=shared", time.Now().UnixNano())), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Page{}, &domain.PageBlock{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	return &Service{db: db, log: zap.NewNop(), genID: node, repo: repository.Provide()}
}

func TestSetBlocksReplacesAndOrders(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	page, err := svc.Create(ctx, domain.CreateRequest{Title: "Tarifs", Published: true})
	if err != nil {
		t.Fatalf("create page: %v", err)
	}

	_, err = svc.SetBlocks(ctx, page.ID.String(), []domain.BlockRequest{
		{Type: "hero", Payload: map[string]any{"heading": "Nos tarifs"}},
		{Type: "pricing", Payload: map[string]any{"plans": []string{"pro", "assist"}}},
	})
	if err != nil {
		t.Fatalf("set blocks: %v", err)
	}

	// Replacing reorders from scratch.
	updated, err := svc.SetBlocks(ctx, page.ID.String(), []domain.BlockRequest{
		{Type: "text", Payload: map[string]any{"html": "<p>Intro</p>"}},
		{Type: "faq"},
		{Type: "cta", Payload: map[string]any{"label": "Essayer"}},
	})
	if err != nil {
		t.Fatalf("replace blocks: %v", err)
	}
	if len(updated.Blocks) != 3 {
		t.Fatalf("want 3 blocks, got %d", len(updated.Blocks))
	}

	got, err := svc.GetPublished(ctx, page.Slug)
	if err != nil {
		t.Fatalf("get published: %v", err)
	}
	if len(got.Blocks) != 3 {
		t.Fatalf("want 3 persisted blocks, got %d", len(got.Blocks))
	}
	wantTypes := []domain.BlockType{domain.BlockText, domain.BlockFAQ, domain.BlockCTA}
	for i, block := range got.Blocks {
		if block.Type != wantTypes[i] || block.Position != i {
			t.Fatalf("block %d out of order: %+v", i, block)
		}
	}
}

func TestSetBlocksRejectsUnknownType(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	page, err := svc.Create(ctx, domain.CreateRequest{Title: "Accueil"})
	if err != nil {
		t.Fatalf("create page: %v", err)
	}
	_, err = svc.SetBlocks(ctx, page.ID.String(), []domain.BlockRequest{{Type: "carousel"}})
	if !errors.Is(err, domain.ErrInvalidBlockType) {
		t.Fatalf("want invalid block type, got %v", err)
	}
}

func TestGetPublishedHidesDrafts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	page, err := svc.Create(ctx, domain.CreateRequest{Title: "Brouillon"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.GetPublished(ctx, page.Slug); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("draft page must 404, got %v", err)
	}
}
