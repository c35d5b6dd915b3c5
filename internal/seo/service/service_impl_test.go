package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/comptaline/backoffice/internal/seo/domain"
	"github.com/comptaline/backoffice/internal/seo/repository"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:seo_%d?mode=memory&cache=shared", time.Now().UnixNano())), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.SeoEntry{}); err != nil {
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
		cache: newResolvedCache(5 * time.Minute),
	}
}

func TestResolveMergesDefaults(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, domain.UpsertRequest{
		Route:        domain.DefaultsRoute,
		Title:        "Comptaline - Logiciels de comptabilité",
		Description:  "Logiciels de comptabilité pour TPE et indépendants.",
		GeoRegion:    "FR-ARA",
		GeoPlacename: "Lyon",
	}); err != nil {
		t.Fatalf("upsert defaults: %v", err)
	}
	if _, err := svc.Upsert(ctx, domain.UpsertRequest{
		Route: "/tarifs",
		Title: "Tarifs - Comptaline",
	}); err != nil {
		t.Fatalf("upsert route: %v", err)
	}

	resolved, err := svc.Resolve(ctx, "/tarifs")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Title != "Tarifs - Comptaline" {
		t.Fatalf("route override lost: %q", resolved.Title)
	}
	if resolved.Description != "Logiciels de comptabilité pour TPE et indépendants." {
		t.Fatalf("default not merged: %q", resolved.Description)
	}
	if resolved.GeoRegion != "FR-ARA" || resolved.GeoPlacename != "Lyon" {
		t.Fatalf("geo defaults missing: %+v", resolved)
	}

	// Unknown route falls back entirely to the defaults.
	fallback, err := svc.Resolve(ctx, "/inconnu")
	if err != nil {
		t.Fatalf("resolve fallback: %v", err)
	}
	if fallback.Title != "Comptaline - Logiciels de comptabilité" {
		t.Fatalf("fallback lost: %+v", fallback)
	}
}

func TestResolveCachesUntilWrite(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, domain.UpsertRequest{Route: "/tarifs", Title: "v1"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := svc.Resolve(ctx, "/tarifs"); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	// Direct DB writes are invisible while the entry is cached.
	if err := svc.db.Model(&domain.SeoEntry{}).Where("route = ?", "/tarifs").
		Update("title", "sneaky").Error; err != nil {
		t.Fatalf("raw update: %v", err)
	}
	resolved, err := svc.Resolve(ctx, "/tarifs")
	if err != nil {
		t.Fatalf("resolve cached: %v", err)
	}
	if resolved.Title != "v1" {
		t.Fatalf("cache bypassed: %q", resolved.Title)
	}

	// A write through the service flushes the cache.
	if _, err := svc.Upsert(ctx, domain.UpsertRequest{Route: "/tarifs", Title: "v2"}); err != nil {
		t.Fatalf("upsert v2: %v", err)
	}
	resolved, err = svc.Resolve(ctx, "/tarifs")
	if err != nil {
		t.Fatalf("resolve after write: %v", err)
	}
	if resolved.Title != "v2" {
		t.Fatalf("cache not flushed: %q", resolved.Title)
	}
}

func TestResolveCacheExpires(t *testing.T) {
	svc := newTestService(t)
	svc.cache = newResolvedCache(time.Millisecond)
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, domain.UpsertRequest{Route: "/tarifs", Title: "v1"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := svc.Resolve(ctx, "/tarifs"); err != nil {
		t.Fatalf("warm: %v", err)
	}

	if err := svc.db.Model(&domain.SeoEntry{}).Where("route = ?", "/tarifs").
		Update("title", "v2").Error; err != nil {
		t.Fatalf("raw update: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	resolved, err := svc.Resolve(ctx, "/tarifs")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Title != "v2" {
		t.Fatalf("ttl not honored: %q", resolved.Title)
	}
}

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/tarifs", "/tarifs"},
		{"tarifs", "/tarifs"},
		{"/Tarifs/", "/tarifs"},
		{"/", "/"},
		{"", ""},
		{domain.DefaultsRoute, ""},
	}
	for _, tt := range tests {
		if got := normalizeRoute(tt.in); got != tt.want {
			t.Errorf("normalizeRoute(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
