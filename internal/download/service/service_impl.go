package service

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/comptaline/backoffice/internal/catalog/domain"
	"github.com/comptaline/backoffice/internal/config"
	"github.com/comptaline/backoffice/internal/download/domain"
	orderdomain "github.com/comptaline/backoffice/internal/order/domain"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Config  config.Config
	Repo    domain.Repository
	Catalog catalogdomain.Service
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	catalog    catalogdomain.Service
	ttl        time.Duration
	maxCount   int
	storageDir string
	now        func() time.Time
}

func New(p Params) domain.Service {
	ttl := time.Duration(p.Config.DownloadLinkTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	maxCount := p.Config.DownloadMaxCount
	if maxCount <= 0 {
		maxCount = 5
	}
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("download.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		catalog:    p.Catalog,
		ttl:        ttl,
		maxCount:   maxCount,
		storageDir: p.Config.BinaryStorageDir,
		now:        time.Now,
	}
}

func (s *Service) EnsureLinks(ctx context.Context, order *orderdomain.Order) ([]domain.DownloadLink, error) {
	if order == nil {
		return nil, gorm.ErrInvalidData
	}
	if order.Status != orderdomain.StatusPaid {
		return nil, domain.ErrOrderUnpaid
	}

	var links []domain.DownloadLink
	for _, item := range order.Items {
		if item.BinaryID == nil || *item.BinaryID == 0 {
			continue
		}

		existing, err := s.repo.FindActiveByOrderItem(ctx, s.db, item.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			links = append(links, *existing)
			continue
		}

		now := s.now().UTC()
		link := &domain.DownloadLink{
			ID:          s.genID.Generate(),
			OrderID:     order.ID,
			OrderItemID: item.ID,
			ProductID:   item.ProductID,
			BinaryID:    *item.BinaryID,
			Token:       uuid.NewString(),
			ExpiresAt:   now.Add(s.ttl),
			MaxCount:    s.maxCount,
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.Create(ctx, s.db, link); err != nil {
			return nil, err
		}
		s.log.Info("download link issued",
			zap.String("order_id", order.ID.String()),
			zap.String("order_item_id", item.ID.String()),
		)
		links = append(links, *link)
	}
	return links, nil
}

func (s *Service) Resolve(ctx context.Context, token string) (*domain.Delivery, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrNotFound
	}

	link, err := s.repo.FindByToken(ctx, s.db, token)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, domain.ErrNotFound
	}
	if !link.Active {
		return nil, domain.ErrRevoked
	}
	if s.now().After(link.ExpiresAt) {
		return nil, domain.ErrExpired
	}

	claimed, err := s.repo.IncrementCount(ctx, s.db, link.ID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, domain.ErrExhausted
	}
	link.Count++

	product, binary, err := s.catalog.ResolveActive(ctx, link.ProductID, &link.BinaryID)
	if err != nil {
		return nil, domain.ErrNoBinary
	}
	if binary == nil {
		return nil, domain.ErrNoBinary
	}

	return &domain.Delivery{
		Link:     link,
		FilePath: filepath.Join(s.storageDir, binary.FilePath),
		FileName: deliveryFileName(product, binary),
		Checksum: binary.Checksum,
	}, nil
}

func (s *Service) ListByOrder(ctx context.Context, orderID snowflake.ID) ([]domain.DownloadLink, error) {
	return s.repo.ListByOrder(ctx, s.db, orderID)
}

func (s *Service) Revoke(ctx context.Context, id snowflake.ID) error {
	return s.repo.Revoke(ctx, s.db, id)
}

func deliveryFileName(product *catalogdomain.Product, binary *catalogdomain.ProductBinary) string {
	base := filepath.Base(binary.FilePath)
	ext := filepath.Ext(base)
	return strings.ToLower(product.Code) + "-" + binary.Version + "-" + binary.Platform + ext
}
