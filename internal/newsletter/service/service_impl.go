package service

import (
	"context"
	"encoding/csv"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/comptaline/backoffice/internal/newsletter/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	now   func() time.Time
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("newsletter.service"),
		genID: p.GenID,
		repo:  p.Repo,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Subscribe(ctx context.Context, email, source string) (*domain.Subscriber, error) {
	email = normalizeEmail(email)
	if !emailPattern.MatchString(email) {
		return nil, domain.ErrInvalidEmail
	}

	now := s.now()
	existing, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Active() {
			return nil, domain.ErrAlreadySubscribed
		}
		// A past unsubscriber opting back in starts a fresh subscription.
		existing.UnsubscribedAt = nil
		existing.SubscribedAt = now
		existing.Source = strings.TrimSpace(source)
		existing.UpdatedAt = now
		if err := s.repo.Update(ctx, s.db, existing); err != nil {
			return nil, err
		}
		s.log.Info("subscriber reactivated", zap.String("email", email))
		return existing, nil
	}

	sub := &domain.Subscriber{
		ID:           s.genID.Generate(),
		Email:        email,
		Source:       strings.TrimSpace(source),
		SubscribedAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, s.db, sub); err != nil {
		return nil, err
	}
	s.log.Info("subscriber created", zap.String("email", email), zap.String("source", sub.Source))
	return sub, nil
}

func (s *Service) Unsubscribe(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	sub, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return err
	}
	if sub == nil {
		return domain.ErrNotFound
	}
	if !sub.Active() {
		return nil
	}
	now := s.now()
	sub.UnsubscribedAt = &now
	sub.UpdatedAt = now
	return s.repo.Update(ctx, s.db, sub)
}

func (s *Service) List(ctx context.Context, filter domain.ListFilter) ([]domain.Subscriber, error) {
	return s.repo.List(ctx, s.db, filter)
}

func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	subs, err := s.repo.List(ctx, s.db, domain.ListFilter{})
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"email", "source", "subscribed_at", "unsubscribed_at"}); err != nil {
		return err
	}
	for _, sub := range subs {
		unsubscribed := ""
		if sub.UnsubscribedAt != nil {
			unsubscribed = sub.UnsubscribedAt.Format(time.RFC3339)
		}
		record := []string{
			sub.Email,
			sub.Source,
			sub.SubscribedAt.Format(time.RFC3339),
			unsubscribed,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func (s *Service) ImportCSV(ctx context.Context, r io.Reader, source string) (*domain.ImportSummary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	summary := &domain.ImportSummary{}
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, domain.ErrInvalidCSV
		}
		if len(record) == 0 {
			continue
		}
		email := normalizeEmail(record[0])
		if first {
			first = false
			// Tolerate an optional header row.
			if email == "email" {
				continue
			}
		}
		if !emailPattern.MatchString(email) {
			summary.Invalid++
			continue
		}
		rowSource := source
		if len(record) > 1 && strings.TrimSpace(record[1]) != "" {
			rowSource = strings.TrimSpace(record[1])
		}
		_, err = s.Subscribe(ctx, email, rowSource)
		switch {
		case err == nil:
			summary.Imported++
		case err == domain.ErrAlreadySubscribed:
			summary.Skipped++
		default:
			return nil, err
		}
	}

	s.log.Info("csv import completed",
		zap.Int("imported", summary.Imported),
		zap.Int("skipped", summary.Skipped),
		zap.Int("invalid", summary.Invalid),
	)
	return summary, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
