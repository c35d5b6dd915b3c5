package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/comptaline/backoffice/internal/auth/domain"
	"github.com/comptaline/backoffice/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	tokenTTL          = 24 * time.Hour
	minPasswordLength = 10
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type Params struct {
	fx.In

	Config config.Config
	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Repo   domain.Repository
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	jwtSecret []byte
	now       func() time.Time
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("auth.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		jwtSecret: []byte(p.Config.AuthJWTSecret),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Login(ctx context.Context, email, password string) (*domain.LoginResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Burn a hash comparison anyway so absent and wrong-password
		// logins take comparable time.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000uGZwLvdtGmFJi1xISfNAZPX0SaTKbLK"), []byte(password))
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Warn("login rejected", zap.String("email", email))
		return nil, domain.ErrInvalidCredentials
	}
	if !user.Active {
		return nil, domain.ErrUserDisabled
	}

	now := s.now()
	expiresAt := now.Add(tokenTTL)
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"role":  user.Role,
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	user.LastLoginAt = &now
	user.UpdatedAt = now
	if err := s.repo.Update(ctx, s.db, user); err != nil {
		s.log.Warn("failed to record last login", zap.Error(err))
	}

	s.log.Info("login succeeded", zap.String("email", email), zap.String("role", user.Role))
	return &domain.LoginResponse{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *Service) VerifyToken(ctx context.Context, token string) (*domain.Claims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}
	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	sub, _ := mapClaims["sub"].(string)
	userID, err := snowflake.ParseString(sub)
	if err != nil || userID == 0 {
		return nil, domain.ErrInvalidToken
	}

	// Tokens outlive role changes and deactivations, so re-check the record.
	user, err := s.repo.FindByID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrInvalidToken
	}
	if !user.Active {
		return nil, domain.ErrUserDisabled
	}
	return &domain.Claims{UserID: user.ID, Email: user.Email, Role: user.Role}, nil
}

func (s *Service) CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !emailPattern.MatchString(email) {
		return nil, domain.ErrInvalidEmail
	}
	if len(req.Password) < minPasswordLength {
		return nil, domain.ErrWeakPassword
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if !domain.ValidRole(role) {
		return nil, domain.ErrInvalidRole
	}

	existing, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &domain.User{
		ID:           s.genID.Generate(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(req.Name),
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, s.db, user); err != nil {
		return nil, err
	}
	s.log.Info("user created", zap.String("email", email), zap.String("role", role))
	return user, nil
}

func (s *Service) SetActive(ctx context.Context, id string, active bool) error {
	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	user.Active = active
	user.UpdatedAt = s.now()
	return s.repo.Update(ctx, s.db, user)
}

func (s *Service) ChangePassword(ctx context.Context, id string, password string) error {
	if len(password) < minPasswordLength {
		return domain.ErrWeakPassword
	}
	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	user.UpdatedAt = s.now()
	return s.repo.Update(ctx, s.db, user)
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) find(ctx context.Context, id string) (*domain.User, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	user, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}
