package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectProduct    = "product"
	ObjectBinary     = "binary"
	ObjectPromo      = "promo"
	ObjectArticle    = "article"
	ObjectPage       = "page"
	ObjectSeo        = "seo"
	ObjectNewsletter = "newsletter"
	ObjectOrder      = "order"
	ObjectInvoice    = "invoice"
	ObjectDownload   = "download"
	ObjectWebhook    = "webhook"
	ObjectUser       = "user"
)

const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"

	ActionNewsletterExport = "newsletter.export"
	ActionNewsletterImport = "newsletter.import"

	ActionOrderBackfill   = "order.backfill"
	ActionInvoiceDownload = "invoice.download"
	ActionDownloadRevoke  = "download.revoke"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, role string, object string, action string) error {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return ErrInvalidRole
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject := fmt.Sprintf("role:%s", role)
	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Warn("authorization denied",
			zap.String("role", role),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	crud := func(role, object string) [][]string {
		return [][]string{
			{role, object, ActionView},
			{role, object, ActionCreate},
			{role, object, ActionUpdate},
			{role, object, ActionDelete},
		}
	}

	var policies [][]string

	// Admin has every permission on every object.
	for _, object := range []string{
		ObjectProduct, ObjectBinary, ObjectPromo, ObjectArticle, ObjectPage,
		ObjectSeo, ObjectNewsletter, ObjectOrder, ObjectInvoice,
		ObjectDownload, ObjectWebhook, ObjectUser,
	} {
		policies = append(policies, crud("role:admin", object)...)
	}
	policies = append(policies,
		[]string{"role:admin", ObjectNewsletter, ActionNewsletterExport},
		[]string{"role:admin", ObjectNewsletter, ActionNewsletterImport},
		[]string{"role:admin", ObjectOrder, ActionOrderBackfill},
		[]string{"role:admin", ObjectInvoice, ActionInvoiceDownload},
		[]string{"role:admin", ObjectDownload, ActionDownloadRevoke},
	)

	// Editors manage storefront content but never touch money.
	policies = append(policies, crud("role:editor", ObjectArticle)...)
	policies = append(policies, crud("role:editor", ObjectPage)...)
	policies = append(policies, crud("role:editor", ObjectSeo)...)
	policies = append(policies,
		[]string{"role:editor", ObjectProduct, ActionView},
		[]string{"role:editor", ObjectBinary, ActionView},
		[]string{"role:editor", ObjectNewsletter, ActionView},
	)

	// Support reads orders and can re-issue customer deliverables.
	policies = append(policies,
		[]string{"role:support", ObjectOrder, ActionView},
		[]string{"role:support", ObjectInvoice, ActionView},
		[]string{"role:support", ObjectInvoice, ActionInvoiceDownload},
		[]string{"role:support", ObjectDownload, ActionView},
		[]string{"role:support", ObjectDownload, ActionDownloadRevoke},
		[]string{"role:support", ObjectWebhook, ActionView},
		[]string{"role:support", ObjectNewsletter, ActionView},
		[]string{"role:support", ObjectProduct, ActionView},
	)

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
