package controller

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/suteetoe/bizledger/internal/model"
	"github.com/suteetoe/bizledger/internal/store"
	"github.com/suteetoe/bizledger/internal/subscription"
	"github.com/suteetoe/bizledger/pkg/logger"
	"go.uber.org/zap"
)

// NewTenant is the input for bootstrapping a tenant with its owner
type NewTenant struct {
	Name         string  `json:"name" validate:"required,max=100"`
	Plan         string  `json:"plan" validate:"required,oneof=monthly 6months yearly"`
	ContactPhone string  `json:"contact_phone,omitempty"`
	Owner        NewUser `json:"owner" validate:"required"`
}

// Tenants administers tenants and their subscriptions. Each tenant record
// lives in the tenants collection under its own tenant scope.
type Tenants struct {
	store   *store.Store
	tenants *store.Collection[model.Tenant]
	users   *Users
	now     func() time.Time
}

// NewTenants creates the tenants controller
func NewTenants(s *store.Store, users *Users, now func() time.Time) *Tenants {
	if now == nil {
		now = time.Now
	}
	return &Tenants{
		store:   s,
		tenants: store.NewCollection[model.Tenant](s, model.CollectionTenants),
		users:   users,
		now:     now,
	}
}

func tenantScope(tenantID string) store.Scope {
	return store.Scope{TenantID: tenantID}
}

// Bootstrap creates a tenant on a fresh plan period together with its owner
func (t *Tenants) Bootstrap(ctx context.Context, actor store.Scope, in NewTenant) (model.Tenant, model.User, error) {
	log := logger.FromContext(ctx)

	in.Owner.Role = model.RoleOwner
	if err := model.Validate(in); err != nil {
		return model.Tenant{}, model.User{}, err
	}
	plan, err := subscription.ParsePlan(in.Plan)
	if err != nil {
		return model.Tenant{}, model.User{}, err
	}

	id := uuid.New().String()
	tenant, err := subscription.Renew(model.Tenant{
		Base:         model.Base{ID: id},
		Name:         in.Name,
		ContactPhone: in.ContactPhone,
	}, plan, t.now())
	if err != nil {
		return model.Tenant{}, model.User{}, err
	}

	scope := tenantScope(id)
	scope.UserID = actor.UserID
	tenant, err = t.tenants.Add(ctx, scope, tenant)
	if err != nil {
		log.Error("Failed to create tenant", zap.String("name", in.Name), zap.Error(err))
		return model.Tenant{}, model.User{}, err
	}

	owner, _, err := t.users.Create(ctx, scope, in.Owner)
	if err != nil {
		log.Error("Failed to create tenant owner",
			zap.String("tenant_id", id),
			zap.Error(err))
		if rmErr := t.tenants.Delete(ctx, scope, id); rmErr != nil {
			log.Error("Failed to remove tenant without owner",
				zap.String("tenant_id", id),
				zap.Error(rmErr))
		}
		return model.Tenant{}, model.User{}, err
	}

	log.Info("Tenant created",
		zap.String("tenant_id", id),
		zap.String("name", tenant.Name),
		zap.String("plan", tenant.SubscriptionPlan),
		zap.Time("ends_at", tenant.SubscriptionEndsAt))
	t.users.audit(ctx, scope, ActionTenantCreate, "Created tenant "+tenant.Name+" with owner "+owner.Email)
	return tenant, owner, nil
}

// Get returns a tenant by id
func (t *Tenants) Get(ctx context.Context, tenantID string) (model.Tenant, error) {
	return t.tenants.Find(ctx, tenantScope(tenantID), tenantID)
}

// Status derives the subscription status of a tenant
func (t *Tenants) Status(ctx context.Context, tenantID string) (subscription.Status, error) {
	tenant, err := t.Get(ctx, tenantID)
	if err != nil {
		return subscription.Status{}, err
	}
	return subscription.StatusOf(tenant, t.now()), nil
}

// Renew extends a tenant's subscription by one period of plan
func (t *Tenants) Renew(ctx context.Context, actor store.Scope, tenantID, plan string) (model.Tenant, subscription.Status, error) {
	p, err := subscription.ParsePlan(plan)
	if err != nil {
		return model.Tenant{}, subscription.Status{}, err
	}
	current, err := t.Get(ctx, tenantID)
	if err != nil {
		return model.Tenant{}, subscription.Status{}, err
	}
	now := t.now()
	renewed, err := subscription.Renew(current, p, now)
	if err != nil {
		return model.Tenant{}, subscription.Status{}, err
	}

	scope := tenantScope(tenantID)
	scope.UserID = actor.UserID
	updated, err := t.tenants.Update(ctx, scope, tenantID, store.Record{
		"subscription_plan":    renewed.SubscriptionPlan,
		"subscription_ends_at": renewed.SubscriptionEndsAt,
		"active":               renewed.Active,
	})
	if err != nil {
		return model.Tenant{}, subscription.Status{}, err
	}

	logger.FromContext(ctx).Info("Subscription renewed",
		zap.String("tenant_id", tenantID),
		zap.String("plan", string(p)),
		zap.Time("ends_at", updated.SubscriptionEndsAt))
	t.users.audit(ctx, scope, ActionRenew, "Renewed "+string(p)+" subscription until "+updated.SubscriptionEndsAt.Format("2006-01-02"))
	return updated, subscription.StatusOf(updated, now), nil
}
