package subscription

import (
	"math"
	"time"

	"github.com/suteetoe/bizledger/internal/model"
)

// Status is the derived subscription state of a tenant.
type Status struct {
	TenantID      string    `json:"tenant_id"`
	TenantName    string    `json:"tenant_name"`
	Plan          Plan      `json:"plan"`
	EndsAt        time.Time `json:"ends_at"`
	IsExpired     bool      `json:"is_expired"`
	DaysRemaining int       `json:"days_remaining"`
}

// StatusOf derives the status of tenant at now. Partial days round up.
func StatusOf(tenant model.Tenant, now time.Time) Status {
	days := int(math.Ceil(tenant.SubscriptionEndsAt.Sub(now).Hours() / 24))
	return Status{
		TenantID:      tenant.ID,
		TenantName:    tenant.Name,
		Plan:          Plan(tenant.SubscriptionPlan),
		EndsAt:        tenant.SubscriptionEndsAt,
		IsExpired:     days <= 0,
		DaysRemaining: days,
	}
}

// Renew extends the tenant by one period of plan, counted from the later of
// now and the current end date.
func Renew(tenant model.Tenant, plan Plan, now time.Time) (model.Tenant, error) {
	if _, err := ParsePlan(string(plan)); err != nil {
		return tenant, err
	}
	start := now
	if tenant.SubscriptionEndsAt.After(now) {
		start = tenant.SubscriptionEndsAt
	}
	tenant.SubscriptionPlan = string(plan)
	tenant.SubscriptionEndsAt = start.AddDate(0, 0, plan.Days()).UTC()
	tenant.Active = true
	return tenant, nil
}
