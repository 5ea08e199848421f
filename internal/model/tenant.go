package model

import "time"

// Subscription plans
const (
	PlanMonthly  = "monthly"
	PlanSixMonth = "6months"
	PlanYearly   = "yearly"
)

// Tenant is an organization using the application. Its tenant_id equals its id.
type Tenant struct {
	Base
	Name               string    `json:"name" validate:"required,max=100"`
	SubscriptionPlan   string    `json:"subscription_plan" validate:"required,oneof=monthly 6months yearly"`
	SubscriptionEndsAt time.Time `json:"subscription_ends_at"`
	ContactPhone       string    `json:"contact_phone,omitempty"`
	Active             bool      `json:"active"`
}
