package subscription

import (
	"github.com/pkg/errors"
	"github.com/suteetoe/bizledger/internal/model"
)

// ErrUnknownPlan is returned for a plan name that is not offered
var ErrUnknownPlan = errors.New("unknown subscription plan")

// Plan is a subscription billing period
type Plan string

// Offered plans
const (
	Monthly  Plan = model.PlanMonthly
	SixMonth Plan = model.PlanSixMonth
	Yearly   Plan = model.PlanYearly
)

// ParsePlan validates a plan name
func ParsePlan(s string) (Plan, error) {
	switch p := Plan(s); p {
	case Monthly, SixMonth, Yearly:
		return p, nil
	default:
		return "", errors.Wrapf(ErrUnknownPlan, "%q", s)
	}
}

// Days is the length of one plan period
func (p Plan) Days() int {
	switch p {
	case Monthly:
		return 30
	case SixMonth:
		return 182
	case Yearly:
		return 365
	default:
		return 0
	}
}

// LabelKey is the translation key of the plan's display name
func (p Plan) LabelKey() string {
	return "subscription.plans." + string(p)
}
