package subscription

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/suteetoe/bizledger/pkg/logger"
	"github.com/suteetoe/bizledger/prometheus"
	"go.uber.org/zap"
)

// DefaultWarningDays is how early the warning banner appears
const DefaultWarningDays = 7

// State is the gate outcome
type State string

// Gate states
const (
	StateNoWarning State = "no_warning"
	StateOK        State = "ok"
	StateWarning   State = "warning"
	StateExpired   State = "expired"
)

// Viewer is who is looking at the tenant
type Viewer struct {
	UserID     string
	SuperAdmin bool
}

// Evaluate applies the default warning window
func Evaluate(status *Status, viewer Viewer) State {
	return EvaluateWithin(status, viewer, DefaultWarningDays)
}

// EvaluateWithin maps a status to a gate state. Super admins never see the gate.
func EvaluateWithin(status *Status, viewer Viewer, warningDays int) State {
	switch {
	case status == nil || viewer.SuperAdmin:
		return StateNoWarning
	case status.IsExpired || status.DaysRemaining <= 0:
		return StateExpired
	case status.DaysRemaining <= warningDays:
		return StateWarning
	default:
		return StateOK
	}
}

// Translator renders localized strings
type Translator interface {
	T(lang, key string, vars map[string]string) string
}

// Config holds the gate settings
type Config struct {
	WarningDays    int
	ContactPhone   string
	ContactBaseURL string
}

// Banner is what the client shows for a gate state
type Banner struct {
	State         State  `json:"state"`
	Dismissible   bool   `json:"dismissible"`
	DaysRemaining int    `json:"days_remaining"`
	Title         string `json:"title,omitempty"`
	Message       string `json:"message,omitempty"`
	RenewalURL    string `json:"renewal_url,omitempty"`
}

// Gate builds localized banners
type Gate struct {
	config     Config
	translator Translator
}

// NewGate creates a gate
func NewGate(config Config, translator Translator) *Gate {
	if config.WarningDays <= 0 {
		config.WarningDays = DefaultWarningDays
	}
	return &Gate{config: config, translator: translator}
}

// Evaluate applies the configured warning window
func (g *Gate) Evaluate(status *Status, viewer Viewer) State {
	return EvaluateWithin(status, viewer, g.config.WarningDays)
}

// Banner evaluates status for viewer and renders the banner in lang.
func (g *Gate) Banner(ctx context.Context, status *Status, viewer Viewer, lang string) Banner {
	state := g.Evaluate(status, viewer)
	prometheus.RecordGateState(string(state))

	banner := Banner{State: state}
	if state != StateWarning && state != StateExpired {
		return banner
	}

	vars := map[string]string{
		"tenant": status.TenantName,
		"plan":   g.translator.T(lang, status.Plan.LabelKey(), nil),
		"days":   strconv.Itoa(status.DaysRemaining),
	}
	section := "subscription." + string(state)
	banner.Dismissible = state == StateWarning
	banner.DaysRemaining = status.DaysRemaining
	banner.Title = g.translator.T(lang, section+".title", vars)
	banner.Message = g.translator.T(lang, section+".message", vars)
	banner.RenewalURL = g.renewalURL(g.translator.T(lang, "subscription.renewal_message", vars))

	logger.FromContext(ctx).Debug("Subscription gate raised",
		zap.String("tenant_id", status.TenantID),
		zap.String("state", string(state)),
		zap.Int("days_remaining", status.DaysRemaining))
	return banner
}

// renewalURL links to the vendor's chat with a prefilled message
func (g *Gate) renewalURL(message string) string {
	phone := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, g.config.ContactPhone)
	if phone == "" {
		return ""
	}
	return g.config.ContactBaseURL + phone + "?text=" + url.QueryEscape(message)
}
