package audit

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/suteetoe/bizledger/internal/store"
	"github.com/suteetoe/bizledger/pkg/logger"
	"go.uber.org/zap"
)

// Header keys set on every published entry
const (
	HeaderTenant = "Bizledger-Tenant"
	HeaderAction = "Bizledger-Action"
)

// Config is used to connect the NATS sink
type Config struct {
	URL           string
	Name          string
	SubjectPrefix string
	Timeout       time.Duration
	ReconnectWait time.Duration
}

type publisher interface {
	PublishMsg(m *nats.Msg) error
}

// NATSSink publishes stored audit entries on <prefix>.<tenant_id>.
type NATSSink struct {
	pub    publisher
	conn   *nats.Conn
	prefix string
}

// Connect dials NATS and returns a sink
func Connect(c Config) (*NATSSink, error) {
	if c.URL == "" {
		return nil, errors.New("nats url is required")
	}
	if c.Timeout == 0 {
		c.Timeout = 3 * time.Second
	}
	if c.ReconnectWait == 0 {
		c.ReconnectWait = 500 * time.Millisecond
	}

	nc, err := nats.Connect(c.URL,
		nats.Name(c.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(c.ReconnectWait),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(c.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.GetLogger().Warn("Audit sink disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.GetLogger().Info("Audit sink reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "nats connect")
	}

	sink := newSink(nc, c.SubjectPrefix)
	sink.conn = nc
	return sink, nil
}

func newSink(pub publisher, prefix string) *NATSSink {
	if prefix == "" {
		prefix = "bizledger.audit"
	}
	return &NATSSink{pub: pub, prefix: strings.TrimSuffix(prefix, ".")}
}

// Subject returns the subject entries of tenantID are published on
func (s *NATSSink) Subject(tenantID string) string {
	return s.prefix + "." + subjectToken(tenantID)
}

// Publish sends entry as JSON
func (s *NATSSink) Publish(ctx context.Context, entry store.AuditEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "encode audit entry")
	}

	msg := nats.NewMsg(s.Subject(entry.TenantID))
	msg.Data = data
	msg.Header.Set(HeaderTenant, entry.TenantID)
	msg.Header.Set(HeaderAction, entry.Action)
	if err := s.pub.PublishMsg(msg); err != nil {
		return errors.Wrap(err, "nats publish")
	}
	return nil
}

// Close drains the connection
func (s *NATSSink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Drain()
}

// Tail subscribes to the entries of tenantID, or of every tenant when
// tenantID is empty, until ctx is done.
func (s *NATSSink) Tail(ctx context.Context, tenantID string, fn func(store.AuditEntry)) error {
	if s.conn == nil {
		return errors.New("audit sink is not connected")
	}
	subject := s.prefix + ".>"
	if tenantID != "" {
		subject = s.Subject(tenantID)
	}

	sub, err := s.conn.Subscribe(subject, func(m *nats.Msg) {
		entry, err := decodeEntry(m.Data)
		if err != nil {
			logger.FromContext(ctx).Warn("Dropping malformed audit message",
				zap.String("subject", m.Subject),
				zap.Error(err))
			return
		}
		fn(entry)
	})
	if err != nil {
		return errors.Wrap(err, "nats subscribe")
	}
	defer sub.Unsubscribe()

	<-ctx.Done()
	return nil
}

func decodeEntry(data []byte) (store.AuditEntry, error) {
	var entry store.AuditEntry
	err := json.Unmarshal(data, &entry)
	return entry, err
}

// subjectToken keeps tenant ids from introducing NATS wildcards or levels
func subjectToken(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, s)
}
