package audit

import (
	"encoding/json"
	"os/signal"
	"syscall"

	"github.com/go-extras/cobraflags"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/suteetoe/bizledger/internal/app"
	auditlog "github.com/suteetoe/bizledger/internal/audit"
	"github.com/suteetoe/bizledger/internal/store"
)

const tenantFlag = "tenant"

func newTailFlags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		tenantFlag: &cobraflags.StringFlag{
			Name:  tenantFlag,
			Value: "",
			Usage: "Only follow this tenant (default: every tenant)",
		},
	}
}

func NewAuditCommand() *cobra.Command {
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit trail",
	}

	tailFlags := newTailFlags()
	tailCmd := &cobra.Command{
		Use:   "tail",
		Short: "Stream audit entries published on NATS as JSON lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return tailCommand(cmd, tailFlags)
		},
	}
	cobraflags.RegisterMap(tailCmd, tailFlags)
	auditCmd.AddCommand(tailCmd)
	return auditCmd
}

func tailCommand(cmd *cobra.Command, tailFlags map[string]cobraflags.Flag) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.NATS.URL == "" {
		return errors.New("NATS_URL is not configured")
	}

	sink, err := auditlog.Connect(auditlog.Config{
		URL:           cfg.NATS.URL,
		Name:          app.ServiceName + "-tail",
		SubjectPrefix: cfg.NATS.SubjectPrefix,
	})
	if err != nil {
		return err
	}
	defer sink.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	enc := json.NewEncoder(cmd.OutOrStdout())
	return sink.Tail(ctx, tailFlags[tenantFlag].GetString(), func(entry store.AuditEntry) {
		_ = enc.Encode(entry)
	})
}
