package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/suteetoe/bizledger/cmd/audit"
	"github.com/suteetoe/bizledger/cmd/migrate"
	"github.com/suteetoe/bizledger/cmd/serve"
	"github.com/suteetoe/bizledger/cmd/tenant"
	"github.com/suteetoe/bizledger/internal/app"
	"github.com/suteetoe/bizledger/pkg/logger"
)

func main() {
	root := &cobra.Command{
		Use:           "bizledger",
		Short:         "Multi-tenant accounting service",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serve.NewServeCommand())
	root.AddCommand(migrate.NewMigrateCommand())
	root.AddCommand(tenant.NewTenantCommand())
	root.AddCommand(audit.NewAuditCommand())

	err := root.Execute()
	_ = logger.GetLogger().Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
