package tenant

import (
	"context"
	"encoding/json"

	"github.com/go-extras/cobraflags"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/suteetoe/bizledger/internal/app"
	"github.com/suteetoe/bizledger/internal/controller"
	"github.com/suteetoe/bizledger/internal/store"
	"github.com/suteetoe/bizledger/pkg/logger"
)

const (
	nameFlag          = "name"
	planFlag          = "plan"
	phoneFlag         = "contact-phone"
	ownerNameFlag     = "owner-name"
	ownerEmailFlag    = "owner-email"
	ownerPasswordFlag = "owner-password"
	superAdminFlag    = "super-admin"
	idFlag            = "id"
)

func newCreateFlags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		nameFlag: &cobraflags.StringFlag{
			Name:  nameFlag,
			Value: "",
			Usage: "Tenant name (required)",
		},
		planFlag: &cobraflags.StringFlag{
			Name:  planFlag,
			Value: "monthly",
			Usage: "Subscription plan (monthly, 6months, yearly)",
		},
		phoneFlag: &cobraflags.StringFlag{
			Name:  phoneFlag,
			Value: "",
			Usage: "Tenant contact phone",
		},
		ownerNameFlag: &cobraflags.StringFlag{
			Name:  ownerNameFlag,
			Value: "Owner",
			Usage: "Display name of the owner account",
		},
		ownerEmailFlag: &cobraflags.StringFlag{
			Name:  ownerEmailFlag,
			Value: "",
			Usage: "Email of the owner account (required)",
		},
		ownerPasswordFlag: &cobraflags.StringFlag{
			Name:  ownerPasswordFlag,
			Value: "",
			Usage: "Password of the owner account (required)",
		},
		superAdminFlag: &cobraflags.BoolFlag{
			Name:  superAdminFlag,
			Value: false,
			Usage: "Grant the owner platform administration rights",
		},
	}
}

func newRenewFlags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		idFlag: &cobraflags.StringFlag{
			Name:  idFlag,
			Value: "",
			Usage: "Tenant id (required)",
		},
		planFlag: &cobraflags.StringFlag{
			Name:  planFlag,
			Value: "monthly",
			Usage: "Subscription plan (monthly, 6months, yearly)",
		},
	}
}

func newStatusFlags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		idFlag: &cobraflags.StringFlag{
			Name:  idFlag,
			Value: "",
			Usage: "Tenant id (required)",
		},
	}
}

func NewTenantCommand() *cobra.Command {
	tenantCmd := &cobra.Command{
		Use:   "tenant",
		Short: "Administer tenants and their subscriptions",
	}

	createFlags := newCreateFlags()
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a tenant together with its owner account",
		Long: `Create a tenant on a fresh subscription period together with its owner account.

Examples:
  bizledger tenant create --name Acme --owner-email owner@acme.test --owner-password s3cret-pass
  bizledger tenant create --name Platform --plan yearly --owner-email root@example.com --owner-password s3cret-pass --super-admin`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return createCommand(cmd, createFlags)
		},
	}
	cobraflags.RegisterMap(createCmd, createFlags)

	renewFlags := newRenewFlags()
	renewCmd := &cobra.Command{
		Use:   "renew",
		Short: "Extend a tenant's subscription by one plan period",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return renewCommand(cmd, renewFlags)
		},
	}
	cobraflags.RegisterMap(renewCmd, renewFlags)

	statusFlags := newStatusFlags()
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show a tenant's subscription status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return statusCommand(cmd, statusFlags)
		},
	}
	cobraflags.RegisterMap(statusCmd, statusFlags)

	tenantCmd.AddCommand(createCmd, renewCmd, statusCmd)
	return tenantCmd
}

func required(flags map[string]cobraflags.Flag, names ...string) error {
	for _, name := range names {
		if flags[name].GetString() == "" {
			return errors.Errorf("--%s is required", name)
		}
	}
	return nil
}

func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			logger.GetLogger().Warn("Failed to close record store", zap.Error(err))
		}
	}()
	return fn(ctx, a)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func createCommand(cmd *cobra.Command, createFlags map[string]cobraflags.Flag) error {
	if err := required(createFlags, nameFlag, ownerEmailFlag, ownerPasswordFlag); err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		tenants := a.Controllers.Tenants
		tenant, owner, err := tenants.Bootstrap(ctx, store.Scope{}, controller.NewTenant{
			Name:         createFlags[nameFlag].GetString(),
			Plan:         createFlags[planFlag].GetString(),
			ContactPhone: createFlags[phoneFlag].GetString(),
			Owner: controller.NewUser{
				Name:     createFlags[ownerNameFlag].GetString(),
				Email:    createFlags[ownerEmailFlag].GetString(),
				Password: createFlags[ownerPasswordFlag].GetString(),
			},
		})
		if err != nil {
			return err
		}

		if createFlags[superAdminFlag].GetBool() {
			scope := store.Scope{TenantID: tenant.ID, UserID: owner.ID, SuperAdmin: true}
			owner, _, err = a.Controllers.Users.Update(ctx, scope, owner.ID, store.Record{"is_super_admin": true})
			if err != nil {
				return err
			}
		}

		status, err := tenants.Status(ctx, tenant.ID)
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]any{
			"tenant": tenant,
			"owner":  owner.Public(),
			"status": status,
		})
	})
}

func renewCommand(cmd *cobra.Command, renewFlags map[string]cobraflags.Flag) error {
	if err := required(renewFlags, idFlag); err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		tenant, status, err := a.Controllers.Tenants.Renew(ctx, store.Scope{},
			renewFlags[idFlag].GetString(), renewFlags[planFlag].GetString())
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]any{"tenant": tenant, "status": status})
	})
}

func statusCommand(cmd *cobra.Command, statusFlags map[string]cobraflags.Flag) error {
	if err := required(statusFlags, idFlag); err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		status, err := a.Controllers.Tenants.Status(ctx, statusFlags[idFlag].GetString())
		if err != nil {
			return err
		}
		return printJSON(cmd, status)
	})
}
