package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taxbase/metricshub/admin"
	"github.com/taxbase/metricshub/hubapi"
)

var (
	systemCategory    string
	systemDescription string
	rolePermission    string
	roleDescription   string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administer the hub's systems, users and roles",
}

var systemsCmd = &cobra.Command{
	Use:   "systems",
	Short: "Manage the systems registry",
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage hub accounts",
}

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Manage role definitions",
}

func init() {
	systemsAdd := &cobra.Command{
		Use:   "add <id> <name> <url>",
		Short: "Register a system",
		Args:  cobra.ExactArgs(3),
		RunE: adminRun(func(ctx context.Context, svc *admin.Service, args []string) error {
			err := svc.CreateSystem(ctx, hubapi.System{
				ID:          args[0],
				Name:        args[1],
				URL:         args[2],
				Category:    systemCategory,
				Description: systemDescription,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Registered system %s\n", args[0])
			return nil
		}),
	}
	systemsAdd.Flags().StringVar(&systemCategory, "category", "", "System category")
	systemsAdd.Flags().StringVar(&systemDescription, "description", "", "System description")

	systemsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered systems",
		RunE: adminRun(func(ctx context.Context, svc *admin.Service, args []string) error {
			systems, err := svc.Systems(ctx)
			if err != nil {
				return err
			}
			for _, system := range systems {
				status := system.ManualStatus
				if status == "" {
					status = "auto"
				}
				fmt.Printf("%-20s %-30s %-8s %s\n", system.ID, system.Name, status, system.URL)
			}
			return nil
		}),
	})
	systemsCmd.AddCommand(systemsAdd)
	systemsCmd.AddCommand(&cobra.Command{
		Use:   "status <id> <status>",
		Short: "Override a system's manual status",
		Args:  cobra.ExactArgs(2),
		RunE: adminRun(func(ctx context.Context, svc *admin.Service, args []string) error {
			if err := svc.SetSystemStatus(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Set %s status to %s\n", args[0], args[1])
			return nil
		}),
	})
	systemsCmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a system",
		Args:  cobra.ExactArgs(1),
		RunE: adminRun(func(ctx context.Context, svc *admin.Service, args []string) error {
			if err := svc.DeleteSystem(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Removed system %s\n", args[0])
			return nil
		}),
	})

	usersCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List hub accounts",
		RunE: adminRun(func(ctx context.Context, svc *admin.Service, args []string) error {
			accounts, err := svc.Users(ctx)
			if err != nil {
				return err
			}
			for _, account := range accounts {
				fmt.Printf("%-30s %-30s %s\n", account.Email, account.Name, account.RoleID)
			}
			return nil
		}),
	})
	usersCmd.AddCommand(&cobra.Command{
		Use:   "add <name> <email> <password> <role-id>",
		Short: "Register an account",
		Args:  cobra.ExactArgs(4),
		RunE: adminRun(func(ctx context.Context, svc *admin.Service, args []string) error {
			err := svc.CreateUser(ctx, hubapi.Account{
				Name:     args[0],
				Email:    args[1],
				Password: args[2],
				RoleID:   args[3],
			})
			if err != nil {
				return err
			}
			fmt.Printf("Registered account %s\n", args[1])
			return nil
		}),
	})
	usersCmd.AddCommand(&cobra.Command{
		Use:   "role <email> <role-id>",
		Short: "Reassign an account's role",
		Args:  cobra.ExactArgs(2),
		RunE: adminRun(func(ctx context.Context, svc *admin.Service, args []string) error {
			if err := svc.SetUserRole(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Assigned %s to role %s\n", args[0], args[1])
			return nil
		}),
	})
	usersCmd.AddCommand(&cobra.Command{
		Use:   "rm <email>",
		Short: "Remove an account",
		Args:  cobra.ExactArgs(1),
		RunE: adminRun(func(ctx context.Context, svc *admin.Service, args []string) error {
			if err := svc.DeleteUser(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Removed account %s\n", args[0])
			return nil
		}),
	})

	rolesAdd := &cobra.Command{
		Use:   "add <id> <name>",
		Short: "Register a role definition",
		Args:  cobra.ExactArgs(2),
		RunE: adminRun(func(ctx context.Context, svc *admin.Service, args []string) error {
			err := svc.CreateRole(ctx, hubapi.RoleDef{
				ID:          args[0],
				Name:        args[1],
				Description: roleDescription,
				Permission:  rolePermission,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Registered role %s\n", args[0])
			return nil
		}),
	}
	rolesAdd.Flags().StringVar(&rolePermission, "permission", "user", "Permission level")
	rolesAdd.Flags().StringVar(&roleDescription, "description", "", "Role description")

	rolesCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List role definitions",
		RunE: adminRun(func(ctx context.Context, svc *admin.Service, args []string) error {
			roles, err := svc.Roles(ctx)
			if err != nil {
				return err
			}
			for _, role := range roles {
				fmt.Printf("%-20s %-30s %-12s %s\n", role.ID, role.Name, role.Permission, role.Description)
			}
			return nil
		}),
	})
	rolesCmd.AddCommand(rolesAdd)
	rolesCmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a role definition",
		Args:  cobra.ExactArgs(1),
		RunE: adminRun(func(ctx context.Context, svc *admin.Service, args []string) error {
			if err := svc.DeleteRole(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Removed role %s\n", args[0])
			return nil
		}),
	})

	adminCmd.AddCommand(systemsCmd)
	adminCmd.AddCommand(usersCmd)
	adminCmd.AddCommand(rolesCmd)
	rootCmd.AddCommand(adminCmd)
}

// adminRun wires the shared app assembly, session check and admin service
// construction in front of each admin subcommand.
func adminRun(fn func(ctx context.Context, svc *admin.Service, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if _, err := a.requireSession(); err != nil {
			return err
		}

		svc, err := admin.NewService(a.client)
		if err != nil {
			return err
		}
		return fn(cmd.Context(), svc, args)
	}
}
