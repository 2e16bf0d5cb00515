package cli

import (
	"fmt"

	adminsvc "nexar-backend/internal/application/admin"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func GrantAdminCmd() *cobra.Command {
	return setAdminCmd("grant-admin <email>", "Give an existing account admin rights", true)
}

func RevokeAdminCmd() *cobra.Command {
	return setAdminCmd("revoke-admin <email>", "Remove admin rights from an account", false)
}

func setAdminCmd(use, short string, admin bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			return runSetAdmin(cmd, db, args[0], admin)
		},
	}
}

func runSetAdmin(cmd *cobra.Command, db *gorm.DB, email string, admin bool) error {
	svc := &adminsvc.Service{DB: db}
	p, err := svc.SetAdmin(cmd.Context(), email, admin)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is_admin=%t\n", p.Email, p.UserID, p.IsAdmin)
	return nil
}
