package cli

import (
	"github.com/spf13/cobra"

	"gamified-lms/internal/app"
	"gamified-lms/internal/infra/database"
)

// NewSeedAdminCmd creates the first admin account on an empty database.
func NewSeedAdminCmd(configPath *string) *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the initial admin user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer log.Sync()

			db, err := openDatabase(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer db.Close()

			identity := app.NewIdentityService(database.NewStore(db), nil, cfg.Auth.BcryptCost)
			created, err := identity.SeedAdmin(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}
			if !created {
				log.Info("users already exist, skipping admin seed")
				return nil
			}
			log.Info("admin user created", "email", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Administrator", "admin display name")
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
