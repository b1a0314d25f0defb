package main

import (
	"fmt"

	pgStorage "jetwallet/internal/adapter/storage/postgres"
	"jetwallet/internal/service"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}

			pool, err := pgStorage.NewPool(cmd.Context(), cfg.Database, log)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := pgStorage.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			log.Info().Str("dbname", cfg.Database.DBName).Msg("schema applied")
			return nil
		},
	}
}

func seedAdminCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create or promote the administrator account.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			if email == "" {
				email = cfg.Admin.Email
			}
			if password == "" {
				password = cfg.Admin.Password
			}
			if password == "" {
				return fmt.Errorf("an administrator password is required (--password or JW_ADMIN_PASSWORD)")
			}

			ctx := cmd.Context()
			pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
			if err != nil {
				return err
			}
			defer pool.Close()

			encSvc, err := service.NewAESEncryptionService(cfg.AES.Key)
			if err != nil {
				return fmt.Errorf("init encryption: %w", err)
			}
			auditSvc := service.NewAuditService(pgStorage.NewAuditRepo(pool), log)
			userSvc := service.NewUserService(
				pgStorage.NewUserRepo(pool),
				pgStorage.NewWalletRepo(pool),
				pgStorage.NewTransactor(pool),
				service.NewArgon2HashService(),
				encSvc,
				service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer),
				auditSvc,
				log,
			)

			admin, err := userSvc.EnsureAdmin(ctx, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "administrator %s (%s) ready\n", admin.Email, admin.ID)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&email, "email", "", "administrator email (defaults to admin.email)")
	flags.StringVar(&password, "password", "", "administrator password (defaults to admin.password)")
	return cmd
}
