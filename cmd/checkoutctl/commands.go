package main

import (
	"context"
	"fmt"
	"time"

	"kart-checkout/internal/catalog"
	"kart-checkout/internal/config"
	"kart-checkout/internal/database"
	"kart-checkout/internal/gateway"
	"kart-checkout/internal/middleware"
	"kart-checkout/internal/model"
	"kart-checkout/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// connect loads configuration and opens the database pool.
func connect(ctx context.Context) (*config.Config, *pgxpool.Pool, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, zerolog.Nop(), fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, logger, fmt.Errorf("failed to initialize database: %w", err)
	}

	return cfg, pool, logger, nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			printOnly, _ := cmd.Flags().GetBool("print")
			if printOnly {
				fmt.Fprint(cmd.OutOrStdout(), database.Schema())
				return nil
			}

			ctx := cmd.Context()
			_, pool, logger, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			return database.Migrate(ctx, pool, logger)
		},
	}

	cmd.Flags().Bool("print", false, "Print the schema instead of applying it")

	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed [path]",
		Short: "Load a gzipped JSON-lines catalogue snapshot into the products table",
		Long: `Load a gzipped JSON-lines catalogue snapshot into the products table.

When S3 is enabled the snapshot is read from S3_BUCKET at S3_PREFIX+path,
falling back to the local file system if the object cannot be read.
Existing products are updated in place, including their stock counts.

Examples:
  checkoutctl seed data/catalog/products.jsonl.gz
  S3_ENABLED=true S3_BUCKET=kart-assets checkoutctl seed products.jsonl.gz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, pool, logger, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			var s3Loader catalog.Loader
			if cfg.S3.Enabled {
				s3Loader, err = catalog.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
				if err != nil {
					logger.Warn().Err(err).Msg("failed to initialise S3 loader, falling back to local file system only")
				}
			}
			loader := catalog.NewFallbackLoader(s3Loader, catalog.NewFileLoader(logger), cfg.S3.Prefix, logger)

			seeder := catalog.NewSeeder(loader, repository.NewProductRepository(pool, logger), logger)
			count, err := seeder.Seed(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d products\n", count)
			return nil
		},
	}

	return cmd
}

func signCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign [gateway-order-id] [gateway-payment-id]",
		Short: "Print the callback signature the gateway would send for a payment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, _ := cmd.Flags().GetString("secret")
			if secret == "" {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("failed to load configuration: %w", err)
				}
				secret = cfg.Gateway.KeySecret
			}

			fmt.Fprintln(cmd.OutOrStdout(), gateway.Sign(args[0], args[1], secret))
			return nil
		},
	}

	cmd.Flags().String("secret", "", "Gateway key secret (defaults to GATEWAY_KEY_SECRET)")

	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token [buyer-id] [email]",
		Short: "Issue a buyer session token for testing",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ttl, _ := cmd.Flags().GetDuration("ttl")

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			buyer := model.Buyer{ID: args[0]}
			if len(args) == 2 {
				buyer.Email = args[1]
			}

			token, err := middleware.IssueToken(cfg.Auth.JWTSecret, buyer, ttl)
			if err != nil {
				return fmt.Errorf("failed to issue token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")

	return cmd
}
