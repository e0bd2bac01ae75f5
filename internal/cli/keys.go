package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/tendant/simple-rental/internal/config"
	"github.com/tendant/simple-rental/pkg/domain"
	"github.com/tendant/simple-rental/pkg/repository"
)

// KeysOptions holds flags shared by the keys subcommands.
type KeysOptions struct {
	Driver string
	DSN    string
}

// NewKeysCommand creates the keys command group.
func NewKeysCommand() *cobra.Command {
	opts := &KeysOptions{}

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage tenant access keys",
		Long: `Provision, list and revoke the access keys stored in the key registry.
Each key unlocks exactly one tenant.`,
	}

	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "registry driver (sqlite3|postgres); defaults to KEY_REGISTRY_DRIVER")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "registry DSN; defaults to KEY_REGISTRY_DSN")

	cmd.AddCommand(newKeysAddCommand(opts))
	cmd.AddCommand(newKeysListCommand(opts))
	cmd.AddCommand(newKeysRemoveCommand(opts))

	return cmd
}

func newKeysAddCommand(opts *KeysOptions) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "add <tenant>",
		Short: "Provision an access key for a tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenant, err := domain.ParseTenantID(args[0])
			if err != nil {
				return fmt.Errorf("%w: %q", err, args[0])
			}
			if key == "" {
				key = uuid.NewString()
			}

			return withKeys(cmd.Context(), opts, func(repo *repository.KeysRepository) error {
				err := repo.Create(cmd.Context(), &repository.AccessKey{
					Key:       key,
					Tenant:    tenant,
					CreatedAt: time.Now(),
				})
				if err != nil {
					return fmt.Errorf("provision key for %s: %w", tenant, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), key)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "access key to provision (generated when empty)")
	return cmd
}

func newKeysListCommand(opts *KeysOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List provisioned access keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKeys(cmd.Context(), opts, func(repo *repository.KeysRepository) error {
				keys, err := repo.List(cmd.Context())
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "TENANT\tKEY\tCREATED")
				for _, k := range keys {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", k.Tenant, k.Key, k.CreatedAt.UTC().Format(time.RFC3339))
				}
				return tw.Flush()
			})
		},
	}
}

func newKeysRemoveCommand(opts *KeysOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <key>",
		Short: "Revoke an access key",
		Long:  "Revoke an access key. Tokens already issued stay valid until they expire.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKeys(cmd.Context(), opts, func(repo *repository.KeysRepository) error {
				err := repo.Delete(cmd.Context(), args[0])
				if errors.Is(err, domain.ErrInvalidKey) {
					return fmt.Errorf("key %q is not provisioned", args[0])
				}
				return err
			})
		},
	}
}

// withKeys opens the registry, makes sure its table exists and runs fn.
func withKeys(ctx context.Context, opts *KeysOptions, fn func(*repository.KeysRepository) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	reg, err := config.LoadRegistry()
	if err != nil {
		if opts.Driver == "" {
			return err
		}
		reg = config.RegistryConfig{}
	}
	if opts.Driver != "" {
		reg.Driver = opts.Driver
	}
	if opts.DSN != "" {
		reg.DSN = opts.DSN
	}
	if reg.DSN == "" {
		return errors.New("key registry DSN is empty: pass --dsn or set KEY_REGISTRY_DSN")
	}

	db, err := repository.NewDB(repository.Config{Driver: reg.Driver, DSN: reg.DSN})
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repository.NewKeysRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("prepare key registry: %w", err)
	}
	return fn(repo)
}
