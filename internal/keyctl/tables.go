package keyctl

import (
	"fmt"

	"github.com/dmitrijs2005/lifelog/internal/server/keys"
	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "migrate",
		Short:        "Apply schema migrations and provision every managed table",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.rm.RunMigrations(cmd.Context(), s.db); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date, %d table(s) provisioned\n", len(keys.ManagedTables))
			return nil
		},
	}
}

// NewProvisionCommand creates the provision command.
func NewProvisionCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "provision [table...]",
		Short: "Create key sequences and insert triggers",
		Long: `Create the key sequence and insert trigger of each named table, or of
every managed table when none is given. Existing objects are left alone.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			tables := tablesOrManaged(args)
			p := keys.NewProvisioner(s.db, s.rm.Dialect(), s.logger)
			if err := p.ProvisionAll(cmd.Context(), tables); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "provisioned %d table(s)\n", len(tables))
			return nil
		},
	}
}

// NewDeprovisionCommand creates the deprovision command.
func NewDeprovisionCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "deprovision [table...]",
		Short: "Drop key sequences and insert triggers",
		Long: `Drop the insert trigger and key sequence of each named table, or of
every managed table in reverse order when none is given. Missing objects
are not an error.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			tables := tablesOrManaged(args)
			p := keys.NewProvisioner(s.db, s.rm.Dialect(), s.logger)
			if err := p.DeprovisionAll(cmd.Context(), tables); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deprovisioned %d table(s)\n", len(tables))
			return nil
		},
	}
}

func tablesOrManaged(args []string) []string {
	if len(args) == 0 {
		return keys.ManagedTables
	}
	return args
}
