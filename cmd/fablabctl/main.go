package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fablabctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fablabctl",
		Short: "FabLab print queue maintenance CLI",
		Long: `fablabctl runs maintenance tasks against the print queue database and storage tree,
such as storage audits and staff directory seeding. It reads the same FABLAB_* environment as the API.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(newAuditCmd(), newStaffCmd())
	return cmd
}

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Reconcile the storage tree against the job table",
	}

	var output string
	report := &cobra.Command{
		Use:   "report",
		Short: "Print the storage audit report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := openEnv()
			if err != nil {
				return err
			}
			defer env.Close()

			result, err := env.audit.Report(cmd.Context())
			if err != nil {
				return err
			}
			return renderReport(cmd.OutOrStdout(), result, output)
		},
	}
	report.Flags().StringVarP(&output, "output", "o", "json", "Output format: json or yaml")

	var staffName string
	deleteOrphan := &cobra.Command{
		Use:   "delete-orphan <path>",
		Short: "Delete a file no job references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv()
			if err != nil {
				return err
			}
			defer env.Close()

			result, err := env.audit.DeleteOrphan(cmd.Context(), args[0], cliActor(staffName))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", result.Path)
			return nil
		},
	}
	deleteStale := &cobra.Command{
		Use:   "delete-stale <path>",
		Short: "Delete a leftover copy of a job file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv()
			if err != nil {
				return err
			}
			defer env.Close()

			result, err := env.audit.DeleteStale(cmd.Context(), args[0], cliActor(staffName))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s (job %s)\n", result.Path, result.JobID)
			return nil
		},
	}
	for _, sub := range []*cobra.Command{deleteOrphan, deleteStale} {
		sub.Flags().StringVar(&staffName, "staff", "", "Active staff member performing the repair")
		_ = sub.MarkFlagRequired("staff")
	}

	cmd.AddCommand(report, deleteOrphan, deleteStale)
	return cmd
}

func newStaffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "Manage the staff directory",
	}

	seed := &cobra.Command{
		Use:   "seed",
		Short: "Insert the default staff members into an empty directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := openEnv()
			if err != nil {
				return err
			}
			defer env.Close()

			added, err := env.staff.Seed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d staff members\n", added)
			return nil
		},
	}

	var all bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List staff members",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := openEnv()
			if err != nil {
				return err
			}
			defer env.Close()

			members, err := env.staff.List(cmd.Context(), all)
			if err != nil {
				return err
			}
			return renderStaff(cmd.OutOrStdout(), members)
		},
	}
	list.Flags().BoolVar(&all, "all", false, "Include inactive staff members")

	cmd.AddCommand(seed, list)
	return cmd
}
