// Command hseqctl runs operator tasks against the audit database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"hseqaudit/cmd/internal/app"
	"hseqaudit/cmd/internal/contract"
	"hseqaudit/cmd/internal/domain/entity"

	"github.com/spf13/cobra"
)

// operator acts with administrator rights on behalf of the CLI.
var operator = &entity.User{Name: "hseqctl", Role: entity.RoleAdmin, Active: true}

// cmdError keeps API failures apart from usage errors.
type cmdError struct {
	code int
	msg  string
}

func (e *cmdError) Error() string { return e.msg }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		var ce *cmdError
		if errors.As(err, &ce) {
			os.Exit(ce.code)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hseqctl",
		Short:         "Operate the HSEQ audit backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				// opening the app migrates the schema
				return withApp(cmd.Context(), func(*app.App) error {
					fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Load the trinorma checklist, legal references and demo records",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd.Context(), func(a *app.App) error {
					resp, apierr := a.Checklist.Seed(cmd.Context(), operator)
					if apierr != nil {
						return apiFailure("seed", apierr)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "seeded %d checklist items and %d norm references (company %d, auditor %d)\n",
						resp.ChecklistItems, resp.NormReferences, resp.CompanyID, resp.AuditorID)
					return nil
				})
			},
		},
		newAnalyzeCmd(),
		newExportCmd(),
	)
	return root
}

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <auditId>",
		Short: "Run the finding analysis of an audit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			auditID, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withApp(cmd.Context(), func(a *app.App) error {
				resp, apierr := a.Analysis.RunAnalysis(cmd.Context(), operator, &contract.AnalyzeRequest{AuditID: auditID})
				if apierr != nil {
					return apiFailure("analysis", apierr)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "risk level: %s (source %s", resp.RiskLevel, resp.Source)
				if resp.Degraded {
					fmt.Fprint(out, ", degraded")
				}
				fmt.Fprintln(out, ")")
				fmt.Fprintln(out, resp.Summary)
				for _, code := range resp.CreatedNCCodes {
					fmt.Fprintln(out, "created", code)
				}
				return nil
			})
		},
	}
}

func newExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <auditId>",
		Short: "Write the XLSX report of an audit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			auditID, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withApp(cmd.Context(), func(a *app.App) error {
				return exportReport(a, auditID, out, cmd)
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Output file (defaults to the report file name)")
	return cmd
}
