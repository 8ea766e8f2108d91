package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/SciGraph/SciGraph-sub002/pkg/engine"
	"github.com/SciGraph/SciGraph-sub002/pkg/policy"
)

func newIndexCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build, drop and inspect the reachability index",
	}
	cmd.AddCommand(newBuildCmd(a), newDropCmd(a), newStatusCmd(a), newVerifyCmd(a))
	return cmd
}

func newBuildCmd(a *app) *cobra.Command {
	var (
		rebuild   bool
		rulesFile string
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the index over the configured graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []engine.Option
			if rulesFile != "" {
				rules, err := policy.LoadRules(rulesFile)
				if err != nil {
					return err
				}
				opts = append(opts, engine.WithRules(rules))
			}

			eng, err := a.open(cmd, opts...)
			if err != nil {
				return err
			}
			defer eng.Close(cmd.Context())

			start := time.Now()
			meta, err := eng.Build(cmd.Context(), rebuild)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Index built in %s\n", time.Since(start).Round(time.Millisecond))
			renderStatus(cmd.OutOrStdout(), meta)
			return nil
		},
	}
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Drop an existing index first")
	cmd.Flags().StringVar(&rulesFile, "rules", "", "YAML file of exclusion rules")
	return cmd
}

func newDropCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "drop",
		Short: "Remove the persisted index",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer eng.Close(cmd.Context())

			if err := eng.Index.DropIndex(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Index dropped")
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show index metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer eng.Close(cmd.Context())

			meta, err := eng.Index.Status(cmd.Context())
			if err != nil {
				return err
			}
			renderStatus(cmd.OutOrStdout(), meta)
			return nil
		},
	}
}

func newVerifyCmd(a *app) *cobra.Command {
	var (
		samples int
		seed    uint64
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Cross-check index answers against graph traversal",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer eng.Close(cmd.Context())

			report, err := eng.Verify(cmd.Context(), samples, seed)
			if err != nil {
				return err
			}
			renderVerify(cmd.OutOrStdout(), eng.Graph, report)
			if n := len(report.Mismatches); n > 0 {
				return fmt.Errorf("%d mismatches", n)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&samples, "samples", 100, "Source nodes to check, 0 for all")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "Sampling seed")
	return cmd
}
