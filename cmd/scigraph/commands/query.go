package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newQueryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Answer reachability questions from the index",
	}
	cmd.AddCommand(newReachCmd(a), newPairsCmd(a), newAllCmd(a))
	return cmd
}

func newReachCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reach <src-iri> <dst-iri>",
		Short: "Report whether dst is reachable from src",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer eng.Close(cmd.Context())

			ids, err := eng.Resolve(args...)
			if err != nil {
				return err
			}
			ok, err := eng.Index.CanReach(cmd.Context(), ids[0], ids[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ok)
			return nil
		},
	}
}

func newPairsCmd(a *app) *cobra.Command {
	var from, to []string
	cmd := &cobra.Command{
		Use:   "pairs",
		Short: "List connected (source, destination) pairs",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer eng.Close(cmd.Context())

			srcs, err := eng.Resolve(from...)
			if err != nil {
				return err
			}
			dests, err := eng.Resolve(to...)
			if err != nil {
				return err
			}
			pairs, err := eng.Index.GetConnectedPairs(cmd.Context(), srcs, dests)
			if err != nil {
				return err
			}
			renderPairs(cmd.OutOrStdout(), eng.Graph, pairs)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&from, "from", nil, "Source IRIs")
	cmd.Flags().StringSliceVar(&to, "to", nil, "Destination IRIs")
	return cmd
}

func newAllCmd(a *app) *cobra.Command {
	var from, to []string
	cmd := &cobra.Command{
		Use:   "all",
		Short: "Report whether every destination is reachable from every source",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer eng.Close(cmd.Context())

			srcs, err := eng.Resolve(from...)
			if err != nil {
				return err
			}
			dests, err := eng.Resolve(to...)
			if err != nil {
				return err
			}
			ok, err := eng.Index.AllReachable(cmd.Context(), srcs, dests)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ok)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&from, "from", nil, "Source IRIs")
	cmd.Flags().StringSliceVar(&to, "to", nil, "Destination IRIs")
	return cmd
}
