package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// sweepCmd removes expired entries from every cache tier once
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove expired cache entries from every tier",
	Long: `Run one sweep over all configured cache tiers, deleting entries
whose lifetime has passed. Useful for pruning durable tiers out of band;
the running service also sweeps on its configured interval.`,
	RunE: runSweep,
}

func runSweep(cmd *cobra.Command, args []string) error {
	reg, logger, err := buildRegistry(cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = reg.Close(cmd.Context())
		_ = logger.Sync()
	}()

	removed := reg.Cache().Sweep(cmd.Context())
	fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired cache entries\n", removed)
	return nil
}
