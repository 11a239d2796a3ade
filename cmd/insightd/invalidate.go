package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fernwell/insightd/internal/invalidation"
)

// invalidateCmd fires a cache invalidation trigger
var invalidateCmd = &cobra.Command{
	Use:   "invalidate <trigger> [subject]",
	Short: "Fire a cache invalidation trigger",
	Long: `Fire one of the cache invalidation triggers. Record triggers
(behavior.recorded, mood.recorded) require a subject and drop that subject's
analytics-derived bundles. manual.refresh with a subject drops everything
cached for it; without one it empties the in-process tier.

Examples:
  insightd invalidate mood.recorded subj-42
  insightd invalidate manual.refresh`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runInvalidate,
}

func runInvalidate(cmd *cobra.Command, args []string) error {
	trigger := invalidation.Trigger(args[0])
	subjectID := ""
	if len(args) > 1 {
		subjectID = args[1]
	}

	reg, logger, err := buildRegistry(cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = reg.Close(cmd.Context())
		_ = logger.Sync()
	}()

	removed, err := reg.Invalidation().Invalidate(cmd.Context(), trigger, subjectID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %d cache entries\n", removed)
	return nil
}
