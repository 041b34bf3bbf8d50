package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ruppin/TheMatrix/internal/extract"
)

var (
	traverseGroupID       int
	traverseEpicIID       int
	traverseGitLabURL     string
	traverseToken         string
	traverseSnapshotDate  string
	traverseIncludeClosed bool
	traverseMaxDepth      int
)

var traverseCmd = &cobra.Command{
	Use:   "traverse",
	Short: "Extract an epic hierarchy by per-level traversal",
	Long: `Fetches the hierarchy level by level from the root epic using
GitLab's parent_id filter. Suited to small, targeted pulls; use "extract"
for whole scopes or when the server-side filter misbehaves.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		snapshot, err := parseSnapshotDate(traverseSnapshotDate)
		if err != nil {
			return err
		}

		e, cleanup, err := buildExtractor(traverseGitLabURL, traverseToken)
		if err != nil {
			return err
		}
		defer cleanup()

		sum, err := e.Run(cmd.Context(), extract.Options{
			RootGroupID:   traverseGroupID,
			RootEpicIID:   traverseEpicIID,
			SnapshotDate:  snapshot,
			IncludeClosed: traverseIncludeClosed,
			MaxDepth:      traverseMaxDepth,
		})
		if err != nil {
			return err
		}
		printSummary(sum)
		return nil
	},
}

func init() {
	traverseCmd.Flags().IntVar(&traverseGroupID, "group-id", 0, "Group ID of the root epic")
	traverseCmd.Flags().IntVar(&traverseEpicIID, "epic-iid", 0, "Epic IID of the root epic")
	traverseCmd.Flags().StringVar(&traverseGitLabURL, "gitlab-url", "", "GitLab instance URL (overrides config)")
	traverseCmd.Flags().StringVar(&traverseToken, "token", "", "GitLab personal access token (default: GITLAB_TOKEN)")
	traverseCmd.Flags().StringVar(&traverseSnapshotDate, "snapshot-date", "", "Snapshot date YYYY-MM-DD (default: today)")
	traverseCmd.Flags().BoolVar(&traverseIncludeClosed, "include-closed", true, "Include closed issues")
	traverseCmd.Flags().IntVar(&traverseMaxDepth, "max-depth", 20, "Maximum hierarchy depth")
	traverseCmd.MarkFlagRequired("group-id")
	traverseCmd.MarkFlagRequired("epic-iid")
	rootCmd.AddCommand(traverseCmd)
}
