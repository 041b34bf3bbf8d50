package cmd

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/ruppin/TheMatrix/internal/extract"
)

var (
	extractGroupIDs      string
	extractRootGroupID   int
	extractEpicIID       int
	extractGitLabURL     string
	extractToken         string
	extractSnapshotDate  string
	extractIncludeClosed bool
	extractMaxDepth      int
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract an epic hierarchy using the in-memory scope method",
	Long: `Fetches all epics from the given groups up front and resolves the
hierarchy in memory via parent epic ids. More reliable than GitLab's
server-side parent_id filter, which is broken in some versions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		groupIDs, err := parseGroupIDs(extractGroupIDs)
		if err != nil {
			return err
		}
		if !slices.Contains(groupIDs, extractRootGroupID) {
			fmt.Printf("[extract] root group %d not in --group-ids, adding it\n", extractRootGroupID)
			groupIDs = append(groupIDs, extractRootGroupID)
		}
		snapshot, err := parseSnapshotDate(extractSnapshotDate)
		if err != nil {
			return err
		}

		e, cleanup, err := buildExtractor(extractGitLabURL, extractToken)
		if err != nil {
			return err
		}
		defer cleanup()

		sum, err := e.RunScope(cmd.Context(), extract.Options{
			GroupIDs:      groupIDs,
			RootGroupID:   extractRootGroupID,
			RootEpicIID:   extractEpicIID,
			SnapshotDate:  snapshot,
			IncludeClosed: extractIncludeClosed,
			MaxDepth:      extractMaxDepth,
		})
		if err != nil {
			return err
		}
		printSummary(sum)
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractGroupIDs, "group-ids", "", "Comma-separated group IDs to fetch epics from")
	extractCmd.Flags().IntVar(&extractRootGroupID, "root-group-id", 0, "Group ID containing the root epic")
	extractCmd.Flags().IntVar(&extractEpicIID, "epic-iid", 0, "Epic IID of the root epic")
	extractCmd.Flags().StringVar(&extractGitLabURL, "gitlab-url", "", "GitLab instance URL (overrides config)")
	extractCmd.Flags().StringVar(&extractToken, "token", "", "GitLab personal access token (default: GITLAB_TOKEN)")
	extractCmd.Flags().StringVar(&extractSnapshotDate, "snapshot-date", "", "Snapshot date YYYY-MM-DD (default: today)")
	extractCmd.Flags().BoolVar(&extractIncludeClosed, "include-closed", true, "Include closed issues")
	extractCmd.Flags().IntVar(&extractMaxDepth, "max-depth", 20, "Maximum hierarchy depth")
	extractCmd.MarkFlagRequired("group-ids")
	extractCmd.MarkFlagRequired("root-group-id")
	extractCmd.MarkFlagRequired("epic-iid")
	rootCmd.AddCommand(extractCmd)
}

// buildExtractor wires config, client, parser and store for the extraction
// commands. The returned cleanup closes the store.
func buildExtractor(urlFlag, tokenFlag string) (*extract.Extractor, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	client, err := newClient(cfg, urlFlag, tokenFlag)
	if err != nil {
		return nil, nil, err
	}
	st, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	return extract.New(client, st, newParser(cfg)), func() { st.Close() }, nil
}

func printSummary(sum extract.Summary) {
	fmt.Println()
	fmt.Println("Extraction complete")
	fmt.Printf("  Total items:  %d (%d epics, %d issues)\n", sum.TotalItems, sum.Epics, sum.Issues)
	fmt.Printf("  Open/closed:  %d / %d\n", sum.OpenCount, sum.ClosedCount)
	fmt.Printf("  Max depth:    %d (avg %.1f)\n", sum.MaxDepth, sum.AvgDepth)
	fmt.Printf("  Leaf nodes:   %d\n", sum.LeafCount)
	if sum.Orphaned > 0 {
		fmt.Printf("  Orphaned:     %d epics unreachable from root\n", sum.Orphaned)
	}
	fmt.Printf("  Snapshot:     %s\n", sum.SnapshotDate)
	fmt.Printf("  Elapsed:      %s\n", sum.Elapsed.Round(time.Millisecond))
}
