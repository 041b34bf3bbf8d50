package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsRootID string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.GetStats(statsRootID)
		if err != nil {
			return err
		}

		if statsRootID != "" {
			fmt.Printf("Root: %s\n\n", statsRootID)
		}
		fmt.Printf("Total items: %d\n", stats.TotalItems)
		fmt.Printf("  Epics:  %d\n", stats.EpicCount)
		fmt.Printf("  Issues: %d\n", stats.IssueCount)
		fmt.Printf("State:\n")
		fmt.Printf("  Open:   %d\n", stats.OpenCount)
		fmt.Printf("  Closed: %d\n", stats.ClosedCount)
		fmt.Printf("Hierarchy:\n")
		fmt.Printf("  Max depth:  %d levels\n", stats.MaxDepth)
		fmt.Printf("  Avg depth:  %.1f levels\n", stats.AvgDepth)
		fmt.Printf("  Leaf nodes: %d\n", stats.LeafCount)
		fmt.Printf("Roots: %d\n", stats.RootCount)
		fmt.Printf("Snapshots: %s .. %s\n", orNA(stats.FirstSnapshot), orNA(stats.LastSnapshot))
		return nil
	},
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func init() {
	statsCmd.Flags().StringVar(&statsRootID, "root-id", "", "Root epic ID to scope stats to (e.g. epic:42#7)")
	rootCmd.AddCommand(statsCmd)
}
