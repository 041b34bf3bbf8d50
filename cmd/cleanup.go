package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanupKeepDays int

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove old non-latest snapshots",
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

		deleted, err := st.CleanupOldSnapshots(cleanupKeepDays)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d old snapshot row(s), kept the last %d days\n", deleted, cleanupKeepDays)
		return nil
	},
}

func init() {
	cleanupCmd.Flags().IntVar(&cleanupKeepDays, "keep-days", 90, "Number of days of history to keep")
	rootCmd.AddCommand(cleanupCmd)
}
