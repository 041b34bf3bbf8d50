package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var querySQL string

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a read-only SQL query against the hierarchy database",
	RunE: func(cmd *cobra.Command, args []string) error {
		if querySQL == "" {
			return fmt.Errorf("--sql is required")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		cols, rows, err := st.Query(querySQL)
		if err != nil {
			return err
		}

		fmt.Println(strings.Join(cols, " | "))
		for _, row := range rows {
			vals := make([]string, len(cols))
			for i, c := range cols {
				if v := row[c]; v != nil {
					vals[i] = fmt.Sprint(v)
				}
			}
			fmt.Println(strings.Join(vals, " | "))
		}
		fmt.Printf("\n%d row(s)\n", len(rows))
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVar(&querySQL, "sql", "", "SQL query to execute")
	rootCmd.AddCommand(queryCmd)
}
