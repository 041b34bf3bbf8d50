package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
	exportRootID string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the latest snapshot to CSV or JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportFormat != "csv" && exportFormat != "json" {
			return fmt.Errorf("unknown format %q: use csv or json", exportFormat)
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

		query := "SELECT * FROM gitlab_hierarchy WHERE is_latest = 1"
		var qargs []any
		if exportRootID != "" {
			query += " AND root_id = ?"
			qargs = append(qargs, exportRootID)
		}
		query += " ORDER BY root_id, depth, sibling_position"

		cols, rows, err := st.Query(query, qargs...)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("no data to export")
		}

		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()

		switch exportFormat {
		case "csv":
			w := csv.NewWriter(f)
			if err := w.Write(cols); err != nil {
				return err
			}
			for _, row := range rows {
				record := make([]string, len(cols))
				for i, c := range cols {
					if v := row[c]; v != nil {
						record[i] = fmt.Sprint(v)
					}
				}
				if err := w.Write(record); err != nil {
					return err
				}
			}
			w.Flush()
			if err := w.Error(); err != nil {
				return err
			}
		case "json":
			enc := json.NewEncoder(f)
			enc.SetIndent("", "  ")
			if err := enc.Encode(rows); err != nil {
				return err
			}
		}

		fmt.Printf("Exported %d rows to %s (%s)\n", len(rows), exportOutput, exportFormat)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Export format: csv or json")
	exportCmd.Flags().StringVar(&exportOutput, "output", "export.csv", "Output file path")
	exportCmd.Flags().StringVar(&exportRootID, "root-id", "", "Root epic ID to export (default: all)")
	rootCmd.AddCommand(exportCmd)
}
