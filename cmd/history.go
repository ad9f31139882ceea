package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/kozaktomas/face-attendance/internal/ledger"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print attendance records",
	Long: `Print every attendance record in insertion order.

Example:
  face-attendance history
  face-attendance history --class math101 --format csv > math101.csv
  face-attendance history --format xlsx --output attendance.xlsx`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().String("class", "", "Only show records for this class")
	historyCmd.Flags().String("format", "table", "Output format: table, csv, json or xlsx")
	historyCmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")
}

const historySheet = "Attendance"

// filterByClass keeps records whose class matches class; an empty class keeps all.
func filterByClass(records []ledger.Record, class string) []ledger.Record {
	if class == "" {
		return records
	}
	filtered := make([]ledger.Record, 0, len(records))
	for _, rec := range records {
		if rec.ClassName == class {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

func writeHistory(w io.Writer, records []ledger.Record, format string) error {
	switch strings.ToLower(format) {
	case "table", "":
		if len(records) == 0 {
			fmt.Fprintln(w, "No attendance records found.")
			return nil
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tEMAIL\tCLASS\tTIMESTAMP")
		fmt.Fprintln(tw, "--\t-----\t-----\t---------")
		for _, rec := range records {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", rec.ID, rec.Email, rec.ClassName, rec.Timestamp.Format(time.RFC3339))
		}
		return tw.Flush()

	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"id", "email", "class_name", "timestamp"}); err != nil {
			return err
		}
		for _, rec := range records {
			row := []string{strconv.FormatInt(rec.ID, 10), rec.Email, rec.ClassName, rec.Timestamp.Format(time.RFC3339Nano)}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()

	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if records == nil {
			records = []ledger.Record{}
		}
		return enc.Encode(records)

	case "xlsx":
		return writeWorkbook(w, records)
	}
	return fmt.Errorf("unknown format %q (expected table, csv, json or xlsx)", format)
}

// writeWorkbook writes records as a single-sheet spreadsheet with a header row.
func writeWorkbook(w io.Writer, records []ledger.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(historySheet, "A1", &[]any{"id", "email", "class_name", "timestamp"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{rec.ID, rec.Email, rec.ClassName, rec.Timestamp.Format(time.RFC3339Nano)}
		if err := f.SetSheetRow(historySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", rec.ID, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	class := mustGetString(cmd, "class")
	format := mustGetString(cmd, "format")
	output := mustGetString(cmd, "output")

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	l, err := openLedger(ctx, cfg)
	if err != nil {
		return err
	}
	defer l.Close()

	records, err := l.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	records = filterByClass(records, class)
	if output == "" {
		return writeHistory(os.Stdout, records, format)
	}

	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	if err := writeHistory(file, records, format); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %d records to %s\n", len(records), output)
	return nil
}
