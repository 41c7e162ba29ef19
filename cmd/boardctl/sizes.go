package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joshuapare/lifeboard/board/field"
)

var sizesMaxPower int

func init() {
	cmd := newSizesCmd()
	cmd.Flags().IntVar(&sizesMaxPower, "max-power", 12, "Largest page power to show")
	rootCmd.AddCommand(cmd)
}

func newSizesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sizes",
		Short: "Show the field side reached at each page count",
		Long: `The sizes command prints, for k = 0..max-power, the side of the square
field that 2^k pages hold with the configured page size.

Example:
  boardctl sizes --max-power 8
  LIFEBOARD_PAGE_SIZE=1024 boardctl sizes --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSizes()
		},
	}
}

// sizeRow is one line of the sizes table.
type sizeRow struct {
	Power int    `json:"power"`
	Pages uint64 `json:"pages"`
	Bytes uint64 `json:"bytes"`
	Side  uint64 `json:"side"`
}

func sizeTable(pageSize, maxPower int) ([]sizeRow, error) {
	if maxPower < 0 {
		return nil, fmt.Errorf("max-power must not be negative")
	}
	rows := make([]sizeRow, 0, maxPower+1)
	for k := 0; k <= maxPower; k++ {
		side, ok := field.FieldSide(pageSize, k)
		if !ok {
			return nil, fmt.Errorf("2^%d pages of %d bytes overflow", k, pageSize)
		}
		pages := uint64(1) << uint(k)
		rows = append(rows, sizeRow{Power: k, Pages: pages, Bytes: pages * uint64(pageSize), Side: side})
	}
	return rows, nil
}

func runSizes() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rows, err := sizeTable(cfg.Field.PageSize, sizesMaxPower)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(rows)
	}

	printInfo("%-6s %-10s %-12s %s\n", "POWER", "PAGES", "BYTES", "SIDE")
	for _, r := range rows {
		printInfo("%-6d %-10s %-12s %d\n", r.Power, humanize.Comma(int64(r.Pages)), humanize.IBytes(r.Bytes), r.Side)
	}
	return nil
}
