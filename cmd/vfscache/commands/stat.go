package commands

import (
	"fmt"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/hollowlog/vfscache/internal/bytesize"
	"github.com/hollowlog/vfscache/pkg/vfs"
)

var statCmd = &cobra.Command{
	Use:   "stat",
	Short: "Print store utilization statistics",
	Long: `Open the store files read-only and print utilization statistics:
file and free block counts, per-type usage, and fullness.

Examples:
  vfscache stat
  vfscache stat --index /var/cache/app/index.db2.x --data /var/cache/app/data.db2.x`,
	RunE: runStat,
}

func runStat(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	stats := store.DumpStatistics()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"File blocks", fmt.Sprintf("%d", stats.FileCount)})
	table.Append([]string{"Invalid blocks", fmt.Sprintf("%d", stats.InvalidCount)})
	table.Append([]string{"Free blocks", fmt.Sprintf("%d", stats.FreeCount)})
	table.Append([]string{"Total file bytes", bytesize.ByteSize(stats.TotalFileBytes).String()})
	table.Append([]string{"Total free bytes", bytesize.ByteSize(stats.TotalFreeBytes).String()})
	table.Append([]string{"Max file block", bytesize.ByteSize(stats.MaxFileBytes).String()})
	table.Append([]string{"Max free block", bytesize.ByteSize(stats.MaxFreeBytes).String()})
	table.Append([]string{"Fullness", fmt.Sprintf("%.0f%%", stats.FullPercent())})
	table.Append([]string{"Potential merges", fmt.Sprintf("%d", stats.PotentialMerges)})
	table.Append([]string{"Free indexes agree", fmt.Sprintf("%t", stats.IndexesAgree)})
	table.Render()

	if len(stats.TypeStats) > 0 {
		types := make([]vfs.AssetType, 0, len(stats.TypeStats))
		for t := range stats.TypeStats {
			types = append(types, t)
		}
		sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

		fmt.Println()
		byType := tablewriter.NewWriter(os.Stdout)
		byType.SetHeader([]string{"Type", "Count", "Bytes"})
		for _, t := range types {
			ts := stats.TypeStats[t]
			byType.Append([]string{
				t.String(),
				fmt.Sprintf("%d", ts.Count),
				bytesize.ByteSize(ts.Bytes).String(),
			})
		}
		byType.Render()
	}

	return nil
}
