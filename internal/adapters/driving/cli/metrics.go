package cli

import (
	"encoding/json"
	"sort"

	"github.com/spf13/cobra"
)

var metricsJSON bool

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Print aggregate pipeline and alert counts",
	RunE:  runMetrics,
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	if err := a.reindex(ctx); err != nil {
		return err
	}
	snapshot := a.metrics.Snapshot(ctx)

	if metricsJSON {
		data, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Documents ingested:  %d\n", snapshot.DocumentsIngested)
	cmd.Printf("Documents rejected:  %d\n", snapshot.DocumentsRejected)
	cmd.Printf("Index entries:       %d\n", snapshot.IndexSize)
	cmd.Printf("Alerts suppressed:   %d\n", snapshot.AlertsSuppressed)
	printCounts(cmd, "Alerts by tier", snapshot.AlertsByTier)
	printCounts(cmd, "Alerts by jurisdiction", snapshot.AlertsByJurisdiction)
	return nil
}

func printCounts(cmd *cobra.Command, header string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	cmd.Printf("%s:\n", header)
	for _, key := range keys {
		cmd.Printf("  %-10s %d\n", key, counts[key])
	}
}
