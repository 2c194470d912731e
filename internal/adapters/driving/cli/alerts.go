package cli

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/veridian-labs/reguard/internal/core/domain"
)

var (
	alertsJSON  bool
	alertsLimit int
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List fired alerts and their delivery status, newest first",
	RunE:  runAlerts,
}

func init() {
	alertsCmd.Flags().BoolVar(&alertsJSON, "json", false, "output as JSON")
	alertsCmd.Flags().IntVarP(&alertsLimit, "limit", "n", 20, "maximum number of alerts")
	rootCmd.AddCommand(alertsCmd)
}

func runAlerts(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	events, err := a.alerts.ListEvents(cmd.Context(), alertsLimit)
	if err != nil {
		return err
	}

	if alertsJSON {
		data, err := json.MarshalIndent(events, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	if len(events) == 0 {
		cmd.Println("No alerts.")
		return nil
	}
	for i := range events {
		event := &events[i]
		cmd.Printf("  %s  %-6s rev %-3d %s\n",
			event.CreatedAt.Format(time.DateTime), event.Tier, event.Revision, event.DocumentID)
		for _, delivery := range event.Deliveries {
			cmd.Printf("      %-6s %s (%d attempts)%s\n",
				delivery.Channel, delivery.State, delivery.Attempts, deliveryError(delivery))
		}
	}
	return nil
}

func deliveryError(d domain.ChannelDelivery) string {
	if d.LastError == "" {
		return ""
	}
	return ": " + d.LastError
}
