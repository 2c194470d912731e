package cli

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/veridian-labs/reguard/internal/core/domain"
	"github.com/veridian-labs/reguard/internal/core/ports/driven"
)

var (
	lsJSON         bool
	lsLimit        int
	lsJurisdiction string
	lsMinTier      string
	lsContains     string
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List ingested documents, newest first",
	RunE:  runLs,
}

func init() {
	lsCmd.Flags().BoolVar(&lsJSON, "json", false, "output as JSON")
	lsCmd.Flags().IntVarP(&lsLimit, "limit", "n", 20, "maximum number of documents")
	lsCmd.Flags().StringVar(&lsJurisdiction, "jurisdiction", "", "filter by jurisdiction tag")
	lsCmd.Flags().StringVar(&lsMinTier, "min-tier", "", "filter by minimum risk tier (Compliant, Low, Medium, High)")
	lsCmd.Flags().StringVar(&lsContains, "contains", "", "filter by substring in title or text")
	rootCmd.AddCommand(lsCmd)
}

func runLs(cmd *cobra.Command, _ []string) error {
	filter := driven.DocumentFilter{
		Contains: lsContains,
		Limit:    lsLimit,
	}
	if lsJurisdiction != "" {
		tag, err := domain.ParseJurisdiction(strings.ToUpper(lsJurisdiction))
		if err != nil {
			return err
		}
		filter.Jurisdiction = tag
	}
	if lsMinTier != "" {
		tier, ok := domain.ParseTier(lsMinTier)
		if !ok {
			return domain.ErrInvalidInput
		}
		filter.MinTier = &tier
	}

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
	docs, err := a.docs.ListDocuments(ctx, filter)
	if err != nil {
		return err
	}

	if lsJSON {
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	if len(docs) == 0 {
		cmd.Println("No documents.")
		return nil
	}
	for i := range docs {
		doc := &docs[i]
		line := doc.Title
		if line == "" {
			line = doc.SourceURI
		}
		tier := ""
		if assessment, err := a.assessments.LatestAssessment(ctx, doc.ID); err == nil {
			tier = assessment.Tier.String()
		}
		cmd.Printf("  %s  rev %-3d %-9s %-19s %s\n",
			doc.ID, doc.Revision, tier, doc.IngestedAt.Format(time.DateTime), line)
	}
	return nil
}
