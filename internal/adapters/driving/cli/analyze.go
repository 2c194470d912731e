package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veridian-labs/reguard/internal/adapters/driving/feed/fsdir"
	"github.com/veridian-labs/reguard/internal/core/domain"
)

var analyzeJSON bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Score a document without ingesting it",
	Long: `Runs normalisation, jurisdiction classification and risk scoring on
a single file and prints the assessment. Nothing is stored or indexed,
and no alerts fire.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "output the assessment as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]
	mime := fsdir.MIMEFor(path)
	if mime == "" {
		return fmt.Errorf("%w: unrecognised file type %s", domain.ErrUnsupportedFormat, path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
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

	assessment, err := a.pipeline.Analyze(cmd.Context(), domain.RawDocument{
		SourceURI: path,
		MIMEType:  mime,
		Content:   content,
	})
	if err != nil {
		return err
	}

	if analyzeJSON {
		data, err := json.MarshalIndent(assessment, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	printAssessment(cmd, assessment)
	return nil
}

func printAssessment(cmd *cobra.Command, a *domain.RiskAssessment) {
	cmd.Printf("Tier:          %s\n", a.Tier)
	cmd.Printf("Score:         %.2f\n", a.Score)
	cmd.Printf("Jurisdictions: %s\n", joinTags(a.Jurisdictions))
	if len(a.Categories) > 0 {
		cmd.Printf("Categories:    %s\n", strings.Join(a.Categories, ", "))
	}
	if len(a.Findings) > 0 {
		cmd.Printf("Findings:      %s\n", strings.Join(a.Findings, ", "))
	}
	cmd.Printf("Rationale:     %s\n", a.Rationale)
}

func joinTags(tags []domain.JurisdictionTag) string {
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = string(tag)
	}
	return strings.Join(names, ", ")
}
