package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veridian-labs/reguard/internal/core/domain"
)

var (
	queryJSON          bool
	queryRaw           bool
	queryTopK          int
	queryMode          string
	queryJurisdictions []string
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a question grounded in the indexed documents",
	Long: `Retrieves the most relevant document fragments and composes a
grounded answer with source attribution. With --raw the ranked hits are
printed instead of an answer.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.Flags().BoolVar(&queryRaw, "raw", false, "print ranked hits instead of an answer")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "n", 0, "number of fragments to retrieve")
	queryCmd.Flags().StringVar(&queryMode, "mode", "hybrid", "retrieval mode: hybrid, lexical or semantic")
	queryCmd.Flags().StringSliceVar(&queryJurisdictions, "jurisdiction", nil, "restrict to jurisdictions (US, EU, INDIA, APAC, GLOBAL)")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	opts := domain.SearchOptions{K: queryTopK}

	switch queryMode {
	case "hybrid":
		opts.Mode = domain.SearchModeHybrid
	case "lexical":
		opts.Mode = domain.SearchModeLexical
	case "semantic":
		opts.Mode = domain.SearchModeSemantic
	default:
		return fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidInput, queryMode)
	}
	for _, name := range queryJurisdictions {
		tag, err := domain.ParseJurisdiction(strings.ToUpper(name))
		if err != nil {
			return err
		}
		opts.Jurisdictions = append(opts.Jurisdictions, tag)
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
	if err := a.reindex(ctx); err != nil {
		return err
	}

	if queryRaw {
		hits, err := a.search.Search(ctx, args[0], opts)
		if err != nil {
			return err
		}
		return printHits(cmd, hits)
	}

	answer, err := a.answerer.Answer(ctx, args[0], opts)
	if err != nil {
		return err
	}
	if queryJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Text)
	if len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i, id := range answer.Sources {
			cmd.Printf("  [%d] %s\n", i+1, id)
		}
	}
	return nil
}

func printHits(cmd *cobra.Command, hits []domain.SearchHit) error {
	if queryJSON {
		data, err := json.MarshalIndent(hits, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	if len(hits) == 0 {
		cmd.Println("No results.")
		return nil
	}
	for i, hit := range hits {
		cmd.Printf("  [%d] %s rev %d (%.3f) %s\n", i+1, hit.DocumentID, hit.Revision, hit.Score, joinTags(hit.Jurisdictions))
		if hit.Fragment != "" {
			cmd.Printf("      %s\n", hit.Fragment)
		}
	}
	return nil
}
