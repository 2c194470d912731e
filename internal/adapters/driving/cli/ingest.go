package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veridian-labs/reguard/internal/adapters/driving/feed/demo"
	"github.com/veridian-labs/reguard/internal/adapters/driving/feed/fsdir"
	"github.com/veridian-labs/reguard/internal/core/domain"
)

var ingestDemo bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Ingest documents through the risk pipeline",
	Long: `Normalises, classifies, scores and indexes the given files or
directories. Directories are walked recursively. With --demo a fixed set
of sample financial documents is ingested instead.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestDemo, "demo", false, "ingest built-in sample documents")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if !ingestDemo && len(args) == 0 {
		return errors.New("nothing to ingest: pass paths or --demo")
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
	if err := a.pipeline.Start(ctx); err != nil {
		return err
	}

	submitted := 0
	if ingestDemo {
		n, err := demo.Submit(ctx, a.pipeline)
		if err != nil {
			return err
		}
		submitted += n
	}
	for _, path := range args {
		n, err := submitPath(ctx, a, path)
		if err != nil {
			return err
		}
		submitted += n
	}

	a.pipeline.Stop()

	stats := a.pipeline.Stats()
	cmd.Printf("Submitted %d, committed %d, rejected %d, failed %d\n",
		submitted, stats.Processed, stats.Rejected, stats.Failed)
	return nil
}

func submitPath(ctx context.Context, a *app, path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	if info.IsDir() {
		watcher, err := fsdir.New(a.pipeline, path)
		if err != nil {
			return 0, err
		}
		return watcher.SubmitExisting(ctx)
	}

	mime := fsdir.MIMEFor(path)
	if mime == "" {
		return 0, fmt.Errorf("%w: unrecognised file type %s", domain.ErrUnsupportedFormat, path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	raw := domain.RawDocument{
		SourceURI: path,
		MIMEType:  mime,
		Content:   content,
	}
	if err := a.pipeline.Submit(ctx, raw); err != nil {
		return 0, err
	}
	return 1, nil
}
