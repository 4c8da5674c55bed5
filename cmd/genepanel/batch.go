package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hassanfa/GenePanelDesigner/internal/bed"
	"github.com/hassanfa/GenePanelDesigner/internal/panel"
	"github.com/hassanfa/GenePanelDesigner/internal/query"
	"github.com/hassanfa/GenePanelDesigner/internal/reference"
	"github.com/hassanfa/GenePanelDesigner/internal/store"
)

func newBatchCmd() *cobra.Command {
	var (
		output     string
		skipErrors bool
	)

	cmd := &cobra.Command{
		Use:   "batch <queries-file>",
		Short: "Build one merged panel from many queries",
		Long: `Build a single merged BED from a file with one query per line.

Each line is either a JSON query (as accepted by extract) or a bare gene
symbol. Blank lines and lines starting with '#' are skipped. Use '-' to read
queries from stdin.`,
		Example: `  genepanel batch -r ncbiRefSeq.txt -o panel.bed genes.txt
  genepanel batch --workers 8 --skip-errors -o panel.bed queries.jsonl`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd, append(buildKeys, keyWorkers)...); err != nil {
				return err
			}
			return runBatch(args[0], output, skipErrors)
		},
	}

	cmd.Flags().StringVarP(&output, "output-bed", "o", "panel.bed", "Output BED ('-' for stdout)")
	cmd.Flags().BoolVar(&skipErrors, "skip-errors", false, "Skip queries that fail instead of aborting")
	cmd.Flags().Int(keyWorkers, 0, "Number of worker goroutines (default: number of CPUs)")
	addBuildFlags(cmd)

	return cmd
}

func runBatch(queriesPath, output string, skipErrors bool) error {
	logger, err := loggerFromConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	queries, err := readQueries(queriesPath, logger)
	if err != nil {
		return err
	}
	if len(queries) == 0 {
		return usageError{fmt.Errorf("no queries in %s", queriesPath)}
	}
	logger.Info("read queries", zap.Int("queries", len(queries)))

	refPath, err := referencePath()
	if err != nil {
		return err
	}
	table, err := loadReference(refPath, logger)
	if err != nil {
		return err
	}

	opts, err := builderOptions(logger)
	if err != nil {
		return err
	}

	b := panel.NewBuilder(table, opts)
	b.SetLogger(logger)

	res, err := b.BuildAll(queries, panel.BatchOptions{
		Workers:    viper.GetInt(keyWorkers),
		SkipErrors: skipErrors,
	})
	if err != nil {
		return err
	}

	if err := writeRegions(output, res.Regions); err != nil {
		return err
	}
	logger.Info("wrote panel",
		zap.String("path", output),
		zap.Int("regions", len(res.Regions)),
		zap.Int64("bases", panelSize(res.Regions)))

	if storePath := viper.GetString(keyStore); storePath != "" {
		if err := recordBatch(storePath, refPath, res, opts); err != nil {
			return err
		}
		logger.Info("recorded runs", zap.String("store", storePath), zap.Int("runs", len(res.Succeeded)))
	}

	if len(res.Failed) > 0 {
		return fmt.Errorf("%d of %d queries failed", len(res.Failed), len(queries))
	}
	return nil
}

func readQueries(path string, logger *zap.Logger) ([]*query.Query, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open queries file: %w", err)
		}
		defer f.Close()
		r = f
	}
	queries, err := query.DecodeLines(r, logger)
	if err != nil {
		return nil, usageError{err}
	}
	return queries, nil
}

// recordBatch stores every successful query of a batch as its own run.
func recordBatch(storePath, refPath string, res *panel.BatchResult, opts panel.Options) error {
	fp, err := reference.StatFile(refPath)
	if err != nil {
		return fmt.Errorf("stat reference: %w", err)
	}

	s, err := store.Open(storePath)
	if err != nil {
		return err
	}
	defer s.Close()

	for _, r := range res.Succeeded {
		regions, err := bed.Merge(r.Intervals, opts.Padding, opts.ChromSizes, r.Columns)
		if err != nil {
			return err
		}
		if err := s.RecordRun(store.NewRun(r.Query, fp, opts.Padding, r.Columns), regions); err != nil {
			return fmt.Errorf("record %s: %w", r.Query.Gene, err)
		}
	}
	return nil
}
