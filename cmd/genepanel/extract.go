package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hassanfa/GenePanelDesigner/internal/panel"
	"github.com/hassanfa/GenePanelDesigner/internal/query"
	"github.com/hassanfa/GenePanelDesigner/internal/reference"
	"github.com/hassanfa/GenePanelDesigner/internal/store"
)

// addBuildFlags registers the flags shared by extract and batch.
func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().StringP(keyReference, "r", "", "Reference table (refFlat/ncbiRefSeq, optionally gzipped)")
	cmd.Flags().String(keyAssembly, "hg38", "Assembly of downloaded files used when --reference is not set")
	cmd.Flags().String(keyChromSizes, "", "Chromosome sizes file, required with --padding")
	cmd.Flags().Int64P(keyPadding, "p", 0, "Pad every interval by this many bp on both ends")
	cmd.Flags().StringSlice(keyCollapse, nil, "Annotation columns to collapse: strand,gene,transcript,label")
	cmd.Flags().String(keyStore, "", "Record the result in this DuckDB panel store")
	cmd.Flags().Bool(keyNoCache, false, "Do not read or write the reference parse cache")
}

var buildKeys = []string{keyReference, keyAssembly, keyChromSizes, keyPadding, keyCollapse, keyStore, keyNoCache}

func newExtractCmd() *cobra.Command {
	var (
		input  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract regions for one gene query",
		Long: `Extract exon or coordinate regions for a single query and write a merged BED.

The query is a JSON object with the keys:
  genename    gene symbol (required)
  transcript  transcript ID, version suffix ignored
  exons       exon range, e.g. <3,4-7,10-12,24 (exon 1 is the 5' exon)
  coordinate  chrom:start-end list; overrides transcript and exons

Merged regions carry one collapsed column per --collapse entry. Exon queries
default to strand,gene,transcript,label (7 columns) and coordinate queries to
strand,gene,transcript (6 columns). Use --collapse label for a 4-column BED
with only the exon labels, or --collapse "" for plain 3-column intervals.`,
		Example: `  genepanel extract -r ncbiRefSeq.txt -i '{"genename":"TP53"}'
  genepanel extract -r ncbiRefSeq.txt -i '{"genename":"TP53","transcript":"NM_000546","exons":"<3"}'
  genepanel extract -i '{"genename":"PALB2","coordinate":"16:23603000-23603500"}' -p 20 -o palb2.bed
  genepanel extract -r ncbiRefSeq.txt -i '{"genename":"BRCA2"}' --collapse label`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd, buildKeys...); err != nil {
				return err
			}
			return runExtract(input, output)
		},
	}

	cmd.Flags().StringVarP(&input, "input-json", "i", "", "Query JSON string")
	cmd.Flags().StringVarP(&output, "output-bed", "o", "", "Output BED ('-' for stdout, default derived from the query)")
	cmd.MarkFlagRequired("input-json")
	addBuildFlags(cmd)

	return cmd
}

func runExtract(input, output string) error {
	logger, err := loggerFromConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Debug("input query", zap.String("json", input))
	q, err := query.Decode(input, logger)
	if err != nil {
		return usageError{err}
	}

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

	res, err := b.Build(q)
	if err != nil {
		return err
	}

	if output == "" {
		output = panel.OutputName(q)
		logger.Info("setting output file name", zap.String("path", output))
	}
	if err := writeRegions(output, res.Regions); err != nil {
		return err
	}
	logger.Info("wrote regions",
		zap.String("path", output),
		zap.Int("regions", len(res.Regions)),
		zap.Int64("bases", panelSize(res.Regions)))

	if storePath := viper.GetString(keyStore); storePath != "" {
		if err := recordRun(storePath, refPath, res, opts.Padding); err != nil {
			return err
		}
		logger.Info("recorded run", zap.String("store", storePath))
	}
	return nil
}

// recordRun stores a build result in the panel store.
func recordRun(storePath, refPath string, res *panel.Result, padding int64) error {
	fp, err := reference.StatFile(refPath)
	if err != nil {
		return fmt.Errorf("stat reference: %w", err)
	}

	s, err := store.Open(storePath)
	if err != nil {
		return err
	}
	defer s.Close()

	return s.RecordRun(store.NewRun(res.Query, fp, padding, res.Columns), res.Regions)
}
