package main

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hassanfa/GenePanelDesigner/internal/bed"
	"github.com/hassanfa/GenePanelDesigner/internal/panel"
	"github.com/hassanfa/GenePanelDesigner/internal/reference"
)

// referencePath returns the configured reference file, falling back to a
// downloaded one for the configured assembly.
func referencePath() (string, error) {
	if p := viper.GetString(keyReference); p != "" {
		return p, nil
	}
	assembly := viper.GetString(keyAssembly)
	if p, _ := FindDownloadedFiles(assembly); p != "" {
		return p, nil
	}
	return "", usageError{fmt.Errorf("no reference given; use --reference or run: genepanel download --assembly %s", assembly)}
}

// chromSizesPath returns the configured chromosome size file, falling back to
// a downloaded one for the configured assembly.
func chromSizesPath() string {
	if p := viper.GetString(keyChromSizes); p != "" {
		return p
	}
	_, p := FindDownloadedFiles(viper.GetString(keyAssembly))
	return p
}

// loadReference loads the reference table, using the parse cache unless
// disabled.
func loadReference(path string, logger *zap.Logger) (*reference.Table, error) {
	logger.Debug("loading reference", zap.String("path", path))

	var (
		t   *reference.Table
		hit bool
		err error
	)
	if viper.GetBool(keyNoCache) {
		t, err = reference.LoadFile(path)
	} else {
		t, hit, err = reference.LoadFileCached(path)
	}
	if err != nil {
		return nil, fmt.Errorf("loading reference %s: %w", path, err)
	}

	logger.Info("loaded reference",
		zap.String("path", path),
		zap.Int("rows", t.RowCount()),
		zap.Int("genes", t.GeneCount()),
		zap.Int("chromosomes", len(t.Chromosomes())),
		zap.Bool("cached", hit))
	return t, nil
}

// builderOptions assembles padding, chromosome sizes and collapse columns
// from configuration. Chromosome sizes are only loaded when padding is set.
func builderOptions(logger *zap.Logger) (panel.Options, error) {
	opts := panel.Options{Padding: viper.GetInt64(keyPadding)}
	if opts.Padding < 0 {
		return opts, usageError{fmt.Errorf("padding must not be negative: %d", opts.Padding)}
	}

	if opts.Padding > 0 {
		if path := chromSizesPath(); path != "" {
			sizes, err := bed.LoadChromSizes(path)
			if err != nil {
				return opts, err
			}
			logger.Debug("loaded chromosome sizes", zap.String("path", path), zap.Int("chromosomes", len(sizes)))
			opts.ChromSizes = sizes
		}
	}

	if viper.IsSet(keyCollapse) {
		cols, err := bed.ParseColumns(viper.GetStringSlice(keyCollapse))
		if err != nil {
			return opts, usageError{err}
		}
		opts.Columns = cols
	}
	return opts, nil
}

// panelSize returns the number of bases covered by merged regions.
func panelSize(regions []bed.Region) int64 {
	var n int64
	for _, r := range regions {
		n += r.Len()
	}
	return n
}

// writeRegions writes regions to path, or to stdout when path is "-".
func writeRegions(path string, regions []bed.Region) error {
	if path == "-" {
		w := bed.NewWriter(os.Stdout)
		if err := w.WriteAll(regions); err != nil {
			return err
		}
		return w.Flush()
	}
	return bed.WriteFile(path, regions)
}
