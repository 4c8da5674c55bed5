package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hassanfa/GenePanelDesigner/internal/bed"
	"github.com/hassanfa/GenePanelDesigner/internal/store"
)

func newPanelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "panel",
		Short: "Inspect and export the panel store",
		Long:  "List, show, export or clear the runs recorded with --store.",
		Example: `  genepanel panel list --store panel.duckdb
  genepanel panel show TP53 --store panel.duckdb
  genepanel panel export --store panel.duckdb -o panel.bed`,
	}

	cmd.PersistentFlags().String(keyStore, "", "DuckDB panel store")

	cmd.AddCommand(newPanelListCmd())
	cmd.AddCommand(newPanelShowCmd())
	cmd.AddCommand(newPanelExportCmd())
	cmd.AddCommand(newPanelClearCmd())

	return cmd
}

// openPanelStore opens the store named by --store or configuration.
func openPanelStore(cmd *cobra.Command) (*store.Store, error) {
	if err := bindFlags(cmd, keyStore); err != nil {
		return nil, err
	}
	path := viper.GetString(keyStore)
	if path == "" {
		return nil, usageError{fmt.Errorf("--store is required")}
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("panel store %s: %w", path, err)
	}
	return store.Open(path)
}

func newPanelListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openPanelStore(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.Runs()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tCREATED\tGENE\tREGIONS\tPADDING\tQUERY")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
					r.ID[:8], r.CreatedAt.Format(time.DateTime), r.Gene, r.RegionCount, r.Padding, r.Query)
			}
			return tw.Flush()
		},
	}
}

func newPanelShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <gene>",
		Short: "Print the stored regions of a gene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openPanelStore(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			stored, err := s.RegionsByGene(args[0])
			if err != nil {
				return err
			}
			if len(stored) == 0 {
				return fmt.Errorf("no stored regions for %s", args[0])
			}

			w := bed.NewWriter(cmd.OutOrStdout())
			for _, sr := range stored {
				if err := w.Write(sr.Region); err != nil {
					return err
				}
			}
			return w.Flush()
		},
	}
}

func newPanelExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Merge every stored region into one panel BED",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd, keyPadding, keyChromSizes, keyAssembly); err != nil {
				return err
			}
			logger, err := loggerFromConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()

			s, err := openPanelStore(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			opts, err := builderOptions(logger)
			if err != nil {
				return err
			}

			regions, err := s.Export(opts.Padding, opts.ChromSizes)
			if err != nil {
				return err
			}
			if err := writeRegions(output, regions); err != nil {
				return err
			}
			logger.Info("exported panel",
				zap.String("path", output),
				zap.Int("regions", len(regions)),
				zap.String("store", s.Path()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output-bed", "o", "panel.bed", "Output BED ('-' for stdout)")
	cmd.Flags().Int64P(keyPadding, "p", 0, "Pad every region by this many bp on both ends")
	cmd.Flags().String(keyChromSizes, "", "Chromosome sizes file, required with --padding")
	cmd.Flags().String(keyAssembly, "hg38", "Assembly of downloaded files used when --chrom-sizes is not set")

	return cmd
}

func newPanelClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return usageError{fmt.Errorf("refusing to clear the store without --yes")}
			}
			s, err := openPanelStore(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Clear(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", s.Path())
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm clearing the store")
	return cmd
}
