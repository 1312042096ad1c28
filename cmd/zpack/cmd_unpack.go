package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/meigma/zpack/unpack"
)

var cmdUnpack = &cobra.Command{
	Use:   "unpack <header-or-data-file> [out-dir]",
	Short: "Extract every entry of an archive and write its manifest",
	Long: "Extracts the archive that the given header or data file belongs to. " +
		"The output directory defaults to the data file name with dots replaced by dashes.",
	Args: cobra.RangeArgs(1, 2),
	RunE: runUnpackCmd,
}

var flagUnpack struct {
	KeepExisting    bool
	ContinueOnError bool
}

func init() {
	cmdMain.AddCommand(cmdUnpack)

	cmdUnpack.Flags().BoolVar(&flagUnpack.KeepExisting, "keep-existing", false, "Leave files that already exist in the output directory")
	cmdUnpack.Flags().BoolVar(&flagUnpack.ContinueOnError, "continue-on-error", false, "Keep extracting after an entry fails")
}

func runUnpackCmd(cmd *cobra.Command, args []string) error {
	headerPath, dataPath, err := archivePaths(args[0], settings.GetString("header-name"), settings.GetString("data-name"))
	if err != nil {
		return err
	}
	outDir := unpack.DefaultOutDir(dataPath)
	if len(args) > 1 {
		outDir = args[1]
	}
	return unpackArchive(cmd.Context(), headerPath, dataPath, outDir)
}

func unpackArchive(ctx context.Context, headerPath, dataPath, outDir string) error {
	progress := newProgressLine("Unpacking " + dataPath)
	_, stats, err := unpack.UnpackFiles(ctx, headerPath, dataPath, outDir,
		unpack.WithWorkers(settings.GetInt("workers")),
		unpack.WithOverwrite(!flagUnpack.KeepExisting),
		unpack.WithContinueOnError(flagUnpack.ContinueOnError),
		unpack.WithProgress(progress.update),
		unpack.WithLogger(logger),
	)
	progress.done(err)
	if err != nil {
		return err
	}

	fmt.Printf("%s %d entries (%s) to %s\n",
		color.GreenString("Unpacked"), stats.Written, humanize.IBytes(uint64(stats.Bytes)), outDir) //nolint:gosec // non-negative
	if stats.Dummies > 0 {
		fmt.Printf("  %d entries without payload recorded in the manifest\n", stats.Dummies)
	}
	if stats.Skipped > 0 {
		fmt.Printf("  %d existing files kept\n", stats.Skipped)
	}
	for _, f := range stats.Failures {
		fmt.Printf("  %s %v\n", color.YellowString("failed:"), f)
	}
	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d entries failed", stats.Failed, stats.Entries)
	}
	return nil
}
