package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/meigma/zpack/unpack"
)

var cmdRepack = &cobra.Command{
	Use:   "repack <dir|_zpack.toml> [out-dir]",
	Short: "Rebuild an archive from an unpacked directory",
	Long: "Rebuilds the archive described by the directory's manifest. " +
		"The archive is written next to the unpacked directory unless out-dir is given; " +
		"existing archive files are moved to *.bak first.",
	Args: cobra.RangeArgs(1, 2),
	RunE: runRepackCmd,
}

var flagRepack struct {
	NoBackup bool
}

func init() {
	cmdMain.AddCommand(cmdRepack)

	cmdRepack.Flags().BoolVar(&flagRepack.NoBackup, "no-backup", false, "Replace existing archive files without keeping a .bak copy")
}

func runRepackCmd(cmd *cobra.Command, args []string) error {
	var out string
	if len(args) > 1 {
		out = args[1]
	}
	inDir, outDir, err := repackDirs(args[0], out)
	if err != nil {
		return err
	}
	return repackArchive(cmd.Context(), inDir, outDir)
}

func repackArchive(ctx context.Context, inDir, outDir string) error {
	progress := newProgressLine("Repacking " + inDir)
	stats, err := unpack.Repack(ctx, inDir, outDir,
		unpack.WithLevel(settings.GetInt("level")),
		unpack.WithBackup(!flagRepack.NoBackup),
		unpack.WithProgress(progress.update),
		unpack.WithLogger(logger),
	)
	progress.done(err)
	if err != nil {
		return err
	}
	fmt.Printf("%s %d entries (%s) into %s\n",
		color.GreenString("Repacked"), stats.Entries, humanize.IBytes(uint64(stats.Bytes)), filepath.Clean(outDir)) //nolint:gosec // non-negative
	return nil
}
