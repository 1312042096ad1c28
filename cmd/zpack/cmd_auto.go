package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/meigma/zpack/single"
	"github.com/meigma/zpack/unpack"
)

var cmdAuto = &cobra.Command{
	Use:   "auto <path>...",
	Short: "Handle each path according to its name",
	Long: `Handles each path according to its name:

  FAT_Z.BIN, BG3ZPACK.ARC   unpack the archive next to the data file
  _zpack.toml, unpacked dir repack into the parent directory
  *.GST                     decompress to *.GST.DE
  *.GST.DE                  compress back to *.GST
  *.FOZ                     extract the held file next to the FOZ

Other paths are skipped. Processing stops at the first error.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAuto,
}

func init() {
	cmdMain.AddCommand(cmdAuto)
}

func runAuto(cmd *cobra.Command, args []string) error {
	headerName, dataName := settings.GetString("header-name"), settings.GetString("data-name")
	for _, path := range args {
		act, err := classify(path, headerName, dataName)
		if err != nil {
			return err
		}
		if act == actionNone {
			fmt.Printf("%s %s\n", color.YellowString("Skipping"), path)
			continue
		}
		logger.Debug("dispatch", "path", path, "action", act.String())
		fmt.Printf("%s...\n", act)

		switch act {
		case actionUnpack:
			headerPath, dataPath, err := archivePaths(path, headerName, dataName)
			if err != nil {
				return err
			}
			err = unpackArchive(cmd.Context(), headerPath, dataPath, unpack.DefaultOutDir(dataPath))
			if err != nil {
				return err
			}
		case actionRepack:
			inDir, outDir, err := repackDirs(path, "")
			if err != nil {
				return err
			}
			if err := repackArchive(cmd.Context(), inDir, outDir); err != nil {
				return err
			}
		case actionGSTDecompress:
			if err := decompressGST(path, single.DecompressedGSTPath(path)); err != nil {
				return err
			}
		case actionGSTCompress:
			if err := compressGST(path, single.CompressedGSTPath(path)); err != nil {
				return err
			}
		case actionFOZExtract:
			if err := extractFOZ(path, filepath.Dir(path)); err != nil {
				return err
			}
		}
	}
	fmt.Println("Finished.")
	return nil
}
