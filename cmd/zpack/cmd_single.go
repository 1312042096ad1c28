package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/meigma/zpack/single"
)

var cmdGST = &cobra.Command{
	Use:   "gst",
	Short: "Compress or decompress GST files",
}

var cmdGSTDecompress = &cobra.Command{
	Use:   "decompress <file.GST>",
	Short: "Inflate a GST file (default output: <file>.GST.DE)",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		out := flagSingle.Output
		if out == "" {
			out = single.DecompressedGSTPath(args[0])
		}
		return decompressGST(args[0], out)
	},
}

var cmdGSTCompress = &cobra.Command{
	Use:   "compress <file.GST.DE>",
	Short: "Deflate a file into a GST file (default output: <file> without .DE)",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		out := flagSingle.Output
		if out == "" {
			out = single.CompressedGSTPath(args[0])
		}
		return compressGST(args[0], out)
	},
}

var cmdFOZ = &cobra.Command{
	Use:   "foz",
	Short: "Work with FOZ files",
}

var cmdFOZExtract = &cobra.Command{
	Use:   "extract <file.FOZ> [out-dir]",
	Short: "Inflate the file held by a FOZ under its stored name",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(_ *cobra.Command, args []string) error {
		outDir := filepath.Dir(args[0])
		if len(args) > 1 {
			outDir = args[1]
		}
		return extractFOZ(args[0], outDir)
	},
}

var flagSingle struct {
	Output string
}

func init() {
	cmdMain.AddCommand(cmdGST, cmdFOZ)
	cmdGST.AddCommand(cmdGSTDecompress, cmdGSTCompress)
	cmdFOZ.AddCommand(cmdFOZExtract)

	cmdGST.PersistentFlags().StringVarP(&flagSingle.Output, "output", "o", "", "Output file")
}

func decompressGST(path, out string) error {
	if err := single.DecompressGSTFile(path, out); err != nil {
		return err
	}
	fmt.Printf("%s %s\n", color.GreenString("Decompressed"), out)
	return nil
}

func compressGST(path, out string) error {
	if err := single.CompressGSTFile(path, out, settings.GetInt("level")); err != nil {
		return err
	}
	fmt.Printf("%s %s\n", color.GreenString("Compressed"), out)
	return nil
}

func extractFOZ(path, outDir string) error {
	out, err := single.ExtractFOZFile(path, outDir)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", color.GreenString("Extracted"), out)
	return nil
}
