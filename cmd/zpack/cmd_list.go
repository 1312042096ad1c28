package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/zpack"
	zpackhttp "github.com/meigma/zpack/http"
)

var cmdList = &cobra.Command{
	Use:   "list <header-or-data-file> | list <header-url> <data-url>",
	Short: "Print the entry table of an archive",
	Long: "Prints the entry table of a local archive, or of one served over HTTP. " +
		"Remote data files must support range requests.",
	Args: cobra.RangeArgs(1, 2),
	RunE: runList,
}

var flagList struct {
	Bytes bool
}

func init() {
	cmdMain.AddCommand(cmdList)

	cmdList.Flags().BoolVar(&flagList.Bytes, "bytes", false, "Print exact byte counts")
}

func runList(_ *cobra.Command, args []string) error {
	r, err := openArchive(args)
	if err != nil {
		return err
	}
	defer r.Close()

	size := humanize.IBytes
	if flagList.Bytes {
		size = func(n uint64) string { return strconv.FormatUint(n, 10) }
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\tNAME\tTAG\tOFFSET\tSIZE\tSTORED\tRATIO\t")
	var total, stored uint64
	for i, d := range r.Descriptors() {
		ratio := "-"
		if d.UncompressedSize > 0 {
			ratio = fmt.Sprintf("%.1f%%", 100*float64(d.CompressedSize)/float64(d.UncompressedSize))
		}
		name := d.Name
		if d.IsDummy() {
			name += " (empty)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\t%s\t%s\t\n",
			i, name, d.Tag, d.Offset, size(uint64(d.UncompressedSize)), size(uint64(d.CompressedSize)), ratio)
		total += uint64(d.UncompressedSize)
		stored += uint64(d.CompressedSize)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Printf("%s entries, %s uncompressed, %s stored\n",
		humanize.Comma(int64(r.Len())), size(total), size(stored))
	return nil
}

func openArchive(args []string) (*zpack.Reader, error) {
	if zpackhttp.IsURL(args[0]) {
		if len(args) != 2 || !zpackhttp.IsURL(args[1]) {
			return nil, errors.New("a remote archive needs both a header and a data URL")
		}
		return zpackhttp.OpenArchive(args[0], args[1], nil, zpack.WithLogger(logger))
	}
	if len(args) == 2 {
		return zpack.OpenFile(args[0], args[1], zpack.WithLogger(logger))
	}
	headerPath, dataPath, err := archivePaths(args[0], settings.GetString("header-name"), settings.GetString("data-name"))
	if err != nil {
		return nil, err
	}
	return zpack.OpenFile(headerPath, dataPath, zpack.WithLogger(logger))
}
