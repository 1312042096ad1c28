// Command zpack unpacks and repacks ZPACK archives and the standalone GST
// and FOZ files that ship with them.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meigma/zpack"
)

var cmdMain = &cobra.Command{
	Use:               "zpack",
	Short:             "Unpack and repack ZPACK archives",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// settings holds flag values layered over ZPACK_* environment variables.
var settings = viper.New()

var logger = slog.New(slog.DiscardHandler)

func init() {
	flags := cmdMain.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Log debug detail to stderr")
	flags.BoolP("quiet", "q", false, "Do not print progress")
	flags.Bool("no-color", false, "Disable colored output")
	flags.IntP("workers", "j", 0, "Entries extracted in parallel (<0 serial, 0 auto)")
	flags.IntP("level", "l", zpack.DefaultLevel, "zlib compression level (-2..9)")
	flags.String("header-name", zpack.DefaultHeaderName, "Header file name of an archive")
	flags.String("data-name", zpack.DefaultDataName, "Data file name of an archive")

	settings.SetEnvPrefix("zpack")
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	settings.AutomaticEnv()
	if err := settings.BindPFlags(flags); err != nil {
		panic(err)
	}
}

func setup(*cobra.Command, []string) error {
	level := slog.LevelWarn
	if settings.GetBool("verbose") {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if settings.GetBool("no-color") {
		color.NoColor = true
	}
	if l := settings.GetInt("level"); l < zpack.MinLevel || l > zpack.MaxLevel {
		return fmt.Errorf("%w: %d", zpack.ErrInvalidLevel, l)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cmdMain.ExecuteContext(ctx)
	stop()
	if err != nil {
		fatalf("%v", err)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, color.RedString("Error: ")+format+"\n", args...)
	os.Exit(1)
}
