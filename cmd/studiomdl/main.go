// studiomdl compiles a QC script and its SMD and BMP sources into a studio
// model file.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/studiomdl/internal/compiler"
	"github.com/Faultbox/studiomdl/internal/config"
	"github.com/Faultbox/studiomdl/internal/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("studiomdl", flag.ContinueOnError)
	fs.Usage = func() { printUsage(fs) }
	var flags config.Flags
	flags.Register(fs)
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := config.Load(&flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if flags.WriteConfig != "" {
		if err := cfg.WriteFile(flags.WriteConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	if fs.NArg() != 1 || !strings.HasSuffix(strings.ToLower(fs.Arg(0)), ".qc") {
		printUsage(fs)
		return 1
	}
	script := fs.Arg(0)

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: init logger: %v\n", err)
		return 1
	}
	defer logger.Sync()
	logger.With(zap.String("run", uuid.NewString()), zap.String("script", script))

	c := compiler.New(cfg)
	if err := c.Run(script); err != nil {
		logger.Error("compile failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	logger.Info("compile finished", zap.String("output", c.OutPath))
	return 0
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintln(os.Stderr, `studiomdl - studio model compiler

Usage:
  studiomdl [options] <file.qc>

Options:`)
	fs.PrintDefaults()
}
