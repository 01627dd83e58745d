// Command armerge merges several ar-format static libraries into one,
// optionally localizing every global symbol that doesn't match a supplied
// keep or remove policy. See SPEC_FULL.md for the full design.
package main

import (
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arl/armerge"
	"github.com/arl/armerge/internal/orderfile"
)

var (
	output       string
	keepPatterns []string
	dropPatterns []string
	orderPath    string
	verbose      bool
	useBuiltin   bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "armerge: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "armerge <lib.a> [lib.a...]",
		Short: "Merge static libraries, optionally hiding non-public symbols",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runMerge,
	}

	flags := cmd.Flags()
	flags.StringVarP(&output, "output", "o", "", "output archive path (required)")
	flags.StringSliceVar(&keepPatterns, "keep-symbols", nil, "regex of symbol names to keep global (repeatable)")
	flags.StringSliceVar(&dropPatterns, "remove-symbols", nil, "regex of symbol names to localize (repeatable)")
	flags.StringVar(&orderPath, "order-file", "", "file listing object base names in desired link order")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log informational output")
	flags.BoolVar(&useBuiltin, "builtin-filter", false, "use the builtin ELF symbol rewriter instead of objcopy")
	cmd.MarkFlagRequired("output")

	return cmd
}

func runMerge(cmd *cobra.Command, args []string) error {
	if len(keepPatterns) > 0 && len(dropPatterns) > 0 {
		return fmt.Errorf("--keep-symbols and --remove-symbols are mutually exclusive")
	}

	log, sync, err := newLogger(verbose)
	if err != nil {
		return err
	}
	defer sync()

	opts := []armerge.Option{armerge.WithLogger(log)}
	if useBuiltin {
		opts = append(opts, armerge.WithBuiltinELFFilter())
	}

	merger, err := armerge.NewFromPaths(args, output, opts...)
	if err != nil {
		return err
	}

	if len(keepPatterns) == 0 && len(dropPatterns) == 0 {
		return merger.MergeSimple()
	}

	keepOrRemove := armerge.KeepMatching
	patterns := keepPatterns
	if len(dropPatterns) > 0 {
		keepOrRemove = armerge.RemoveMatching
		patterns = dropPatterns
	}

	regexes, err := compileAll(patterns)
	if err != nil {
		return err
	}

	var order []string
	if orderPath != "" {
		order, err = orderfile.Parse(orderPath)
		if err != nil {
			return err
		}
	}

	return merger.MergeAndLocalizeOrdered(keepOrRemove, regexes, order)
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	regexes := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid symbol regex %q: %w", p, err)
		}
		regexes = append(regexes, re)
	}
	return regexes, nil
}

// sugaredLogger adapts a *zap.SugaredLogger's Infof to armerge.Logger,
// logging at Warn level when not verbose so the default run stays quiet on
// anything short of an actual problem raised through the logger.
type sugaredLogger struct {
	*zap.SugaredLogger
}

func newLogger(verbose bool) (armerge.Logger, func() error, error) {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("building logger: %w", err)
	}
	return sugaredLogger{l.Sugar()}, l.Sync, nil
}
