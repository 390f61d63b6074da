package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/nixscope/nixscope/internal/tui"
	"github.com/nixscope/nixscope/pkg/integrations/nix"
	"github.com/nixscope/nixscope/pkg/nav"
)

var (
	version string // semantic version (e.g., "v1.2.3")
	commit  string // git commit SHA
	date    string // build timestamp
)

// SetVersion sets the version information displayed by --version. Called
// by the main package with values injected via ldflags.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// rootOpts holds flags shared by the browser and the export/report
// subcommands.
type rootOpts struct {
	storeURL   string
	derivation bool
	noCache    bool
}

// load reads the config, builds a store client honoring the flag
// overrides, and assembles the closure for the given installables.
func (o *rootOpts) load(ctx context.Context, installables []string) (*closure, Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, Config{}, err
	}

	storeURL := o.storeURL
	if storeURL == "" {
		storeURL = cfg.Store
	}

	client := nix.NewClient(openCache(cfg, o.noCache), cfg.cacheTTL(), storeURL, o.derivation)
	cl, err := loadClosure(ctx, client, installables)
	if err != nil {
		return nil, Config{}, err
	}
	return cl, cfg, nil
}

// initialSort resolves the starting sort mode: flag, then config, then
// name order.
func initialSort(cfg Config, flag string) (nav.SortMode, error) {
	for _, s := range []string{flag, cfg.Sort} {
		if s == "" {
			continue
		}
		mode, ok := nav.ParseSortMode(s)
		if !ok {
			return nav.SortName, fmt.Errorf("unknown sort mode %q (want name, closure, or added)", s)
		}
		return mode, nil
	}
	return nav.SortName, nil
}

// Execute runs the nixscope CLI.
//
// The root command opens the interactive browser for the closure of the
// given store paths, falling back to the system and user profiles when
// no paths are given. Logging goes to stderr at info level, or debug
// with --verbose.
func Execute(ctx context.Context) error {
	var (
		verbose  bool
		sortFlag string
		opts     rootOpts
	)

	root := &cobra.Command{
		Use:   "nixscope [path...]",
		Short: "nixscope browses the dependency graph of store paths",
		Long: `nixscope is an interactive viewer for the dependency graph of nix store
paths. It shows why a path is in a closure, how much space it keeps
alive, and what would be freed if it disappeared.

Without arguments it inspects the system profile and the current user's
profile. Arguments may be store paths, profiles, or flake references.`,
		Version:      version,
		SilenceUsage: true,
		Args:         cobra.ArbitraryArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, cfg, err := opts.load(cmd.Context(), args)
			if err != nil {
				return err
			}
			mode, err := initialSort(cfg, sortFlag)
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), cl.reg, cl.graph, cl.roots, mode)
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("nixscope %s\ncommit: %s\nbuilt: %s\n", version, commit, date))

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&opts.storeURL, "store", "", "store URL to query (default: local daemon)")
	root.PersistentFlags().BoolVar(&opts.derivation, "derivation", false, "operate on derivation paths instead of outputs")
	root.PersistentFlags().BoolVar(&opts.noCache, "no-cache", false, "skip the metadata cache")
	root.Flags().StringVar(&sortFlag, "sort", "", "initial sort mode: name, closure, or added")

	root.AddCommand(newExportCmd(&opts))
	root.AddCommand(newSizesCmd(&opts))
	root.AddCommand(newCacheCmd())
	root.AddCommand(newCompletionCmd())

	return root.ExecuteContext(ctx)
}
