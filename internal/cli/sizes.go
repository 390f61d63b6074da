package cli

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nixscope/nixscope/pkg/sizes"
	"github.com/nixscope/nixscope/pkg/store"
)

// newSizesCmd creates the sizes command, a non-interactive report of the
// heaviest paths in a closure.
func newSizesCmd(opts *rootOpts) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "sizes [path...]",
		Short: "Report the heaviest paths in a closure",
		Long: `Prints the paths with the largest closure sizes, and the added size of
each direct dependency of the roots: the space that would be freed if
that dependency alone disappeared from the closure.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, _, err := opts.load(cmd.Context(), args)
			if err != nil {
				return err
			}

			engine := sizes.New(cl.graph, cl.reg)

			byClosure := make([]store.Index, cl.reg.Len())
			for i := range byClosure {
				byClosure[i] = store.Index(i)
			}
			sort.Slice(byClosure, func(a, b int) bool {
				ca, cb := engine.ClosureSize(byClosure[a]), engine.ClosureSize(byClosure[b])
				if ca != cb {
					return ca > cb
				}
				return cl.reg.DisplayName(byClosure[a]) < cl.reg.DisplayName(byClosure[b])
			})
			if len(byClosure) > top {
				byClosure = byClosure[:top]
			}

			fmt.Println(StyleTitle.Render("Largest closures"))
			for _, i := range byClosure {
				info := cl.reg.Info(i)
				fmt.Printf("  %s  %s %s\n",
					StyleNumber.Render(fmt.Sprintf("%10s", humanize.Bytes(uint64(engine.ClosureSize(i))))),
					StyleValue.Render(cl.reg.DisplayName(i)),
					StyleDim.Render(fmt.Sprintf("(nar %s)", humanize.Bytes(uint64(info.NarSize)))))
			}

			deps := directDependencies(cl)
			if len(deps) == 0 {
				return nil
			}
			ctx := engine.NewContext(deps)
			sort.Slice(deps, func(a, b int) bool {
				aa, _ := ctx.AddedSize(deps[a])
				ab, _ := ctx.AddedSize(deps[b])
				if aa != ab {
					return aa > ab
				}
				return cl.reg.DisplayName(deps[a]) < cl.reg.DisplayName(deps[b])
			})
			if len(deps) > top {
				deps = deps[:top]
			}

			fmt.Println()
			fmt.Println(StyleTitle.Render("Added size of direct dependencies"))
			for _, i := range deps {
				added, _ := ctx.AddedSize(i)
				fmt.Printf("  %s  %s\n",
					StyleNumber.Render(fmt.Sprintf("%10s", humanize.Bytes(uint64(added)))),
					StyleValue.Render(cl.reg.DisplayName(i)))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&top, "top", "n", 20, "number of entries per section")

	return cmd
}

// directDependencies returns the deduplicated direct dependencies of all
// roots.
func directDependencies(cl *closure) []store.Index {
	seen := make(map[store.Index]bool)
	var deps []store.Index
	for _, r := range cl.roots {
		for _, d := range cl.graph.Dependencies(r) {
			if !seen[d] {
				seen[d] = true
				deps = append(deps, d)
			}
		}
	}
	return deps
}
