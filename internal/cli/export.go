package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nixscope/nixscope/pkg/render"
)

// newExportCmd creates the export command, which writes the dependency
// graph as a DOT, SVG, or PNG file.
func newExportCmd(opts *rootOpts) *cobra.Command {
	var (
		output   string
		format   string
		depth    int
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "export [path...]",
		Short: "Export the dependency graph as DOT, SVG, or PNG",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cl, _, err := opts.load(ctx, args)
			if err != nil {
				return err
			}

			if format == "" {
				format = formatFromPath(output)
			}

			dot := render.ToDOT(cl.graph, cl.reg, cl.roots, render.Options{
				Detailed: detailed,
				MaxDepth: depth,
			})

			var data []byte
			switch format {
			case "dot":
				data = []byte(dot)
			case "svg":
				data, err = render.RenderSVG(ctx, dot)
			case "png":
				data, err = render.RenderPNG(ctx, dot)
			default:
				return fmt.Errorf("unsupported format %q (want dot, svg, or png)", format)
			}
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			printSuccess("Exported %d paths", cl.reg.Len())
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: dot, svg, or png (default: from file extension)")
	cmd.Flags().IntVar(&depth, "depth", 0, "limit the graph to this many levels below the roots (0 = all)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include nar and closure sizes in node labels")

	return cmd
}

// formatFromPath guesses the export format from the output extension,
// defaulting to DOT text.
func formatFromPath(output string) string {
	switch strings.ToLower(filepath.Ext(output)) {
	case ".svg":
		return "svg"
	case ".png":
		return "png"
	default:
		return "dot"
	}
}
