package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"screen-grab/src/clipboard"
	"screen-grab/src/config"
	"screen-grab/src/export"
	"screen-grab/src/logutil"
	"screen-grab/src/runtimeinit"
	"screen-grab/src/screenshot"
	"screen-grab/src/selection"
	"screen-grab/src/session"
)

type cliOptions struct {
	configFile string
	envFile    string
	folder     string
	format     string
	verbose    bool
}

type grabOptions struct {
	screen int
	rect   string
	out    string
	copy   bool
	inputs []string
}

func main() {
	if err := runWithArgs(normalizeLegacyArgs(os.Args)); err != nil {
		f := session.Describe(err)
		if f.Category == session.CategoryUnknown {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error (%s): %v\n", f.Category, err)
		}
		os.Exit(1)
	}
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"grab"}
	}
	cmd := newRootCmd(&cliOptions{})
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "grab",
		Short:         "Capture, crop and save screenshots",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "Path to grab.yaml (highest precedence file)")
	pf.StringVar(&opts.envFile, "env", "", "Path to .env file")
	pf.StringVar(&opts.folder, "folder", "", "Save folder override")
	pf.StringVar(&opts.format, "format", "", "Output format: png, jpeg or gif")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")

	cmd.AddCommand(newScreensCmd(opts), newCaptureCmd(opts), newCropCmd(opts), newScriptCmd(opts))
	return cmd
}

func newScreensCmd(opts *cliOptions) *cobra.Command {
	var inputs []string
	cmd := &cobra.Command{
		Use:   "screens",
		Short: "List the screens that can be captured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(*opts, inputs, false)
			if err != nil {
				return err
			}
			for _, d := range screenshot.ListDisplays(rt.Source) {
				b := d.Bounds
				fmt.Fprintf(cmd.OutOrStdout(), "%d: %dx%d at (%d,%d)\n", d.Index, b.Dx(), b.Dy(), b.Min.X, b.Min.Y)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&inputs, "input", nil, "Image files to use as screens instead of the display")
	return cmd
}

func newCaptureCmd(opts *cliOptions) *cobra.Command {
	g := &grabOptions{}
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture a screen, optionally crop it, and save it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrab(cmd.Context(), cmd.OutOrStdout(), *opts, *g)
		},
	}
	cmd.Flags().IntVar(&g.screen, "screen", -1, "Screen index (default from config)")
	cmd.Flags().StringVar(&g.rect, "rect", "", "Selection as left,top,right,bottom in image pixels")
	cmd.Flags().StringVarP(&g.out, "out", "o", "", "Output path (default: fresh name in the save folder)")
	cmd.Flags().BoolVar(&g.copy, "copy", false, "Also copy the result to the clipboard")
	cmd.Flags().StringSliceVar(&g.inputs, "input", nil, "Image files to use as screens instead of the display")
	return cmd
}

func newCropCmd(opts *cliOptions) *cobra.Command {
	g := &grabOptions{}
	cmd := &cobra.Command{
		Use:   "crop",
		Short: "Crop an existing image file and save it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(g.inputs) == 0 {
				return errors.New("--input is required")
			}
			g.inputs = g.inputs[:1]
			g.screen = 0
			return runGrab(cmd.Context(), cmd.OutOrStdout(), *opts, *g)
		},
	}
	cmd.Flags().StringSliceVar(&g.inputs, "input", nil, "Image file to crop")
	cmd.Flags().StringVar(&g.rect, "rect", "", "Selection as left,top,right,bottom in image pixels")
	cmd.Flags().StringVarP(&g.out, "out", "o", "", "Output path (default: fresh name in the save folder)")
	cmd.Flags().BoolVar(&g.copy, "copy", false, "Also copy the result to the clipboard")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func bootstrap(opts cliOptions, inputs []string, withClipboard bool) (*runtimeinit.Runtime, error) {
	var src screenshot.Source
	if len(inputs) > 0 {
		static, err := screenshot.LoadStaticSource(inputs...)
		if err != nil {
			return nil, err
		}
		src = static
	}
	return runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions: config.LoadOptions{
			EnvPathOverride:    opts.envFile,
			ConfigFileOverride: opts.configFile,
			SaveFolderOverride: opts.folder,
			FormatOverride:     opts.format,
		},
		SetupLogging: func(enable bool, dir string) {
			if opts.verbose {
				log.SetOutput(os.Stderr)
				return
			}
			logutil.Setup(enable, dir)
		},
		Source:        src,
		SkipClipboard: !withClipboard,
	})
}

// runGrab drives one capture-crop-export pass through the session, the
// same way the interactive shell does.
func runGrab(ctx context.Context, out io.Writer, opts cliOptions, g grabOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := bootstrap(opts, g.inputs, false)
	if err != nil {
		return err
	}
	ctrl := session.New(rt.Config, rt.Source)
	if g.screen >= 0 {
		if err := ctrl.SelectScreen(g.screen); err != nil {
			return err
		}
	}
	if err := ctrl.BeginCapture(); err != nil {
		return err
	}

	if strings.TrimSpace(g.rect) != "" {
		r, err := parseRect(g.rect)
		if err != nil {
			return err
		}
		// press, drag and release like a pointer would
		ctrl.PointerDown(selection.Point{X: r.Left, Y: r.Top})
		ctrl.PointerMove(selection.Point{X: r.Right, Y: r.Bottom})
		if _, ok := ctrl.PointerUp(selection.Point{X: r.Right, Y: r.Bottom}); !ok {
			return fmt.Errorf("%w: %s", export.ErrEmptySelection, g.rect)
		}
	} else {
		ctrl.ReturnToMain()
	}

	format := rt.Config.SaveFormat
	if opts.format == "" && g.out != "" {
		if f, ok := export.FormatFromPath(g.out); ok {
			format = f
		}
	}

	if g.copy {
		img, err := ctrl.CroppedImage()
		if err != nil {
			return err
		}
		if err := clipboard.WriteImage(img); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, ctrl.Deadline())
	defer cancel()
	path, err := ctrl.Export(ctx, format, g.out)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, path)
	return nil
}

// parseRect reads "left,top,right,bottom". Whitespace and x separators are
// accepted too.
func parseRect(s string) (selection.Rect, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == 'x' || r == ':'
	})
	if len(fields) != 4 {
		return selection.Rect{}, fmt.Errorf("invalid rectangle %q: want left,top,right,bottom", s)
	}
	var v [4]float64
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return selection.Rect{}, fmt.Errorf("invalid rectangle %q: %w", s, err)
		}
		v[i] = n
	}
	return selection.Rect{Left: v[0], Top: v[1], Right: v[2], Bottom: v[3]}, nil
}

// normalizeLegacyArgs turns single-dash long flags (-screen 1) into the
// double-dash form cobra expects.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}
	normalized := make([]string, len(args))
	copy(normalized, args)
	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		if arg == "--" {
			break
		}
		if len(arg) > 2 && arg[0] == '-' && arg[1] != '-' && !isNumber(arg) {
			name := arg[1:]
			if j := strings.IndexByte(name, '='); j >= 0 {
				name = name[:j]
			}
			if len(name) > 1 {
				normalized[i] = "-" + arg
			}
		}
	}
	return normalized
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
