package main

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"screen-grab/src/config"
	"screen-grab/src/eventloop"
	"screen-grab/src/export"
	"screen-grab/src/messages"
	"screen-grab/src/session"
)

func newScriptCmd(opts *cliOptions) *cobra.Command {
	var (
		file   string
		inputs []string
		watch  bool
	)
	cmd := &cobra.Command{
		Use:   "script",
		Short: "Feed input events to a session, one per line",
		Long: `Reads events from --file or stdin and runs them through the event loop:

  screen N | capture | down X Y | move X Y | drag DX DY | up X Y
  mode main|cropping | confirm | export [FORMAT|default] [PATH] | copy | quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("failed to open script %s: %w", file, err)
				}
				defer f.Close()
				in = f
			}
			return runScript(cmd.Context(), in, cmd.OutOrStdout(), *opts, inputs, watch)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Script file (use '-' for stdin)")
	cmd.Flags().StringSliceVar(&inputs, "input", nil, "Image files to use as screens instead of the display")
	cmd.Flags().BoolVar(&watch, "watch", false, "Reload configuration when its files change")
	return cmd
}

// outcome is one reported result of an asynchronous request.
type outcome struct {
	failure *session.Failure
}

type scriptReporter struct {
	out      io.Writer
	outcomes chan outcome
}

func (r *scriptReporter) OnCaptured(screen int, img *image.RGBA) {
	fmt.Fprintf(r.out, "captured screen %d %dx%d\n", screen, img.Bounds().Dx(), img.Bounds().Dy())
	r.outcomes <- outcome{}
}

func (r *scriptReporter) OnExported(path string) {
	fmt.Fprintf(r.out, "saved %s\n", path)
	r.outcomes <- outcome{}
}

func (r *scriptReporter) OnCopied() {
	fmt.Fprintln(r.out, "copied")
	r.outcomes <- outcome{}
}

func (r *scriptReporter) OnFailure(f session.Failure) {
	fmt.Fprintf(r.out, "error %s: %s\n", f.Category, f.Message)
	r.outcomes <- outcome{failure: &f}
}

func runScript(ctx context.Context, in io.Reader, out io.Writer, opts cliOptions, inputs []string, watch bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rt, err := bootstrap(opts, inputs, true)
	if err != nil {
		return err
	}
	if rt.ClipboardErr != nil {
		log.Printf("script: clipboard unavailable, copy will fail: %v", rt.ClipboardErr)
	}

	rep := &scriptReporter{out: out, outcomes: make(chan outcome, 16)}
	loop := eventloop.New(session.New(rt.Config, rt.Source), rep)
	loopErr := make(chan error, 1)
	go func() { loopErr <- loop.Run(ctx) }()

	if watch {
		files := []string{rt.Config.ConfigFile, rt.Config.EnvFile}
		loadOpts := config.LoadOptions{
			EnvPathOverride:    opts.envFile,
			ConfigFileOverride: opts.configFile,
			SaveFolderOverride: opts.folder,
			FormatOverride:     opts.format,
		}
		go func() {
			err := config.Watch(ctx, loadOpts, files, func(cfg *config.Config, err error) {
				if err == nil {
					loop.Post(messages.ConfigChanged{Config: cfg})
				}
			})
			if err != nil && ctx.Err() == nil {
				log.Printf("script: config watch stopped: %v", err)
			}
		}()
	}

	failures := 0
	sc := bufio.NewScanner(in)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		msg, err := parseEvent(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if !loop.Post(msg) {
			return fmt.Errorf("line %d: event loop is not accepting events", lineNo)
		}
		if _, ok := msg.(messages.DIENOW); ok {
			break
		}
		n, err := settle(ctx, loop, rep, msg, loopErr)
		if err != nil {
			return err
		}
		failures += n
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}
	loop.Post(messages.DIENOW{})
	if err := <-loopErr; err != nil && err != context.Canceled {
		return err
	}
	if failures > 0 {
		return fmt.Errorf("%d event(s) failed", failures)
	}
	return nil
}

// settle waits until msg has been fully handled and returns how many
// failures it produced.
func settle(ctx context.Context, loop *eventloop.Loop, rep *scriptReporter, msg messages.Message, loopErr <-chan error) (int, error) {
	switch msg.(type) {
	case messages.CaptureRequest, messages.ExportRequest, messages.CopyRequest:
		select {
		case o := <-rep.outcomes:
			if o.failure != nil {
				return 1, nil
			}
			return 0, nil
		case err := <-loopErr:
			return 0, fmt.Errorf("event loop stopped: %v", err)
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	done := make(chan struct{})
	if !loop.Post(messages.Sync{Done: done}) {
		return 0, fmt.Errorf("event loop is not accepting events")
	}
	select {
	case <-done:
	case err := <-loopErr:
		return 0, fmt.Errorf("event loop stopped: %v", err)
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	n := 0
	for {
		select {
		case o := <-rep.outcomes:
			if o.failure != nil {
				n++
			}
		default:
			return n, nil
		}
	}
}

func parseEvent(line string) (messages.Message, error) {
	fields := strings.Fields(line)
	verb, args := strings.ToLower(fields[0]), fields[1:]

	point := func() (float64, float64, error) {
		if len(args) != 2 {
			return 0, 0, fmt.Errorf("%s needs two numbers", verb)
		}
		x, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return 0, 0, fmt.Errorf("%s: %w", verb, err)
		}
		y, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return 0, 0, fmt.Errorf("%s: %w", verb, err)
		}
		return x, y, nil
	}

	switch verb {
	case "screen":
		if len(args) != 1 {
			return nil, fmt.Errorf("screen needs an index")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, fmt.Errorf("screen: %w", err)
		}
		return messages.ScreenChange{Index: n}, nil
	case "capture":
		return messages.CaptureRequest{}, nil
	case "down":
		x, y, err := point()
		return messages.PointerDown{X: x, Y: y}, err
	case "move":
		x, y, err := point()
		return messages.PointerMove{X: x, Y: y}, err
	case "drag":
		x, y, err := point()
		return messages.PointerDrag{DX: x, DY: y}, err
	case "up":
		x, y, err := point()
		return messages.PointerUp{X: x, Y: y}, err
	case "mode":
		if len(args) != 1 {
			return nil, fmt.Errorf("mode needs main or cropping")
		}
		switch strings.ToLower(args[0]) {
		case "main":
			return messages.ModeChange{Mode: session.ModeMain}, nil
		case "cropping", "crop":
			return messages.ModeChange{Mode: session.ModeCropping}, nil
		}
		return nil, fmt.Errorf("unknown mode %q", args[0])
	case "confirm":
		return messages.ConfirmCrop{}, nil
	case "copy":
		return messages.CopyRequest{}, nil
	case "export", "save":
		req := messages.ExportRequest{UseDefaultFormat: true}
		if len(args) > 0 && args[0] != "default" {
			f, err := export.ParseFormat(args[0])
			if err != nil {
				return nil, err
			}
			req.Format, req.UseDefaultFormat = f, false
		}
		if len(args) > 1 {
			req.Path = args[1]
		}
		if len(args) > 2 {
			return nil, fmt.Errorf("export takes at most a format and a path")
		}
		return req, nil
	case "quit", "exit":
		return messages.DIENOW{}, nil
	}
	return nil, fmt.Errorf("unknown event %q", verb)
}
