package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/densify/internal/watch"
	"github.com/matzehuels/densify/pkg/emit"
)

// watchCommand creates the watch command for incremental builds.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		flags     settingsFlags
		recursive bool
		initial   bool
	)

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Re-process images whenever they change",
		Long: `Watch a directory and process every image that is created or modified.
Events are debounced so that editors writing a file in several steps trigger
a single build. The output directory is never watched.`,
		Example: `  densify watch assets -o dist/img
  densify watch assets -r --initial=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.load(cmd)
			if err != nil {
				return err
			}
			return c.runWatch(cmd.Context(), s, args[0], recursive, initial, flags.refresh)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "watch subdirectories")
	cmd.Flags().BoolVar(&initial, "initial", true, "process existing images on startup")
	return cmd
}

func (c *CLI) runWatch(ctx context.Context, s *settings, dir string, recursive, initial, refresh bool) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	absOut, err := filepath.Abs(s.cfg.Output.Dir)
	if err != nil {
		return err
	}
	if absOut == absDir {
		return fmt.Errorf("output directory %s must differ from the watched directory", s.cfg.Output.Dir)
	}

	sink, err := emit.NewDirSink(absOut)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, s, sink, refresh)
	if err != nil {
		return err
	}
	defer runner.Close()

	handler := func(ctx context.Context, path string) error {
		logger := loggerFromContext(ctx)
		result, err := runner.ProcessFile(ctx, path, s.loader)
		if err != nil {
			return err
		}
		out, err := writeDescriptor(s.cfg, path, result.Descriptor)
		if err != nil {
			return err
		}
		logger.Info("built", "file", filepath.Base(path), "variants", len(result.Variants), "descriptor", out)
		return nil
	}

	w, err := watch.New(absDir, handler, watch.Options{
		Recursive: recursive,
		Initial:   initial,
		Ignore:    []string{absOut},
		Logger:    c.Logger,
	})
	if err != nil {
		return err
	}

	printInfo("Watching %s", StyleHighlight.Render(dir))
	printDetail("Output: %s", s.cfg.Output.Dir)
	return w.Run(withLogger(ctx, c.Logger))
}
