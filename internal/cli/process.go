package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/densify/pkg/emit"
	"github.com/matzehuels/densify/pkg/pipeline"
)

// processCommand creates the process command for one-shot builds.
func (c *CLI) processCommand() *cobra.Command {
	var flags settingsFlags

	cmd := &cobra.Command{
		Use:   "process <image>...",
		Short: "Derive density variants and write descriptors",
		Long: `Derive the density variants of each image, write them to the output
directory under content-addressed names and write a descriptor per image.

The density is read from the filename: logo@2x.png yields a 1x and a 2x
variant. Images without a suffix are treated as 1x.`,
		Example: `  densify process logo@2x.png
  densify process -o public/img --public-path /img/ --markup --attr alt=Logo logo@3x.png
  densify process -f module --option includeMarkup=false icons/*.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.load(cmd)
			if err != nil {
				return err
			}
			return c.runProcess(cmd.Context(), s, args, flags.refresh)
		},
	}

	flags.register(cmd)
	return cmd
}

func (c *CLI) runProcess(ctx context.Context, s *settings, paths []string, refresh bool) error {
	sink, err := emit.NewDirSink(s.cfg.Output.Dir)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, s, sink, refresh)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	for _, path := range paths {
		if err := c.processOne(ctx, runner, s, path); err != nil {
			return err
		}
	}
	prog.done(fmt.Sprintf("Processed %d image(s)", len(paths)))
	return nil
}

// processOne runs the pipeline for path and writes its descriptor.
func (c *CLI) processOne(ctx context.Context, runner *pipeline.Runner, s *settings, path string) error {
	spinner := newSpinnerWithContext(ctx, "Processing "+path+"...")
	spinner.Start()

	result, err := runner.ProcessFile(ctx, path, s.loader)
	if err != nil {
		spinner.StopWithError(path)
		return fmt.Errorf("%s: %w", path, err)
	}

	out, err := writeDescriptor(s.cfg, path, result.Descriptor)
	if err != nil {
		spinner.StopWithError(path)
		return err
	}

	spinner.StopWithSuccess(path)
	printStats(result)
	for _, v := range result.Variants {
		printFile(v.Name)
	}
	printFile(out)
	return nil
}
