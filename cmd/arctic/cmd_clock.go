package main

import (
	"github.com/spf13/cobra"

	"github.com/ctitools/arctic"
	"github.com/ctitools/arctic/internal/config"
)

// clockFlags are shared by add and remove.
type clockFlags struct {
	configPath string
	scale      float64
}

func (f *clockFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "YAML model configuration")
	cmd.Flags().Float64Var(&f.scale, "scale", 1, "electrons per TIFF count")
	_ = cmd.MarkFlagRequired("config")
}

// load reads the configuration and input image for a clocking command.
func (f *clockFlags) load(a *app, cmd *cobra.Command, input string) (config.Config, *arctic.Image, error) {
	c, err := config.Load(f.configPath)
	if err != nil {
		return c, nil, err
	}
	if err := a.resolve(cmd, &c); err != nil {
		return c, nil, err
	}
	img, err := readImage(input, f.scale)
	if err != nil {
		return c, nil, err
	}
	return c, img, nil
}

func newAddCmd(a *app) *cobra.Command {
	var f clockFlags
	cmd := &cobra.Command{
		Use:   "add <input> <output>",
		Short: "Add CTI trails to an image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, img, err := f.load(a, cmd, args[0])
			if err != nil {
				return err
			}
			parallel, serial, err := c.ClockConfigs()
			if err != nil {
				return err
			}
			out, err := arctic.AddCTI(img, parallel, serial, a.options(c)...)
			if err != nil {
				return err
			}
			if err := writeImage(args[1], out, f.scale); err != nil {
				return err
			}
			if c.Verbosity > 0 {
				w := cmd.OutOrStdout()
				summarize(w, "input", img)
				summarize(w, "output", out)
			}
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	var (
		f          clockFlags
		iterations int
	)
	cmd := &cobra.Command{
		Use:   "remove <input> <output>",
		Short: "Remove CTI trails from an image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, img, err := f.load(a, cmd, args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("iterations") {
				c.Iterations = iterations
			}
			parallel, serial, err := c.ClockConfigs()
			if err != nil {
				return err
			}
			out, err := arctic.RemoveCTI(img, c.Iterations, parallel, serial, a.options(c)...)
			if err != nil {
				return err
			}
			if err := writeImage(args[1], out, f.scale); err != nil {
				return err
			}
			if c.Verbosity > 0 {
				w := cmd.OutOrStdout()
				summarize(w, "input", img)
				summarize(w, "corrected", out)
			}
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().IntVarP(&iterations, "iterations", "n", 0, "forward-model iterations (overrides the config file)")
	return cmd
}
