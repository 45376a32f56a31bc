package main

import (
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ctitools/arctic"
	"github.com/ctitools/arctic/internal/config"
)

// demoImage is a diagonal of three 200-electron pixels.
func demoImage() *arctic.Image {
	return arctic.MustImage([][]float64{
		{0, 0, 0, 0},
		{200, 0, 0, 0},
		{0, 200, 0, 0},
		{0, 0, 200, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	})
}

func newDemoCmd(a *app) *cobra.Command {
	var (
		outputDir  string
		saveConfig string
		iterations int
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Add then remove CTI on a small test image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := config.Demo()
			c.Iterations = iterations
			if err := a.resolve(cmd, &c); err != nil {
				return err
			}
			if saveConfig != "" {
				if err := c.Save(saveConfig); err != nil {
					return err
				}
			}
			parallel, serial, err := c.ClockConfigs()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			pre := demoImage()
			post, err := arctic.AddCTI(pre, parallel, serial, a.options(c)...)
			if err != nil {
				return err
			}
			removed, err := arctic.RemoveCTI(post, c.Iterations, parallel, serial, a.options(c)...)
			if err != nil {
				return err
			}

			if c.Verbosity > 0 {
				printImage(w, "Test image", pre)
				printImage(w, "Image with CTI added", post)
				printImage(w, "Image with CTI removed", removed)
			}

			if outputDir == "" {
				return nil
			}
			for name, img := range map[string]*arctic.Image{
				"image_test_pre_cti.txt":     pre,
				"image_test_post_cti.txt":    post,
				"image_test_cti_removed.txt": removed,
			} {
				if err := writeImage(filepath.Join(outputDir, name), img, 1); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "also save the three images as text files here")
	cmd.Flags().StringVar(&saveConfig, "save-config", "", "write the demo model configuration as YAML")
	cmd.Flags().IntVarP(&iterations, "iterations", "n", 3, "remove_cti iterations")
	return cmd
}

func printImage(w io.Writer, title string, img *arctic.Image) {
	p := printer()
	p.Fprintf(w, "\n# %s\n", title)
	for i := range img.Rows() {
		for _, v := range img.Row(i) {
			p.Fprintf(w, "%9.3f ", v)
		}
		p.Fprintln(w)
	}
}
