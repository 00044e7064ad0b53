package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/yosssi/gohtml"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/stencil/pkg/errors"
)

var (
	modelFile string
	rawOutput bool
)

func init() {
	render := &cobra.Command{
		Use:   "render <template-id>",
		Short: "Render a template with a model",
		Long: `Render a template and print the resulting markup.

The model is read from a YAML file (--model, "-" for stdin) and bound as
the model of the panel that owns the template. Output is indented unless
--raw is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.OutOrStdout(), args[0])
		},
	}
	render.Flags().StringVarP(&modelFile, "model", "m", "", "YAML `file` holding the model")
	render.Flags().BoolVar(&rawOutput, "raw", false, "print markup without indentation")
	RegisterCommand(render)
}

func runRender(out io.Writer, id string) error {
	p, err := openProject()
	if err != nil {
		return err
	}
	model, err := readModel(modelFile)
	if err != nil {
		return err
	}
	markup, err := p.rt.RenderString(p.qualify(id), model)
	if err != nil {
		return err
	}
	if !rawOutput {
		markup = gohtml.Format(markup)
	}
	_, err = fmt.Fprintln(out, markup)
	return err
}

// readModel decodes a YAML model file. An empty path means no model.
func readModel(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var model map[string]any
	if err := yaml.NewDecoder(r).Decode(&model); err != nil && err != io.EOF {
		return nil, errors.Wrap("stencil.readModel", errors.KindConfig, path, err)
	}
	return model, nil
}
