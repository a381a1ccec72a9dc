package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"nnrunner/internal/engine"
	"nnrunner/internal/registry"
)

func newPackCmd(a *app) *cobra.Command {
	var (
		index int
		out   string
	)
	cmd := &cobra.Command{
		Use:     "pack <definition.yaml|json|toml>",
		Short:   "Compile a layer definition into a .nnl artifact",
		Example: "  nnrunner pack layer.yaml --index 0 --out layers/",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := registry.LoadDefinition(args[0])
			if err != nil {
				return fmt.Errorf("load definition: %w", err)
			}
			name := registry.FileName(index)
			art, err := def.Compile(index, name)
			if err != nil {
				return err
			}
			b, err := registry.Encode(art)
			if err != nil {
				return err
			}
			dst := out
			if dst == "" {
				dst = name
			} else if fi, err := os.Stat(dst); err == nil && fi.IsDir() {
				dst = filepath.Join(dst, name)
			}
			if err := os.WriteFile(dst, b, 0o644); err != nil {
				return err
			}
			if need := engine.Requirement(art); need > a.cfg.ArenaBytes {
				a.log.Warn().Int("need", need).Int("arena_bytes", a.cfg.ArenaBytes).Msg("artifact exceeds configured arena")
			}
			_, err = fmt.Fprintf(a.out, "wrote %s (%d bytes, output %d, arena %d bytes)\n", dst, len(b), art.OutputSize(), engine.Requirement(art))
			return err
		},
	}
	cmd.Flags().IntVar(&index, "index", 0, "Layer index of the artifact")
	cmd.Flags().StringVar(&out, "out", "", "Output file or directory (default: ./layer_<index>.nnl)")
	return cmd
}
