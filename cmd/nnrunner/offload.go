package main

import (
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"nnrunner/internal/engine"
	"nnrunner/internal/offload"
	"nnrunner/internal/wire"
)

func newOffloadCmd(a *app) *cobra.Command {
	var (
		depth int
		input string
	)
	cmd := &cobra.Command{
		Use:     "offload",
		Short:   "Run layers 0..depth locally and print the result message",
		Example: "  nnrunner offload --depth 2\n  nnrunner offload --depth 4 --input 0123...",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadRegistry()
			if err != nil {
				return err
			}
			eng, err := engine.New(engine.Config{ArenaBytes: a.cfg.ArenaBytes})
			if err != nil {
				return err
			}
			if input == "" {
				input = strings.Repeat("0", a.cfg.ImageHeight*a.cfg.ImageWidth)
			}
			grid, err := wire.ParseInputData(input, a.cfg.ImageHeight, a.cfg.ImageWidth)
			if err != nil {
				return err
			}
			s, err := offload.New(reg, eng).Execute(depth, grid)
			if err != nil {
				return fmt.Errorf("%s: %w", offload.ErrorKind(err), err)
			}
			r, err := offload.Assemble(s)
			if err != nil {
				return err
			}
			msg := wire.NewResult(a.cfg.DeviceID, wire.NewMessageID(), time.Now(), r)
			b, err := json.MarshalIndent(msg, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, string(b))
			return err
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 0, "Offloading layer index (layers 0..depth run)")
	cmd.Flags().StringVar(&input, "input", "", "Input grid as height*width digits (default: all zeros)")
	return cmd
}
