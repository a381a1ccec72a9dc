package main

import (
	"fmt"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"nnrunner/internal/device"
	"nnrunner/pkg/types"
)

func newLayersCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "layers",
		Short: "List the layer artifacts and their arena requirements",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadRegistry()
			if err != nil {
				return err
			}
			infos := device.LayerInfos(reg)
			if asJSON {
				b, err := json.MarshalIndent(types.LayersResponse{Layers: infos}, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(a.out, string(b))
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "INDEX\tNAME\tSCHEMA\tINPUT\tOUTPUT\tOPS\tARENA\tSIZE")
			for _, l := range infos {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%dx%d\t%d\t%d\t%d\t%d\n",
					l.Index, l.Name, l.SchemaVersion, l.InputHeight, l.InputWidth, l.OutputSize, l.Ops, l.ArenaBytes, l.SizeBytes)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}
