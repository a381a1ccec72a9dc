package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func newPullCmd(a *app) *cobra.Command {
	var (
		bucket    string
		prefix    string
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:     "pull",
		Short:   "Download layer artifacts from a GCS bucket into --layers-dir",
		Example: "  nnrunner pull --bucket my-models --prefix mnist/v3/ --layers-dir ~/layers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("bucket") {
				a.cfg.GCSBucket = bucket
			}
			if cmd.Flags().Changed("prefix") {
				a.cfg.GCSPrefix = prefix
			}
			if a.cfg.GCSBucket == "" || a.cfg.LayersDir == "" {
				return errors.New("pull requires a bucket and --layers-dir")
			}
			return a.pull(cmd.Context(), overwrite)
		},
	}
	cmd.Flags().StringVar(&bucket, "bucket", "", "GCS bucket name")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Object prefix within the bucket")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace artifacts already present locally")
	return cmd
}
