package main

import (
	"fmt"

	"go.miragespace.co/transform/capabilities"

	"github.com/spf13/cobra"
)

func newPairsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pairs",
		Short: "List the supported from/to pairs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, p := range capabilities.Supported() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.From, p.To)
			}
			return nil
		},
	}
}
