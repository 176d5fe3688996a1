package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/SentientPlayer/internal/config"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of engine.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := config.Schema()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}
