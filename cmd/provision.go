package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/machinae/graphmem/pkg/provider"
)

var (
	overwriteFlag bool

	provisionCmd = &cobra.Command{
		Use:   "provision",
		Short: "Create the memory indexes up front",
		Long:  longProvision,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := buildOptions()
			if overwriteFlag {
				opts = append(opts, provider.WithOverwriteMemoryIndex())
			}

			p, err := provider.New(opts...)
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			if err := p.Connect(ctx); err != nil {
				return err
			}
			defer p.Close(ctx)

			if err := p.ProvisionMemoryIndexes(ctx); err != nil {
				return err
			}

			log.Info("memory indexes provisioned")
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(provisionCmd)

	provisionCmd.Flags().BoolVar(
		&overwriteFlag, "overwrite", false, "Drop and recreate existing memory indexes",
	)
}

var longProvision = `
Create the memory vector and fulltext indexes, plus the scope property
indexes, without waiting for the first write. Provisioning normally happens
lazily on the first stored memory; run this when you want schema changes
applied during a deploy window instead.

Requires at least one scope dimension so the provider knows memory is in use.

Examples:
  graphmem provision --user-id alice
  graphmem provision --user-id alice --overwrite
`
