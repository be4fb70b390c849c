package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/machinae/graphmem/pkg/provider"
	"github.com/machinae/graphmem/pkg/retriever"
)

var (
	memoriesFlag bool

	searchCmd = &cobra.Command{
		Use:   "search [query]",
		Short: "Run a one-shot retrieval against the knowledge index or memory",
		Long:  longSearch,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			p, err := provider.New(buildOptions()...)
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			if err := p.Connect(ctx); err != nil {
				return err
			}
			defer p.Close(ctx)

			if memoriesFlag {
				records, err := p.SearchMemories(ctx, query)
				if err != nil {
					return err
				}
				for _, record := range records {
					fmt.Println(record.ContextLine())
				}
				return nil
			}

			result, err := p.Search(ctx, query)
			if err != nil {
				return err
			}
			for _, block := range retriever.FormatResult(result) {
				fmt.Println(block)
			}
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().BoolVar(
		&memoriesFlag, "memories", false, "Search stored memories instead of the knowledge index",
	)
}

var longSearch = `
Run a single retrieval and print the formatted results, one block per line.

Examples:
  # Vector search (requires an OpenAI API key for query embedding)
  graphmem search --index document_embeddings "shipping delays"

  # Fulltext search needs no embedder
  graphmem search --index document_fulltext --kind fulltext "shipping delays"

  # Search a user's conversation memory
  graphmem search --memories --user-id alice "favourite colour"
`
