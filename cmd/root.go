/*
Package cmd implements the graphmem command-line interface. It provides
commands for one-shot knowledge and memory retrieval and for provisioning the
memory indexes, sharing the same provider configuration the library exposes.
*/
package cmd

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/machinae/graphmem/pkg/embedding"
	"github.com/machinae/graphmem/pkg/memory"
	"github.com/machinae/graphmem/pkg/provider"
	"github.com/machinae/graphmem/pkg/retriever"
)

var (
	uriFlag       string
	usernameFlag  string
	passwordFlag  string
	indexFlag     string
	kindFlag      string
	fulltextFlag  string
	topKFlag      int
	userIDFlag    string
	agentIDFlag   string
	threadIDFlag  string
	appIDFlag     string
	verboseFlag   bool
	openaiKeyFlag string

	rootCmd = &cobra.Command{
		Use:   "graphmem",
		Short: "Graph-backed context retrieval and memory for conversational agents",
		Long:  longRoot,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verboseFlag {
				log.SetLevel(log.DebugLevel)
			}
		},
	}
)

/*
Execute is the main entry point for the graphmem CLI.
*/
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&uriFlag, "uri", "", "Store URI (default: NEO4J_URI)",
	)
	rootCmd.PersistentFlags().StringVar(
		&usernameFlag, "username", "", "Store username (default: NEO4J_USERNAME)",
	)
	rootCmd.PersistentFlags().StringVar(
		&passwordFlag, "password", "", "Store password (default: NEO4J_PASSWORD)",
	)
	rootCmd.PersistentFlags().StringVar(
		&indexFlag, "index", "", "Knowledge index name (default: NEO4J_INDEX_NAME)",
	)
	rootCmd.PersistentFlags().StringVar(
		&kindFlag, "kind", "vector", "Search kind: vector, fulltext or hybrid",
	)
	rootCmd.PersistentFlags().StringVar(
		&fulltextFlag, "fulltext-index", "", "Secondary fulltext index for hybrid search",
	)
	rootCmd.PersistentFlags().IntVar(
		&topKFlag, "top-k", 5, "Number of results to retrieve",
	)
	rootCmd.PersistentFlags().StringVar(
		&appIDFlag, "application-id", "", "Scope memories to an application",
	)
	rootCmd.PersistentFlags().StringVar(
		&agentIDFlag, "agent-id", "", "Scope memories to an agent",
	)
	rootCmd.PersistentFlags().StringVar(
		&userIDFlag, "user-id", "", "Scope memories to a user",
	)
	rootCmd.PersistentFlags().StringVar(
		&threadIDFlag, "thread-id", "", "Scope memories to a thread",
	)
	rootCmd.PersistentFlags().StringVar(
		&openaiKeyFlag, "openai-api-key", os.Getenv("OPENAI_API_KEY"),
		"API key for the OpenAI embedder",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verboseFlag, "verbose", "v", false, "Enable debug logging",
	)
}

/*
buildOptions assembles the shared provider options from the persistent flags.
Memory is enabled whenever at least one scope dimension is set.
*/
func buildOptions() []provider.Option {
	opts := []provider.Option{
		provider.WithConnection(uriFlag, usernameFlag, passwordFlag),
		provider.WithTopK(topKFlag),
	}

	opts = append(opts, provider.WithIndex(indexFlag, retriever.Kind(kindFlag)))

	if fulltextFlag != "" {
		opts = append(opts, provider.WithFulltextIndex(fulltextFlag))
	}

	if openaiKeyFlag != "" {
		opts = append(opts, provider.WithEmbedder(embedding.NewOpenAIEmbedder(openaiKeyFlag)))
	}

	scope := memory.ScopeConfig{
		ApplicationID: appIDFlag,
		AgentID:       agentIDFlag,
		UserID:        userIDFlag,
		ThreadID:      threadIDFlag,
	}
	if scope.HasAny() {
		opts = append(opts, provider.WithMemory(""), provider.WithScope(scope))
	}

	return opts
}

var longRoot = `
graphmem retrieves context from a Neo4j knowledge graph and persists
conversation memory into it, scoped to your application, agent, user or
thread.

Connection settings fall back to the NEO4J_URI, NEO4J_USERNAME,
NEO4J_PASSWORD and NEO4J_INDEX_NAME environment variables.

Examples:
  # Vector search against a knowledge index
  graphmem search --index document_embeddings "quarterly revenue"

  # Hybrid search with an explicit fulltext companion index
  graphmem search --index document_embeddings --kind hybrid \
    --fulltext-index document_fulltext "quarterly revenue"

  # Provision the memory indexes for a user scope up front
  graphmem provision --user-id alice
`
