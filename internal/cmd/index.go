package cmd

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/RimvydasPet/tech-doc-assistant/internal/genai"
	"github.com/RimvydasPet/tech-doc-assistant/internal/index"
	"github.com/RimvydasPet/tech-doc-assistant/internal/observability"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the documentation vector index",
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Rebuild the vector index from the embedded corpus",
	Long: `Split the embedded documentation corpus into chunks, embed each chunk
with the configured embedding model, and persist the result. Chunks are
replaced per library, so a failed build leaves untouched libraries intact.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		componentLogger, err := observability.NewComponentLogger(cfg.Logging.Level)
		if err != nil {
			return err
		}

		svc, err := genai.NewService(cfg.GenAI)
		if err != nil {
			return fmt.Errorf("initialize model provider: %w", err)
		}

		db, err := openStore(cmd.Context(), cfg.Store)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		splitter, err := index.NewSplitter(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
		if err != nil {
			return err
		}

		builder := &index.Builder{
			Store:    db,
			Embedder: svc,
			Splitter: splitter,
			Logger:   componentLogger,
		}

		observability.CLILogger.Info("Building vector index",
			zap.String("embedding_model", cfg.GenAI.EmbeddingModel),
			zap.Int("chunk_size", cfg.RAG.ChunkSize),
			zap.Int("chunk_overlap", cfg.RAG.ChunkOverlap))

		stats, err := builder.Build(cmd.Context(), cfg.GenAI.EmbeddingModel)
		if err != nil {
			return fmt.Errorf("build index: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d chunks across %d libraries\n",
			stats.Chunks, stats.Libraries)
		return nil
	},
}

var indexStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-library chunk counts for the persisted index",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := openStore(cmd.Context(), cfg.Store)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		counts, err := db.CountChunks(cmd.Context())
		if err != nil {
			return err
		}
		model, err := db.IndexMeta(cmd.Context(), "embedding_model")
		if err != nil {
			return err
		}

		libraries := make([]string, 0, len(counts))
		total := 0
		for library, n := range counts {
			libraries = append(libraries, library)
			total += n
		}
		sort.Strings(libraries)

		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Library", "Chunks"})
		for _, library := range libraries {
			t.AppendRow(table.Row{library, counts[library]})
		}
		t.AppendFooter(table.Row{"Total", total})

		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		if model != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Embedding model: %s\n", model)
		}
		return nil
	},
}

func init() {
	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexStatusCmd)
	rootCmd.AddCommand(indexCmd)
}
