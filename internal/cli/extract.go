package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/erniesg/capless/internal/pipeline"
)

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <session.vtt>",
		Short: "Extract, deduplicate, and rank viral moments from one sitting's captions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args[0])
		},
	}

	cmd.Flags().String("out", "out", "Output directory")
	cmd.Flags().String("date", "", "Session date label (defaults to the input filename)")
	cmd.Flags().Duration("chunk", 150*time.Minute, "Chunk span")
	cmd.Flags().Duration("overlap", 20*time.Minute, "Chunk overlap")
	cmd.Flags().Float64("dedupe", 0.85, "Semantic dedupe similarity threshold")

	// Hidden tuning flags (internal)
	cmd.Flags().Int("max-chars", 0, "Character bound per chunk (0 disables)")
	cmd.Flags().Bool("snap", false, "Snap chunk cuts to long pauses")
	_ = cmd.Flags().MarkHidden("max-chars")
	_ = cmd.Flags().MarkHidden("snap")

	return cmd
}

func runExtract(cmd *cobra.Command, input string) error {
	outDir, _ := cmd.Flags().GetString("out")
	date, _ := cmd.Flags().GetString("date")
	chunk, _ := cmd.Flags().GetDuration("chunk")
	overlap, _ := cmd.Flags().GetDuration("overlap")
	dedupe, _ := cmd.Flags().GetFloat64("dedupe")
	maxChars, _ := cmd.Flags().GetInt("max-chars")
	snap, _ := cmd.Flags().GetBool("snap")

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return errors.New("OPENAI_API_KEY is required (set it in .env)")
	}

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Hour)
	defer cancel()

	cfg := pipeline.Config{
		InputVTT:    absIn,
		SessionDate: date,
		OutDir:      outDir,

		ChunkSpan:     chunk,
		ChunkOverlap:  overlap,
		MaxChunkChars: maxChars,
		SnapToPauses:  snap,

		DedupeThreshold: dedupe,

		OpenAIAPIKey:         apiKey,
		OpenAIChatModel:      getenvDefault("OPENAI_CHAT_MODEL", ""),
		OpenAIEmbeddingModel: getenvDefault("OPENAI_EMBEDDING_MODEL", ""),

		Logf: func(format string, args ...any) {
			fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
		},
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return pipeline.Run(ctx, cfg)
}
