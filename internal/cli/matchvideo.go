package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/erniesg/capless/internal/domain/videomatch"
	"github.com/erniesg/capless/internal/pipeline"
	"github.com/erniesg/capless/internal/ports/adapters/youtube"
)

func newMatchVideoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match-video <date>",
		Short: "Find the recording of a sitting date and report the confidence breakdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatchVideo(cmd, args[0])
		},
	}

	cmd.Flags().StringSlice("speaker", nil, "Speaker names to look for in video descriptions")
	cmd.Flags().String("query", "", "Override the video search query")

	return cmd
}

func runMatchVideo(cmd *cobra.Command, dateArg string) error {
	speakers, _ := cmd.Flags().GetStringSlice("speaker")
	query, _ := cmd.Flags().GetString("query")

	target, err := time.Parse("2006-01-02", dateArg)
	if err != nil {
		return fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", dateArg, err)
	}

	apiKey := getenvDefault("YOUTUBE_API_KEY", "")
	if apiKey == "" {
		return errors.New("YOUTUBE_API_KEY is required (set it in .env)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := pipeline.RunMatchVideo(ctx, pipeline.MatchVideoConfig{
		TargetDate: target,
		Speakers:   speakers,
		Query:      query,
		Videos:     youtube.New(apiKey, getenvDefault("YOUTUBE_API_BASE_URL", "")),
		Logf: func(format string, args ...any) {
			fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
		},
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	b := res.Breakdown
	fmt.Fprintf(out, "best candidate: %s (%s)\n", res.Video.Title, res.Video.ID)
	fmt.Fprintf(out, "  date match:        %.1f\n", b.DateMatch)
	fmt.Fprintf(out, "  title keywords:    %.1f\n", b.TitleKeywords)
	fmt.Fprintf(out, "  duration:          %.1f\n", b.Duration)
	fmt.Fprintf(out, "  livestream:        %.1f\n", b.Livestream)
	fmt.Fprintf(out, "  description/spkr:  %.1f\n", b.DescriptionSpeaker)
	fmt.Fprintf(out, "  total:             %.1f / 10\n", b.Total)
	if !res.Confident {
		fmt.Fprintf(out, "no confident match (threshold %.0f)\n", videomatch.MinConfidence)
	}
	return nil
}
