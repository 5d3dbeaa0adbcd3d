package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"m4b-studio/internal/convert"
	"m4b-studio/internal/domain"
)

func newRootCommand() *cobra.Command {
	var (
		titleFlag   string
		authorFlag  string
		outputFlag  string
		bitrateFlag string
		engineFlag  string
		tailFlag    int
	)

	rootCmd := &cobra.Command{
		Use:           "m4b-convert [files...]",
		Short:         "Join ordered audio files into a tagged M4B audiobook",
		Long:          "Runs the same conversion pipeline as the desktop app without a GUI. Input files are concatenated in argument order.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pipeline := convert.NewPipeline()
			result, err := pipeline.Run(ctx, convert.Request{
				Files:      args,
				Meta:       domain.AudiobookMeta{Title: titleFlag, Author: authorFlag},
				OutputPath: outputFlag,
				EnginePath: engineFlag,
				Bitrate:    bitrateFlag,
				TailLines:  tailFlag,
				OnLine: func(line string) {
					fmt.Fprintln(cmd.ErrOrStderr(), line)
				},
			})
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return errors.New("conversion cancelled")
				}
				var engineErr *convert.EngineError
				if errors.As(err, &engineErr) && len(engineErr.Tail) > 0 {
					return fmt.Errorf("engine exited with code %d:\n%s", engineErr.ExitCode, strings.Join(engineErr.Tail, "\n"))
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Audiobook written to %s\n", result.OutputPath)
			return nil
		},
	}

	rootCmd.Flags().StringVarP(&titleFlag, "title", "t", "", "Audiobook title (required)")
	rootCmd.Flags().StringVarP(&authorFlag, "author", "a", "", "Audiobook author (required)")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Destination .m4b path (required)")
	rootCmd.Flags().StringVar(&bitrateFlag, "bitrate", convert.DefaultBitrate, "AAC bitrate for the output")
	rootCmd.Flags().StringVar(&engineFlag, "engine", "", "Path to the ffmpeg binary (defaults to PATH lookup)")
	rootCmd.Flags().IntVar(&tailFlag, "tail-lines", convert.DefaultTailLines, "Output lines kept for failure reports")

	return rootCmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
