package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloo-solutions/docseeder/internal/cli"
	"github.com/cloo-solutions/docseeder/internal/cli/ingest"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "docseeder",
		Short: "Seed provider knowledge from videos, podcasts, sites, newsletters and PDFs",
		Long: `docseeder fetches a source, transcribes or extracts its text, splits it into
chunks, embeds each chunk and stores the result for one provider.

Every ingestion command takes the source and the numeric provider id:
  docseeder youtube https://www.youtube.com/watch?v=dQw4w9WgXcQ 42
  docseeder youtube-audio https://www.youtube.com/watch?v=dQw4w9WgXcQ 42
  docseeder site https://example.com/docs 42 --max-pages 200

Environment variables (DOCSEEDER_ prefix optional, .env is read):
  OPENAI_API_KEY            OpenAI key for transcription and embeddings (required)
  STORE                     postgres (default) or supabase
  DATABASE_URL              Postgres connection string for the postgres store
  SUPABASE_URL              Supabase project URL for the supabase store
  SUPABASE_SERVICE_ROLE_KEY Supabase service role key
  S3_ENDPOINT               Archive source files to this S3-compatible endpoint
  SENTRY_DSN                Report traces and errors to Sentry`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(ingest.Commands(ingest.Open)...)
	rootCmd.AddCommand(ingest.MigrateCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if target, ok := cli.HelpJSONTarget(rootCmd, os.Args[1:]); ok {
		if err := cli.WriteSchema(os.Stdout, target); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			stop()
			os.Exit(1)
		}
		return
	}
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
