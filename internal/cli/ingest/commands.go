// Package ingest holds the docseeder ingestion commands and their composition root.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cloo-solutions/docseeder/internal/domain"
	"github.com/cloo-solutions/docseeder/internal/service"
	"github.com/cloo-solutions/docseeder/internal/telemetry"
	"github.com/spf13/cobra"
)

// Commands returns one command per ingestion pipeline.
func Commands(open Opener) []*cobra.Command {
	return []*cobra.Command{
		YouTubeCmd(open),
		YouTubeAudioCmd(open),
		VimeoCmd(open),
		PodcastCmd(open),
		TranscriptCmd(open),
		SiteCmd(open),
		SubstackCmd(open),
		PDFCmd(open),
	}
}

func YouTubeCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "youtube <url> <provider-id>",
		Short: "Store a YouTube video from its captions",
		Long: `Fetch the English caption track of a YouTube video with yt-dlp and store it
as a youtube document. Use youtube-audio for videos without captions.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			providerID, err := parseProviderID(args[1])
			if err != nil {
				return err
			}
			return run(cmd, open, "youtube", func(ctx context.Context, rt *Runtime) error {
				res, err := rt.Pipelines.IngestYouTube(ctx, args[0], providerID)
				return reportDocument(cmd.OutOrStdout(), args[0], res, err)
			})
		},
	}
}

func YouTubeAudioCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "youtube-audio <url> <provider-id>",
		Short: "Transcribe a YouTube video's audio and store it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			providerID, err := parseProviderID(args[1])
			if err != nil {
				return err
			}
			return run(cmd, open, "youtube-audio", func(ctx context.Context, rt *Runtime) error {
				res, err := rt.Pipelines.IngestVideo(ctx, service.VideoRequest{URL: args[0], ProviderID: providerID})
				return reportDocument(cmd.OutOrStdout(), args[0], res, err)
			})
		},
	}
}

func VimeoCmd(open Opener) *cobra.Command {
	var (
		title   string
		browser string
	)

	cmd := &cobra.Command{
		Use:   "vimeo <url> <provider-id>",
		Short: "Transcribe a Vimeo video's audio and store it",
		Long: `Transcribe a Vimeo video's audio and store it.

Private videos need the cookies of a logged-in browser session:
  docseeder vimeo https://vimeo.com/123 42 --browser chrome --title "Onboarding"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			providerID, err := parseProviderID(args[1])
			if err != nil {
				return err
			}
			return run(cmd, open, "vimeo", func(ctx context.Context, rt *Runtime) error {
				res, err := rt.Pipelines.IngestVideo(ctx, service.VideoRequest{
					URL:        args[0],
					ProviderID: providerID,
					Title:      title,
					Options:    domain.DownloadOptions{CookiesFromBrowser: browser},
				})
				return reportDocument(cmd.OutOrStdout(), args[0], res, err)
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Document title (default: the video title)")
	cmd.Flags().StringVar(&browser, "browser", "", "Browser to read cookies from for private videos (chrome, firefox, ...)")

	return cmd
}

func PodcastCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "podcast <episode-url> <provider-id>",
		Short: "Find a podcast episode's audio through its RSS feed, transcribe and store it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			providerID, err := parseProviderID(args[1])
			if err != nil {
				return err
			}
			return run(cmd, open, "podcast", func(ctx context.Context, rt *Runtime) error {
				res, err := rt.Pipelines.IngestPodcast(ctx, args[0], providerID)
				return reportDocument(cmd.OutOrStdout(), args[0], res, err)
			})
		},
	}
}

func TranscriptCmd(open Opener) *cobra.Command {
	var (
		sourceURL string
		title     string
	)

	cmd := &cobra.Command{
		Use:   "transcript <file-or-dir> <provider-id>",
		Short: "Store pre-transcribed segment JSON files",
		Long: `Store transcripts produced elsewhere in the Whisper verbose_json shape.

A directory ingests every *.json file in it; --source-url and --title only
apply to a single file.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			providerID, err := parseProviderID(args[1])
			if err != nil {
				return err
			}
			info, err := os.Stat(args[0])
			if err != nil {
				return domain.Wrap(domain.ErrSourceNotFound, err)
			}
			if info.IsDir() && (sourceURL != "" || title != "") {
				return fmt.Errorf("--source-url and --title cannot be used with a directory")
			}

			return run(cmd, open, "transcript", func(ctx context.Context, rt *Runtime) error {
				if info.IsDir() {
					stored, err := rt.Pipelines.IngestTranscriptDir(ctx, args[0], providerID)
					fmt.Fprintf(cmd.OutOrStdout(), "stored %d transcripts from %s\n", stored, args[0])
					return err
				}
				res, err := rt.Pipelines.IngestTranscriptFile(ctx, service.TranscriptFileRequest{
					Path:       args[0],
					ProviderID: providerID,
					SourceURL:  sourceURL,
					Title:      title,
				})
				return reportDocument(cmd.OutOrStdout(), args[0], res, err)
			})
		},
	}

	cmd.Flags().StringVar(&sourceURL, "source-url", "", "Source URL to store (default: file:// path)")
	cmd.Flags().StringVar(&title, "title", "", "Document title (default: file name)")

	return cmd
}

func SiteCmd(open Opener) *cobra.Command {
	var maxPages int

	cmd := &cobra.Command{
		Use:   "site <start-url> <provider-id>",
		Short: "Crawl every page under a URL and store its text",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			providerID, err := parseProviderID(args[1])
			if err != nil {
				return err
			}
			return run(cmd, open, "site", func(ctx context.Context, rt *Runtime) error {
				report, err := rt.Pipelines.CrawlSite(ctx, service.CrawlRequest{
					StartURL:   args[0],
					ProviderID: providerID,
					MaxPages:   maxPages,
					Delay:      rt.CrawlDelay,
				})
				if report != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "visited %d pages: %d stored, %d skipped, %d failed, %d chunks\n",
						report.Visited, report.Stored, report.Skipped, report.Failed, report.Chunks)
				}
				return err
			})
		},
	}

	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "Stop after this many pages (0 = no limit)")

	return cmd
}

func SubstackCmd(open Opener) *cobra.Command {
	var maxArticles int

	cmd := &cobra.Command{
		Use:   "substack <url> <provider-id>",
		Short: "Store the latest articles of a Substack newsletter",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			providerID, err := parseProviderID(args[1])
			if err != nil {
				return err
			}
			return run(cmd, open, "substack", func(ctx context.Context, rt *Runtime) error {
				report, err := rt.Pipelines.IngestSubstack(ctx, args[0], providerID, maxArticles)
				if report != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%d articles: %d stored, %d skipped, %d failed\n",
						report.Entries, report.Stored, report.Skipped, report.Failed)
				}
				return err
			})
		},
	}

	cmd.Flags().IntVar(&maxArticles, "max", service.DefaultMaxArticles, "Maximum number of feed entries to process")

	return cmd
}

func PDFCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "pdf <path> <provider-id>",
		Short: "Store the text of a local PDF",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			providerID, err := parseProviderID(args[1])
			if err != nil {
				return err
			}
			return run(cmd, open, "pdf", func(ctx context.Context, rt *Runtime) error {
				res, err := rt.Pipelines.IngestPDF(ctx, args[0], providerID)
				return reportDocument(cmd.OutOrStdout(), args[0], res, err)
			})
		},
	}
}

// run opens the runtime and executes fn inside a Sentry transaction named after the command.
func run(cmd *cobra.Command, open Opener, name string, fn func(ctx context.Context, rt *Runtime) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := open(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, tx := telemetry.StartTransaction(ctx, "docseeder "+name, "cli.command")
	defer tx.End()

	if err := fn(ctx, rt); err != nil {
		tx.SetError(err)
		telemetry.CaptureError(ctx, err)
		return err
	}
	return nil
}

func parseProviderID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Wrap(domain.ErrInvalidProviderID, fmt.Errorf("%q", s))
	}
	return id, nil
}

// reportDocument prints the outcome of a single-document pipeline. An already
// ingested source is a skip, not a failure.
func reportDocument(w io.Writer, source string, res *service.IngestResult, err error) error {
	if errors.Is(err, domain.ErrDocumentExists) {
		fmt.Fprintf(w, "skipped %s: already ingested\n", source)
		return nil
	}
	if res != nil {
		fmt.Fprintf(w, "stored %q (%s): %d chunks, %d/%d rows inserted\n",
			res.Title, res.DocumentID, res.Chunks, res.Report.Inserted, res.Report.Total)
		for _, f := range res.Report.FailedBatches {
			fmt.Fprintf(w, "  batch %d (rows %d-%d) failed: %v\n", f.Index, f.Offset, f.Offset+f.Size-1, f.Err)
		}
	}
	return err
}
