package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"autoblog/humanizer"
	"autoblog/keywords"
	"autoblog/server"
	"autoblog/state"
	"autoblog/workflow"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// estimatedCTR is the click-through rate used for the clicks estimate.
const estimatedCTR = 0.02

func newRootCommand() *cobra.Command {
	var configFlag, siteFlag string
	var verbose bool
	ctx := newCommandContext(&configFlag, &siteFlag, &verbose)

	root := &cobra.Command{
		Use:           "autoblog",
		Short:         "Generate, humanize, score and publish articles",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.sync()
		},
	}
	root.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "path to config.json (defaults plus environment when empty)")
	root.PersistentFlags().StringVar(&siteFlag, "site", "", "site profile slug (overrides config.site)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logs")

	root.AddCommand(
		newServeCommand(ctx),
		newGenerateCommand(ctx),
		newKeywordsCommand(ctx),
		newProgressCommand(ctx),
		newPostsCommand(ctx),
		newHumanizeCommand(),
	)
	return root
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := ctx.orchestrator()
			if err != nil {
				return err
			}
			if strings.HasPrefix(ctx.cfg.Log.Mode, "dev") {
				gin.SetMode(gin.DebugMode)
			} else {
				gin.SetMode(gin.ReleaseMode)
			}
			srv, err := server.New(orch, ctx.site.Slug, ctx.logger.Named("http"))
			if err != nil {
				return err
			}
			listen := ctx.cfg.ServerAddr
			if addr != "" {
				listen = addr
			}
			return serveHTTP(cmd.Context(), ctx.logger, listen, srv.Routes())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config.server_addr)")
	return cmd
}

// serveHTTP blocks until ctx is done, then drains in-flight requests.
func serveHTTP(ctx context.Context, logger *zap.Logger, addr string, h http.Handler) error {
	hs := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting web server", zap.String("addr", addr))
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return hs.Shutdown(shutdownCtx)
}

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var opts workflow.Options
	var asJSON bool
	var output string
	cmd := &cobra.Command{
		Use:   "generate [subject]",
		Short: "Generate one article (next in rotation when no subject is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := ctx.orchestrator()
			if err != nil {
				return err
			}
			var (
				out  workflow.Outcome
				view *workflow.ProgressView
			)
			if len(args) == 1 {
				out, err = orch.Run(cmd.Context(), args[0], opts)
			} else {
				var v workflow.ProgressView
				out, v, err = orch.RunNext(cmd.Context(), opts)
				view = &v
			}
			if err != nil {
				return err
			}
			if output != "" {
				if err := os.WriteFile(output, []byte(out.Result.HTML), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
			}
			if asJSON {
				return writeJSON(cmd, struct {
					workflow.Outcome
					Progress *workflow.ProgressView `json:"progress,omitempty"`
				}{out, view})
			}
			printOutcome(cmd.OutOrStdout(), out, view)
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "generate without publishing or recording")
	cmd.Flags().BoolVar(&opts.SkipDetection, "skip-ai-check", false, "skip the AI detection gate")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the outcome as JSON")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the article HTML to this file")
	return cmd
}

func printOutcome(w io.Writer, out workflow.Outcome, view *workflow.ProgressView) {
	fmt.Fprintf(w, "Subject:     %s\n", out.Subject)
	fmt.Fprintf(w, "Title:       %s\n", out.Title)
	fmt.Fprintf(w, "Words:       %d\n", out.WordCount)
	fmt.Fprintf(w, "Human score: %.0f%% (AI %.0f%%)\n", out.HumanScore, out.FakeScore)
	fmt.Fprintf(w, "Attempts:    %d (passed threshold: %t)\n", out.Attempts, out.PassedThreshold)
	switch {
	case out.DryRun:
		fmt.Fprintln(w, "Published:   no (dry run)")
	default:
		fmt.Fprintf(w, "Published:   %s (post %d)\n", out.PostURL, out.PostID)
	}
	if view != nil {
		fmt.Fprintf(w, "Next:        %s (%d/%d)\n", view.NextSubject, view.NextIndex+1, view.TotalSubjects)
	}
}

func newKeywordsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "keywords <subject>",
		Short: "Show ranked keyword opportunities for a subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.keywordClient()
			if err != nil {
				return err
			}
			list, err := client.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printKeywords(cmd.OutOrStdout(), list)
			return nil
		},
	}
}

func printKeywords(w io.Writer, list []keywords.KeywordScore) {
	rows := make([][]string, 0, len(list))
	for i, k := range list {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			k.Keyword,
			strconv.Itoa(k.SearchVolume),
			strconv.FormatFloat(k.Difficulty, 'f', 0, 64),
			string(k.Competition),
			strconv.Itoa(k.OpportunityScore),
		})
	}
	writeRows(w,
		[]string{"#", "Keyword", "Volume", "Difficulty", "Competition", "Score"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft, alignRight},
	)
	total := keywords.TotalVolume(list)
	fmt.Fprintf(w, "Total monthly volume: %d\n", total)
	fmt.Fprintf(w, "Estimated clicks (%.0f%% CTR): %d\n", estimatedCTR*100, int(float64(total)*estimatedCTR))
}

func newProgressCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show the subject rotation position",
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := ctx.orchestrator()
			if err != nil {
				return err
			}
			view, err := orch.Progress()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, view)
			}
			printProgress(cmd.OutOrStdout(), view)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Restart the rotation from the first subject",
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := ctx.orchestrator()
			if err != nil {
				return err
			}
			view, err := orch.ResetProgress(cmd.Context())
			if err != nil {
				return err
			}
			printProgress(cmd.OutOrStdout(), view)
			return nil
		},
	})
	return cmd
}

func printProgress(w io.Writer, v workflow.ProgressView) {
	last := "-"
	if v.LastSubject != "" {
		last = v.LastSubject
	}
	fmt.Fprintf(w, "Last:      %s\n", last)
	if v.LastGeneratedAt != nil {
		fmt.Fprintf(w, "When:      %s\n", v.LastGeneratedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Next:      %s (%d/%d)\n", v.NextSubject, v.NextIndex+1, v.TotalSubjects)
	fmt.Fprintf(w, "Complete:  %.1f%%\n", v.PercentComplete)
	fmt.Fprintf(w, "Generated: %d\n", v.TotalGenerated)
}

func newPostsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List published posts recorded for internal linking",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensureBase(); err != nil {
				return err
			}
			posts, err := ctx.store.Posts()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, posts)
			}
			printPosts(cmd.OutOrStdout(), posts)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func printPosts(w io.Writer, posts []state.Post) {
	if len(posts) == 0 {
		fmt.Fprintln(w, "No posts published yet")
		return
	}
	rows := make([][]string, 0, len(posts))
	for _, p := range posts {
		rows = append(rows, []string{
			p.PublishedAt.Format("2006-01-02"),
			p.Subject,
			strconv.FormatInt(p.PostID, 10),
			p.URL,
		})
	}
	writeRows(w, []string{"Published", "Subject", "ID", "URL"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft})
}

func newHumanizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "humanize [file]",
		Short: "Run the humanizer over a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if len(args) == 1 && args[0] != "-" {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), humanizer.Default().Humanize(string(data)))
			return err
		},
	}
}
