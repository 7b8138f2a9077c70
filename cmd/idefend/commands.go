package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/idefend/internal/app/articles"
	"github.com/PabloGalante/idefend/internal/app/conversation"
	"github.com/PabloGalante/idefend/internal/tui"
)

var (
	chatCategory  string
	articlesTopic string
	servePort     string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the rights assistant",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, chatCategory)
	},
}

func runChat(cmd *cobra.Command, category string) error {
	out, err := app.Conversation.StartSession(cmd.Context(), conversation.StartSessionInput{Category: category})
	if err != nil {
		return err
	}
	defer app.Conversation.EndSession(cmd.Context(), out.Session.ID())

	return tui.Run(out.Session)
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the rights categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tTITLE\tDESCRIPTION")
		for _, c := range app.Conversation.Categories() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", c.Key, c.Title, c.Description)
		}
		return w.Flush()
	},
}

var articlesCmd = &cobra.Command{
	Use:   "articles",
	Short: "Show recent rights-related news",
	RunE: func(cmd *cobra.Command, args []string) error {
		if app.Articles == nil {
			return errors.New("article feed disabled: set IDEFEND_NEWS_API_KEY")
		}

		feed, err := app.Articles.Feed(cmd.Context(), articlesTopic)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%d articles)\n\n", feed.Topic.Label, len(feed.Articles))
		now := time.Now()
		for _, a := range feed.Articles {
			fmt.Fprintf(out, "%s\n  %s · %s\n  %s\n\n", a.Title, a.Source, articles.RelativeTime(a.PublishedAt, now), a.URL)
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port := servePort
		if port == "" {
			port = cfg.Port
		}
		return app.Serve(ctx, port)
	},
}
