package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"newsroom/internal/model"
	"newsroom/internal/web"
)

func (c *cli) feedsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feeds",
		Short: "Manage the subscribed RSS feeds",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List subscribed feeds",
		Args:  cobra.NoArgs,
		RunE: c.adminRun(func(cmd *cobra.Command, _ []string) error {
			feeds, err := c.svc.ListFeeds(cmd.Context())
			if err != nil {
				return err
			}
			printFeeds(cmd.OutOrStdout(), feeds.URLs)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <url>",
		Short: "Subscribe to a feed",
		Args:  cobra.ExactArgs(1),
		RunE: c.adminRun(func(cmd *cobra.Command, args []string) error {
			feeds, err := c.svc.AddFeed(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", args[0])
			printFeeds(cmd.OutOrStdout(), feeds.URLs)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <position>",
		Short: "Unsubscribe the feed at a 1-based position",
		Args:  cobra.ExactArgs(1),
		RunE: c.adminRun(func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("position %q is not a number", args[0])
			}
			url, err := c.svc.RemoveFeed(cmd.Context(), n)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", url)
			return nil
		}),
	})
	return cmd
}

func (c *cli) generateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Collect all feeds and store today's briefing",
		Args:  cobra.NoArgs,
		RunE: c.adminRun(func(cmd *cobra.Command, _ []string) error {
			report, err := c.svc.Generate(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printBriefing(out, report.Briefing)
			fmt.Fprintln(out)
			fmt.Fprintln(out, dim(fmt.Sprintf("run %s, %d article(s)", report.RunID, len(report.Briefing.RawData))))
			for _, f := range report.Failures {
				fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("feed failed: %s: %v", f.URL, f.Err)))
			}
			return nil
		}),
	}
}

func (c *cli) archiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Browse archived briefings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List archived dates, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dates, err := c.svc.ListDates(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(dates) == 0 {
				fmt.Fprintln(out, "No briefings archived yet.")
				return nil
			}
			fmt.Fprintln(out, heading(fmt.Sprintf("Archived briefings (%d)", len(dates))))
			for _, d := range dates {
				fmt.Fprintln(out, "  "+d)
			}
			return nil
		},
	})

	var withArticles bool
	show := &cobra.Command{
		Use:   "show [date]",
		Short: "Print the briefing for a date, or the latest one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				b   model.Briefing
				err error
			)
			if len(args) == 0 {
				b, err = c.svc.LatestBriefing(cmd.Context())
			} else {
				b, err = c.svc.ViewBriefing(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printBriefing(out, b)
			if withArticles {
				fmt.Fprintln(out)
				printArticles(out, b.RawData)
			}
			return nil
		},
	}
	show.Flags().BoolVar(&withArticles, "articles", false, "also print the source articles")
	cmd.AddCommand(show)

	var yes bool
	rm := &cobra.Command{
		Use:   "rm <date>",
		Short: "Delete the briefing for a date",
		Args:  cobra.ExactArgs(1),
		RunE: c.adminRun(func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete without --yes")
			}
			if err := c.svc.DeleteBriefing(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted briefing for %s\n", args[0])
			return nil
		}),
	}
	rm.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the deletion")
	cmd.AddCommand(rm)
	return cmd
}

func (c *cli) statsCmd() *cobra.Command {
	var last int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show visit statistics",
		Args:  cobra.NoArgs,
		RunE: c.adminRun(func(cmd *cobra.Command, _ []string) error {
			st, err := c.svc.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, heading(fmt.Sprintf("Total visits: %d", st.TotalVisits)))
			recent := st.Log
			if last >= 0 && len(recent) > last {
				recent = recent[len(recent)-last:]
			}
			for i := len(recent) - 1; i >= 0; i-- {
				fmt.Fprintln(out, "  "+recent[i])
			}
			return nil
		}),
	}
	cmd.Flags().IntVar(&last, "last", 10, "number of recent visits to print")
	return cmd
}

func (c *cli) modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models available to the summarizer",
		Args:  cobra.NoArgs,
		RunE: c.adminRun(func(cmd *cobra.Command, _ []string) error {
			models, err := c.svc.Models(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, heading(fmt.Sprintf("Available models (%d)", len(models))))
			for _, m := range models {
				fmt.Fprintln(out, "  "+m)
			}
			return nil
		}),
	}
}

func (c *cli) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the public archive over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return web.NewServer(c.svc, c.log).Run(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

func printFeeds(w io.Writer, urls []string) {
	if len(urls) == 0 {
		fmt.Fprintln(w, "No feeds yet.")
		return
	}
	fmt.Fprintln(w, heading(fmt.Sprintf("RSS feeds (%d)", len(urls))))
	for i, u := range urls {
		fmt.Fprintf(w, "%3d. %s\n", i+1, u)
	}
}

func printBriefing(w io.Writer, b model.Briefing) {
	fmt.Fprintln(w, heading("Briefing for "+b.Date))
	fmt.Fprintln(w, dim("created "+b.CreatedAt))
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.TrimSpace(b.Content))
}

func printArticles(w io.Writer, articles []model.Article) {
	fmt.Fprintln(w, heading(fmt.Sprintf("Source articles (%d)", len(articles))))
	for i, a := range articles {
		fmt.Fprintf(w, "%3d. %s\n", i+1, a.Title)
		if a.Link != "" {
			fmt.Fprintln(w, "     "+dim(a.Link))
		}
	}
}
