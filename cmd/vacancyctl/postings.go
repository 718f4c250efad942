package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"lawjobs-workers/internal/common/database"
	"lawjobs-workers/internal/models"
	"lawjobs-workers/internal/repository"
	"lawjobs-workers/internal/search"
)

func postingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "postings",
		Short: "Inspect stored postings",
	}
	cmd.AddCommand(unsentCommand(), searchCommand(), statsCommand())
	return cmd
}

func unsentCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "unsent",
		Short: "List postings waiting for distribution",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pg, err := openPostgres(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pg.Close()

			store := repository.NewPostingStore(pg.GetDB())
			ids, err := store.FindUnsent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			postings, err := loadPostings(cmd.Context(), store, ids)
			if err != nil {
				return err
			}
			writePostings(cmd.OutOrStdout(), postings)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of postings")
	return cmd
}

func searchCommand() *cobra.Command {
	var (
		tags []string
		size int
	)
	cmd := &cobra.Command{
		Use:   "search [text]",
		Short: "Full-text search over the postings index",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			es, err := database.NewElasticsearch(cfg.Database.Elasticsearch, nil)
			if err != nil {
				return err
			}
			q := search.Query{Size: size}
			if len(args) == 1 {
				q.Text = args[0]
			}
			for _, tag := range tags {
				q.Tags = append(q.Tags, models.PracticeArea(tag))
			}
			result, err := search.NewIndexer(es.Client, cfg.Database.Elasticsearch.PostingsIndex).Search(cmd.Context(), q)
			if err != nil {
				return err
			}

			pg, err := openPostgres(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pg.Close()
			postings, err := loadPostings(cmd.Context(), repository.NewPostingStore(pg.GetDB()), result.IDs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d match(es)\n", result.Total)
			writePostings(cmd.OutOrStdout(), postings)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "practice area filter (repeatable)")
	cmd.Flags().IntVar(&size, "size", 20, "page size")
	return cmd
}

func statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count postings and subscribers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pg, err := openPostgres(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pg.Close()

			sent, unsent, err := repository.NewPostingStore(pg.GetDB()).CountByState(cmd.Context())
			if err != nil {
				return err
			}
			subscribers, err := repository.NewSubscriberStore(pg.GetDB()).Count(cmd.Context())
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout())
			t.AppendRows([]table.Row{
				{"Postings sent", sent},
				{"Postings unsent", unsent},
				{"Subscribers", subscribers},
			})
			t.Render()
			return nil
		},
	}
}

type postingGetter interface {
	GetByID(ctx context.Context, id int64) (*models.Posting, error)
}

// loadPostings resolves ids in order and skips ids that are gone.
func loadPostings(ctx context.Context, store postingGetter, ids []int64) ([]*models.Posting, error) {
	out := make([]*models.Posting, 0, len(ids))
	for _, id := range ids {
		p, err := store.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load posting %d: %w", id, err)
		}
		if p != nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func writePostings(out io.Writer, postings []*models.Posting) {
	t := newTable(out)
	t.AppendHeader(table.Row{"ID", "Title", "Employer", "Category", "Tags", "Sent"})
	for _, p := range postings {
		tags := make([]string, len(p.Tags))
		for i, tag := range p.Tags {
			tags[i] = string(tag)
		}
		t.AppendRow(table.Row{p.ID, p.Title, p.EmployerName, p.EmployerCategory, strings.Join(tags, ","), p.Sent})
	}
	t.AppendFooter(table.Row{"", "", "", "", "Total", len(postings)})
	t.Render()
}
