package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"zest/internal/browser"
	"zest/internal/cache"
	"zest/internal/config"
	"zest/internal/liked"
	"zest/internal/logs"
	"zest/internal/spoonacular"
)

// cliSession scopes the liked set used from the command line.
const cliSession = "cli"

const detailConcurrency = 4

type recipeSource interface {
	Search(ctx context.Context, query string, page, pageSize int) (*spoonacular.SearchResult, error)
	Detail(ctx context.Context, id int) (*spoonacular.Detail, error)
}

func runSearch(ctx context.Context, cfg *config.Config, out io.Writer, query string, page int, details bool) error {
	client, err := spoonacular.NewClient(cfg.Spoonacular)
	if err != nil {
		return fmt.Errorf("failed to create recipe client: %w", err)
	}
	return search(ctx, client, cfg.Browser.PageSize, out, query, page, details)
}

func search(ctx context.Context, src recipeSource, pageSize int, out io.Writer, query string, page int, details bool) error {
	pager := browser.NewPagination(pageSize)
	pager.CurrentPage = max(page, 1)

	res, err := src.Search(ctx, query, pager.CurrentPage, pager.ResultsPerPage)
	if err != nil {
		return fmt.Errorf("%s: %w", browser.SearchErrorMessage, err)
	}
	pager.TotalResults = res.TotalResults

	shown := browser.Derive(res.Results, query, false, nil)
	if len(shown) == 0 {
		fmt.Fprintln(out, "No recipes found")
	}

	var recipes []*spoonacular.Detail
	if details {
		recipes = make([]*spoonacular.Detail, len(shown))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(detailConcurrency)
		for i, r := range shown {
			g.Go(func() error {
				d, err := src.Detail(gctx, r.ID)
				if err != nil {
					return fmt.Errorf("recipe %d: %w", r.ID, err)
				}
				recipes[i] = d
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	for i, r := range shown {
		fmt.Fprintf(out, "%d\t%s\n", r.ID, r.Title)
		if details {
			printDetail(out, recipes[i])
		}
	}
	fmt.Fprintf(out, "Page %d of %d\n", pager.CurrentPage, pager.TotalPages())
	return nil
}

func printDetail(out io.Writer, d *spoonacular.Detail) {
	for _, ing := range d.ExtendedIngredients {
		fmt.Fprintf(out, "\t- %s\n", ing.Line())
	}
	if d.Nutrition != nil {
		fmt.Fprintln(out, "\tNutrition Info:")
		for _, n := range d.Nutrition.Nutrients {
			fmt.Fprintf(out, "\t  %s\n", n.Line())
		}
	}
}

func runLike(ctx context.Context, cfg *config.Config, out io.Writer, id int) error {
	kv, err := cache.MakeCache(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}
	defer closeCache(kv)
	return toggleLike(ctx, kv, out, id)
}

func toggleLike(ctx context.Context, kv cache.Cache, out io.Writer, id int) error {
	store := liked.NewStore(kv, cliSession)
	store.Load(ctx)
	ids := store.Toggle(ctx, id)

	verb := "Unliked"
	if slices.Contains(ids, id) {
		verb = "Liked"
	}
	fmt.Fprintf(out, "%s recipe %d\n", verb, id)
	fmt.Fprintf(out, "Liked recipes: %v\n", ids)
	if store.Degraded() {
		return errors.New("liked recipes could not be saved")
	}
	return nil
}

func closeCache(kv cache.Cache) {
	if c, ok := kv.(io.Closer); ok {
		_ = c.Close()
	}
}

func runLogs(ctx context.Context, cfg *config.Config, out io.Writer, window time.Duration) error {
	if !cfg.LogSinkEnabled() {
		return errors.New("log shipping is not configured; set LOGS_CONTAINER and the azure storage account")
	}
	reader, err := logs.NewReader(logs.Config{
		AccountName: cfg.Azure.AccountName,
		AccountKey:  cfg.Azure.AccountKey,
		Container:   cfg.Logs.Container,
	})
	if err != nil {
		return fmt.Errorf("failed to create log reader: %w", err)
	}
	entries, err := reader.Since(ctx, time.Now().Add(-window))
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s\t%s\t%s\t%v\n", e.Time, e.Level, e.Msg, e.Extra)
	}
	return nil
}
