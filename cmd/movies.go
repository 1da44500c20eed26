package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/moviex/internal/feed"
	"github.com/desertthunder/moviex/internal/formatter"
	"github.com/desertthunder/moviex/internal/locale"
	"github.com/desertthunder/moviex/internal/shared"
	"github.com/urfave/cli/v3"
)

// Popular prints one page of the popular listing.
func (r *Runner) Popular(ctx context.Context, cmd *cli.Command) error {
	return r.listing(ctx, cmd, "", "Popular movies")
}

// Search prints one page of merged search results across every supported language.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}
	return r.listing(ctx, cmd, query, fmt.Sprintf("Search: %s", query))
}

func (r *Runner) listing(ctx context.Context, cmd *cli.Command, query, title string) error {
	page := int(cmd.Int("page"))
	if page < 1 {
		return fmt.Errorf("%w: page must be at least 1", shared.ErrInvalidFlag)
	}

	movies, err := r.movieService()
	if err != nil {
		return err
	}

	l := r.localeFrom(cmd)
	res := feed.FetchPage(ctx, movies, query, l, page)
	if res.Err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, res.Err)
	}
	for _, f := range res.Failed {
		r.logger.Warn("locale request failed", "locale", f.Locale, "error", f.Err)
	}

	listing := formatter.Listing{Title: title, Page: page, HasMore: res.HasMore, Items: res.Movies}
	format := cmd.String("format")
	imageBase := r.config.TMDB.ImageBaseURL

	if out := cmd.String("output"); out != "" {
		if format == formatter.FormatMarkdown {
			result, err := formatter.WriteMarkdownExport(ctx, listing, out, imageBase)
			if err != nil {
				return err
			}
			for _, w := range result.Warnings {
				r.logger.Warn(w)
			}
			return r.writePlain("✓ Wrote %d files to %s\n", len(result.Files), result.Directory)
		}
		if err := formatter.WriteExport(listing, format, imageBase, out); err != nil {
			return err
		}
		return r.writePlain("✓ Wrote %s\n", out)
	}

	data, err := formatter.Export(listing, format, imageBase, cmd.Bool("pretty"))
	if err != nil {
		return err
	}
	if len(listing.Items) == 0 && format == formatter.FormatText {
		return r.writePlain("%s\n", locale.T(l, locale.KeyNoResults))
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if !strings.HasSuffix(string(data), "\n") {
		return r.writePlain("\n")
	}
	return nil
}

// Show renders the detail card of one movie.
func (r *Runner) Show(ctx context.Context, cmd *cli.Command) error {
	raw := cmd.StringArg("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("%w: id %q", shared.ErrInvalidArgument, raw)
	}

	movies, err := r.movieService()
	if err != nil {
		return err
	}

	l := r.localeFrom(cmd)
	m, err := movies.Movie(ctx, id, l)
	if errors.Is(err, shared.ErrMovieNotFound) {
		return fmt.Errorf("%s: %w", locale.T(l, locale.KeyNotFound), err)
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(m, true)
	}

	card, err := formatter.RenderDetail(*m, l, formatter.RenderOpts{
		Width:     int(cmd.Int("width")),
		Style:     cmd.String("style"),
		ImageBase: r.config.TMDB.ImageBaseURL,
	})
	if err != nil {
		return err
	}
	return r.writePlain("%s", card)
}
