package formatter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/moviex/internal/locale"
	"github.com/desertthunder/moviex/internal/models"
	"github.com/desertthunder/moviex/internal/shared"
	tu "github.com/desertthunder/moviex/internal/testing"
)

func testListing() Listing {
	return Listing{
		Title:   "Popular",
		Page:    1,
		HasMore: true,
		Items: []models.Movie{
			{ID: 496243, Title: "기생충", OriginalTitle: "Parasite", VoteAverage: 8.5, ReleaseDate: "2019-05-30", PosterPath: "/parasite.jpg"},
			{ID: 670, Title: "Oldboy", OriginalTitle: "올드보이", VoteAverage: 8.2, ReleaseDate: "2003-11-21"},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testListing().Items)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "ID,Title,OriginalTitle,Rating,ReleaseDate,Poster") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "496243,기생충,Parasite,8.5,2019-05-30,/parasite.jpg") {
			t.Errorf("CSV missing first row, got: %s", output)
		}
		if lines := strings.Count(output, "\n"); lines != 3 {
			t.Errorf("expected 3 lines, got %d", lines)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(testListing(), "https://image.example/t/p")
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Popular",
			"**Movies**: 2",
			"1. **기생충** (2019) ★ 8.5",
			"![기생충](https://image.example/t/p/w342/parasite.jpg)",
			"2. **Oldboy** (2003) ★ 8.2",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("markdown missing %q, got: %s", want, output)
			}
		}
		if strings.Count(output, "![") != 1 {
			t.Error("movie without poster should have no image")
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(testListing())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Popular (page 1)") {
			t.Errorf("text missing header, got: %s", output)
		}
		if !strings.Contains(output, "2. [670] Oldboy (2003) - 8.2") {
			t.Errorf("text missing second row, got: %s", output)
		}
	})

	t.Run("Export", func(t *testing.T) {
		t.Run("json", func(t *testing.T) {
			data, err := Export(testListing(), FormatJSON, "", true)
			if err != nil {
				t.Fatalf("Export failed: %v", err)
			}
			var got Listing
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if len(got.Items) != 2 || !got.HasMore {
				t.Errorf("unexpected listing %+v", got)
			}
		})

		t.Run("unknown format", func(t *testing.T) {
			_, err := Export(testListing(), "xml", "", false)
			if !errors.Is(err, shared.ErrInvalidFlag) {
				t.Errorf("expected ErrInvalidFlag, got %v", err)
			}
		})

		for _, format := range []string{FormatCSV, FormatMarkdown, FormatText, "md", "text"} {
			t.Run(format, func(t *testing.T) {
				if data, err := Export(testListing(), format, "", false); err != nil || len(data) == 0 {
					t.Errorf("Export(%s) failed: %v", format, err)
				}
			})
		}
	})
}

func TestDownloadImage(t *testing.T) {
	t.Run("EmptyURL", func(t *testing.T) {
		_, err := DownloadImage(context.Background(), "")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		if _, err := DownloadImage(context.Background(), server.URL+"/x.jpg"); err == nil {
			t.Error("expected error for 404")
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteMarkdownExport", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/w342/parasite.jpg" {
				http.NotFound(w, r)
				return
			}
			w.Write([]byte("jpeg"))
		}))
		defer server.Close()

		l := testListing()
		l.Items = append(l.Items, models.Movie{ID: 1, Title: "Missing", PosterPath: "/missing.jpg"})

		dir := filepath.Join(t.TempDir(), "export")
		result, err := WriteMarkdownExport(context.Background(), l, dir, server.URL)
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(dir, "README.md"))
		tu.AssertFileExists(t, filepath.Join(dir, "posters", "496243.jpg"))

		if len(result.Warnings) != 1 {
			t.Errorf("expected 1 warning, got %v", result.Warnings)
		}
		if len(result.Files) != 2 {
			t.Errorf("expected 2 files, got %v", result.Files)
		}

		readme := tu.MustReadFile(t, filepath.Join(dir, "README.md"))
		if !strings.Contains(readme, "](posters/496243.jpg)") {
			t.Errorf("README should link local poster, got: %s", readme)
		}
		if !strings.Contains(readme, server.URL+"/w342/missing.jpg") {
			t.Errorf("README should link remote poster on failure, got: %s", readme)
		}
	})

	t.Run("WriteMarkdownExport requires directory", func(t *testing.T) {
		if _, err := WriteMarkdownExport(context.Background(), testListing(), "", ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("WriteExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "popular.csv")
		if err := WriteExport(testListing(), FormatCSV, "", path); err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if !strings.HasPrefix(tu.MustReadFile(t, path), "ID,Title") {
			t.Error("unexpected file contents")
		}
	})

	t.Run("WriteExport to missing directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "out.txt")
		if err := WriteExport(testListing(), FormatText, "", path); err == nil {
			t.Error("expected write error")
		}
		if _, err := os.Stat(path); err == nil {
			t.Error("file should not exist")
		}
	})
}

func TestDetail(t *testing.T) {
	m := testListing().Items[0]

	t.Run("DetailMarkdown", func(t *testing.T) {
		md := DetailMarkdown(m, locale.KoreanKR, "https://image.example/t/p")
		for _, want := range []string{
			"# 기생충",
			"_Parasite_",
			locale.T(locale.KoreanKR, locale.KeyRating),
			"https://image.example/t/p/original/parasite.jpg",
			"https://www.themoviedb.org/movie/496243",
		} {
			if !strings.Contains(md, want) {
				t.Errorf("detail missing %q, got: %s", want, md)
			}
		}
	})

	t.Run("DetailMarkdown without poster", func(t *testing.T) {
		md := DetailMarkdown(testListing().Items[1], locale.EnglishUS, "https://image.example/t/p")
		if !strings.Contains(md, locale.T(locale.EnglishUS, locale.KeyNoImage)) {
			t.Errorf("expected no-image text, got: %s", md)
		}
	})

	t.Run("RenderDetail", func(t *testing.T) {
		out, err := RenderDetail(m, locale.EnglishUS, RenderOpts{Width: 80, Style: "notty"})
		if err != nil {
			t.Fatalf("RenderDetail failed: %v", err)
		}
		if !strings.Contains(out, "기생충") {
			t.Errorf("rendered output missing title: %s", out)
		}
	})

	t.Run("WrapWidth", func(t *testing.T) {
		tests := []struct{ term, want int }{
			{200, 120},
			{100, 90},
			{60, 54},
			{45, 41},
			{10, 20},
		}
		for _, tt := range tests {
			if got := WrapWidth(tt.term); got != tt.want {
				t.Errorf("WrapWidth(%d) = %d, want %d", tt.term, got, tt.want)
			}
		}
	})
}
