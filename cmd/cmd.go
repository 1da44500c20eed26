// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func localeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "locale",
		Aliases: []string{"l"},
		Usage:   "Content and message language (en-US, ko-KR, ja-JP)",
	}
}

func listingFlags() []cli.Flag {
	return []cli.Flag{
		localeFlag(),
		&cli.IntFlag{
			Name:    "page",
			Aliases: []string{"p"},
			Usage:   "Page number",
			Value:   1,
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (json, csv, markdown, txt)",
			Value:   "txt",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write to a file (a directory for markdown, with downloaded posters)",
		},
	}
}

// setupCommand creates the config file and prepares the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml if missing, initialize the database and run migrations",
		Action: r.Setup,
	}
}

// popularCommand lists the popular movies.
func popularCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "popular",
		Usage:  "List popular movies",
		Flags:  listingFlags(),
		Action: r.Popular,
	}
}

// searchCommand searches every supported language and merges the results.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search movies by title in every supported language",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags:  listingFlags(),
		Action: r.Search,
	}
}

// showCommand renders one movie.
func showCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Show the detail card of a movie",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "id",
			},
		},
		Flags: []cli.Flag{
			localeFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.IntFlag{
				Name:  "width",
				Usage: "Terminal width used for word wrapping",
				Value: 80,
			},
			&cli.StringFlag{
				Name:  "style",
				Usage: "Glamour style (dark, light, notty); detected from the terminal when empty",
			},
		},
		Action: r.Show,
	}
}

// apiCommand handles direct metadata API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the movie metadata API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints the JSON response",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
		},
	}
}

func signUpCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "signup",
		Usage: "Create a local account",
		Flags: []cli.Flag{
			localeFlag(),
			&cli.StringFlag{Name: "userid", Usage: "Login ID"},
			&cli.StringFlag{Name: "email", Usage: "Email address"},
			&cli.StringFlag{Name: "name", Usage: "Display name"},
			&cli.StringFlag{Name: "password", Usage: "Password"},
			&cli.StringFlag{Name: "confirm", Usage: "Password confirmation"},
		},
		Action: r.SignUp,
	}
}

func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in and persist the session",
		Flags: []cli.Flag{
			localeFlag(),
			&cli.StringFlag{Name: "userid", Usage: "Login ID"},
			&cli.StringFlag{Name: "password", Usage: "Password"},
		},
		Action: r.Login,
	}
}

func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Revoke the session and clear the current user",
		Action: r.Logout,
	}
}

func whoamiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the current user",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.WhoAmI,
	}
}

// cacheCommand manages the on-disk response cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the API response cache",
		Commands: []*cli.Command{
			{
				Name:  "warm",
				Usage: "Prefetch popular listings and their details in every language",
				Flags: []cli.Flag{
					localeFlag(),
					&cli.IntFlag{
						Name:  "pages",
						Usage: "Number of popular pages to walk",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent workers (max 10)",
						Value: 5,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Detail requests per second",
						Value: 5,
					},
				},
				Action: r.CacheWarm,
			},
			{
				Name:  "stats",
				Usage: "Show cache entry counts",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CacheStats,
			},
			{
				Name:   "prune",
				Usage:  "Drop expired cache entries and expired sessions",
				Action: r.CachePrune,
			},
			{
				Name:   "clear",
				Usage:  "Remove every cached response",
				Action: r.CacheClear,
			},
		},
	}
}

// serveCommand runs the JSON API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (default from config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (default from config)",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive movie browser",
		Flags:   []cli.Flag{localeFlag()},
		Action:  r.TUI,
	}
}
