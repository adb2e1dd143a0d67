// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// playlistFlags are shared by the commands that run the genre pipeline.
func playlistFlags() []cli.Flag {
	return []cli.Flag{
		configFlag(),
		&cli.StringFlag{
			Name:    "refresh-token",
			Usage:   "Spotify refresh token (default: credentials.spotify.refresh_token)",
			Sources: cli.EnvVars("SPOTIFY_REFRESH_TOKEN"),
		},
		&cli.StringFlag{
			Name:  "strategy",
			Usage: "Genre source: artist or album (default: resolution.strategy)",
		},
		&cli.BoolFlag{
			Name:  "partial",
			Usage: "Skip tracks that fail to resolve instead of aborting",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
		},
	}
}

func exportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "export",
			Usage: "Also write the resolved tracks to a file: csv or md",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Export path; csv writes {output}_genres.csv and {output}_metadata.json (default: playlist ID)",
		},
	}
}

func genreFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:     "genre",
		Aliases:  []string{"g"},
		Usage:    "Genre to match, case-insensitive substring (repeatable)",
		Required: true,
	}
}

func playlistArg() []cli.Argument {
	return []cli.Argument{
		&cli.StringArg{Name: "playlist"},
	}
}

// setupCommand initializes the config file and the job history database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml if missing, initialize the database and run migrations",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// authCommand runs the OAuth2 authorization code flow and stores the refresh token.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with Spotify using OAuth2 and save the refresh token",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the authorization URL instead of opening a browser",
			},
		},
		Action: r.Auth,
	}
}

// serveCommand runs the HTTP proxy.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the genre filtering web service",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (default: server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (default: server.port)",
			},
		},
		Action: r.Serve,
	}
}

func genresCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "genres",
		Usage:     "List the genres of a playlist and the tracks that have them",
		Arguments: playlistArg(),
		Flags:     append(playlistFlags(), exportFlags()...),
		Action:    r.Genres,
	}
}

func filterCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "filter",
		Usage:     "List the tracks of a playlist matching any of the given genres",
		Arguments: playlistArg(),
		Flags:     append(append(playlistFlags(), genreFlag()), exportFlags()...),
		Action:    r.Filter,
	}
}

func createCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a private playlist from the tracks matching the given genres",
		Arguments: playlistArg(),
		Flags: append(playlistFlags(),
			genreFlag(),
			&cli.StringFlag{
				Name:     "name",
				Aliases:  []string{"n"},
				Usage:    "Name of the new playlist",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "description",
				Usage: "Description of the new playlist",
			},
		),
		Action: r.Create,
	}
}

// jobsCommand lists the filtered playlists created so far.
func jobsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "jobs",
		Usage: "Show the history of filtered playlists",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of jobs to show",
				Value: 20,
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Only show jobs with this status: completed or failed",
			},
			&cli.StringFlag{
				Name:  "source",
				Usage: "Only show jobs created from this playlist",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Jobs,
	}
}
