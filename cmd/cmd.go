// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for the local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create config.toml if missing, initialize the database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "status",
				Usage:  "List migrations and whether each has been applied",
				Action: r.MigrationStatus,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recently applied migration",
				Action: r.MigrationRollback,
			},
		},
	}
}

// authCommand handles the backend session
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the backend session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in with a username and password and save the session token",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "username",
						Aliases:  []string{"u"},
						Usage:    "Backend username",
						Sources:  cli.EnvVars("YTSUBS_USERNAME"),
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Backend password",
						Sources:  cli.EnvVars("YTSUBS_PASSWORD"),
						Required: true,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "import",
				Usage: "Import a session token from a cURL command copied out of browser DevTools",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
				},
				Action: r.AuthImport,
			},
			{
				Name:   "status",
				Usage:  "Check backend health and whether a session is saved",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Remove the saved session",
				Action: r.AuthLogout,
			},
		},
	}
}

// channelsCommand handles the tracked channel list
func channelsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "channels",
		Aliases: []string{"ch"},
		Usage:   "List, change and export tracked channels",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Show one page of tracked channels",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "page",
						Usage: "Page number (1-based)",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "page-size",
						Usage: "Channels per page (default from config)",
					},
					&cli.StringFlag{
						Name:    "search",
						Aliases: []string{"s"},
						Usage:   "Filter by uploader or URL",
					},
					&cli.StringFlag{
						Name:  "sort",
						Usage: "Sort order: asc or desc (default from config)",
					},
					&cli.StringFlag{
						Name:  "sub-folder",
						Usage: "Only channels in this sub-folder",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ChannelsList,
			},
			{
				Name:  "apply",
				Usage: "Queue additions and removals, then commit them in one batch",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "add",
						Aliases: []string{"a"},
						Usage:   "Channel handle or URL to add (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:    "remove",
						Aliases: []string{"r"},
						Usage:   "Channel URL to remove (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ChannelsApply,
			},
			{
				Name:  "export",
				Usage: "Export every tracked channel",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: json, csv, markdown, txt",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory",
						Value:   "./exports",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent page fetches (max 10)",
						Value: 4,
					},
					&cli.IntFlag{
						Name:  "page-size",
						Usage: "Channels per request",
						Value: 50,
					},
				},
				Action: r.ChannelsExport,
			},
			{
				Name:  "settings",
				Usage: "Per-channel download settings",
				Commands: []*cli.Command{
					{
						Name:  "get",
						Usage: "Show a channel's settings",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "id",
								Usage:    "Channel ID",
								Required: true,
							},
						},
						Action: r.SettingsGet,
					},
					{
						Name:  "set",
						Usage: "Change a channel's settings; omitted flags keep their current value",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "id",
								Usage:    "Channel ID",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "sub-folder",
								Usage: "Sub-folder name (empty for the default folder)",
							},
							&cli.StringFlag{
								Name:  "quality",
								Usage: "Video quality, e.g. 1080p",
							},
							&cli.IntFlag{
								Name:  "min-duration",
								Usage: "Minimum video length in seconds",
							},
							&cli.IntFlag{
								Name:  "max-duration",
								Usage: "Maximum video length in seconds",
							},
							&cli.StringFlag{
								Name:  "title-filter",
								Usage: "Only download titles matching this regex",
							},
						},
						Action: r.SettingsSet,
					},
				},
			},
		},
	}
}

// downloadsCommand handles download triggers
func downloadsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "downloads",
		Usage: "Trigger downloads on the backend",
		Commands: []*cli.Command{
			{
				Name:  "trigger",
				Usage: "Download new videos for every channel, or only the given video URLs",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "url",
						Usage: "Video URL to download (repeatable)",
					},
				},
				Action: r.DownloadsTrigger,
			},
		},
	}
}

// historyCommand prints the local commit journal
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show batched channel commits recorded locally",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of commits to show",
				Value:   20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}

// cacheCommand reads the local channel cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect channels cached from previous listings",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List cached channels",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "search",
						Aliases: []string{"s"},
						Usage:   "Filter by uploader or URL",
					},
				},
				Action: r.CacheList,
			},
		},
	}
}

// apiCommand handles direct backend API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the backend API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET to the backend, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// serveCommand runs the local control API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve a local JSON API over one pending-change queue",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default from config)",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for interactive channel management.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive channel manager",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-events",
				Usage: "Do not listen for backend change events",
			},
		},
		Action: r.TUI,
	}
}

// openCommand opens the backend web UI
func openCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "open",
		Usage:  "Open the backend web UI in a browser",
		Action: r.Open,
	}
}
