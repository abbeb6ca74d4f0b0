// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Xbox Live authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in to Xbox Live",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "browser",
						Usage: "Use the browser authorization flow instead of the device code flow",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show the current authentication state",
				Action: r.AuthStatus,
			},
		},
	}
}

// snapshotCommand handles snapshot build operations
func snapshotCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "snapshot",
		Aliases: []string{"snap"},
		Usage:   "Build lifetime snapshots from Xbox Live data",
		Commands: []*cli.Command{
			{
				Name:  "build",
				Usage: "Fetch an account's lifetime data and write the snapshot JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "gamertag",
					},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "max-games",
						Usage: "Titles considered for the achievements pass",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Snapshot output directory",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent achievement fetchers",
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Achievement fetches per second",
					},
				},
				Action: r.SnapshotBuild,
			},
		},
	}
}

// renderCommand handles report rendering from snapshot files
func renderCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "Render the HTML report and SVG share card from a snapshot file",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "snapshot",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Report output directory",
			},
			&cli.BoolFlag{
				Name:  "no-images",
				Usage: "Skip downloading game art",
			},
		},
		Action: r.Render,
	}
}

// apiCommand handles direct Xbox Live API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct Xbox Live API calls",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Authorized GET against an Xbox Live host, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "host",
						Usage: "Target host (profile, titlehub, userstats, achievements)",
						Value: "profile",
					},
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

// setupCommand handles setup operations for the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// historyCommand handles snapshot history operations
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Browse recorded snapshots",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recorded snapshots, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "gamertag",
						Usage: "Filter by gamertag",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of records to show",
						Value: 20,
					},
				},
				Action: r.HistoryList,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive history browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for browsing snapshot history",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "gamertag",
				Usage: "Filter history by gamertag",
			},
		},
		Action: r.TUI,
	}
}
