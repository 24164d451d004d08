// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

// Flags hold parse state, so every command gets its own instance.
func jsonFlag() cli.Flag { return &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"} }
func prettyFlag() cli.Flag {
	return &cli.BoolFlag{Name: "pretty", Usage: "Pretty-print JSON output", Value: true}
}
func qrFlag() cli.Flag { return &cli.BoolFlag{Name: "qr", Usage: "Print a QR code of the share link"} }

// setupCommand creates the config file and the local session database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize the local session database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   r.configPath,
			},
		},
		Action: r.Setup,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "auth",
		Usage:  "Sign in, sign up and sign out",
		Before: r.Connect,
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with email and password (prompts when flags are omitted)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email"},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password", Sources: cli.EnvVars("WW_PASSWORD")},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "signup",
				Usage: "Create an account with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email"},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password", Sources: cli.EnvVars("WW_PASSWORD")},
				},
				Action: r.AuthSignUp,
			},
			{
				Name:  "oauth",
				Usage: "Sign in through the browser",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "provider", Usage: "OAuth provider", Value: "google"},
					&cli.DurationFlag{Name: "timeout", Usage: "How long to wait for the browser sign-in", Value: 5 * time.Minute},
				},
				Action: r.AuthOAuth,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and forget the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:    "whoami",
				Aliases: []string{"status"},
				Usage:   "Show the signed-in user",
				Flags:   []cli.Flag{jsonFlag()},
				Action:  r.AuthStatus,
			},
		},
	}
}

// roomsCommand handles room operations
func roomsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "rooms",
		Usage:  "List, create and invite to rooms",
		Before: r.Connect,
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List your rooms",
				Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
				Action: r.RoomsList,
			},
			{
				Name:  "create",
				Usage: "Create a room",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "public", Usage: "Anyone can see the room"},
					&cli.StringSliceFlag{Name: "member", Usage: "User id to add (repeatable)"},
				},
				Action: r.RoomsCreate,
			},
			{
				Name:  "invite",
				Usage: "Invite a user to a room",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "room"},
					&cli.StringArg{Name: "user"},
				},
				Action: r.RoomsInvite,
			},
		},
	}
}

// sessionsCommand handles voting session operations
func sessionsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "sessions",
		Aliases: []string{"session", "s"},
		Usage:   "Start voting sessions, vote and view matches",
		Before:  r.Connect,
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Start a voting session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "room", Usage: "Room id to scope the session to"},
					qrFlag(),
				},
				Action: r.SessionsCreate,
			},
			{
				Name:  "show",
				Usage: "Show a session and its share link",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					qrFlag(),
					&cli.BoolFlag{Name: "copy", Usage: "Copy the share link to the clipboard"},
					jsonFlag(),
				},
				Action: r.SessionsShow,
			},
			{
				Name:  "vote",
				Usage: "Search for movies and vote on them one at a time",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Movie search query"},
				},
				Action: r.SessionsVote,
			},
			{
				Name:  "matches",
				Usage: "Show or export a session's matches",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "text, csv, markdown or json", Value: "text"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write to files at this path instead of stdout"},
					&cli.BoolFlag{Name: "poster", Usage: "Download the first match's poster with markdown exports"},
				},
				Action: r.SessionsMatches,
			},
		},
	}
}

// profileCommand handles profile and privacy settings
func profileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "profile",
		Usage:  "View and update your profile",
		Before: r.Connect,
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show your profile",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.ProfileShow,
			},
			{
				Name:  "set",
				Usage: "Update your username and invite preference",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Display name"},
					&cli.StringFlag{Name: "invite", Usage: "Who can invite you: everyone, following or none"},
				},
				Action: r.ProfileSet,
			},
			{
				Name:  "privacy",
				Usage: "Set who can invite you to rooms",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "preference"},
				},
				Action: r.ProfilePrivacy,
			},
		},
	}
}

// friendsCommand handles the follow graph
func friendsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "friends",
		Aliases: []string{"social"},
		Usage:   "Find people and manage who you follow",
		Before:  r.Connect,
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search users by username or email",
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.FriendsSearch,
			},
			{
				Name:      "follow",
				Usage:     "Follow a user",
				Arguments: []cli.Argument{&cli.StringArg{Name: "user"}},
				Action:    r.FriendsFollow,
			},
			{
				Name:      "unfollow",
				Usage:     "Unfollow a user",
				Arguments: []cli.Argument{&cli.StringArg{Name: "user"}},
				Action:    r.FriendsUnfollow,
			},
			{
				Name:   "following",
				Usage:  "List who you follow",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.FriendsFollowing,
			},
			{
				Name:   "followers",
				Usage:  "List your followers",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.FriendsFollowers,
			},
		},
	}
}

// apiCommand handles direct, authenticated API calls
func apiCommand(r *Runner) *cli.Command {
	pathArg := func() []cli.Argument { return []cli.Argument{&cli.StringArg{Name: "path"}} }
	return &cli.Command{
		Name:   "api",
		Usage:  "Direct authenticated calls to the backend, prints raw JSON",
		Before: r.Connect,
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "GET a path, e.g. /api/rooms",
				Arguments: pathArg(),
				Flags:     []cli.Flag{prettyFlag()},
				Action:    r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "POST a JSON body",
				Arguments: pathArg(),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "JSON body to send", Required: true},
					prettyFlag(),
				},
				Action: r.APIPost,
			},
			{
				Name:      "delete",
				Usage:     "DELETE a path",
				Arguments: pathArg(),
				Action:    r.APIDelete,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal UI",
		Before:  r.Connect,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Usage: "Route to open, e.g. /session/<id>", Value: "/"},
		},
		Action: r.TUI,
	}
}
