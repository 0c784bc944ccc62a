package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/codescope/internal/client"
	"github.com/alfredjeanlab/codescope/internal/explorer"
	"github.com/alfredjeanlab/codescope/internal/logging"
	"github.com/alfredjeanlab/codescope/internal/session"
	"github.com/alfredjeanlab/codescope/internal/ui"
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Manage analysis services and the project uploaded to each",
	Long: `A remote is a named analysis service. Each remote remembers the project
last uploaded to it, so switching remotes switches the default project too.`,
	GroupID: "system",
	// Remote subcommands build their own clients when they need one.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return applyColor(cmd.OutOrStdout()) },
	PersistentPostRun: func(cmd *cobra.Command, args []string) {},
}

var remoteAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Add a remote, or update its URL and credentials",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, url := args[0], strings.TrimRight(args[1], "/")
		err := updateRemotes(func(cfg *RemotesConfig) error {
			r, exists := cfg.Remotes[name]
			if exists && r.URL != url {
				// A different service does not know the old project.
				r.Project = nil
			}
			r.URL = url
			if cmd.Flags().Changed("token") {
				r.Token, _ = cmd.Flags().GetString("token")
			}
			if cmd.Flags().Changed("nats") {
				r.NATSURL, _ = cmd.Flags().GetString("nats")
			}
			cfg.Remotes[name] = r
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "remote %s -> %s\n", name, url)
		return nil
	},
}

var remoteRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Forget a remote and its project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		err := updateRemotes(func(cfg *RemotesConfig) error {
			if _, ok := cfg.Remotes[name]; !ok {
				return fmt.Errorf("remote %q not found", name)
			}
			delete(cfg.Remotes, name)
			if cfg.Active == name {
				cfg.Active = ""
			}
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "remote %s removed\n", name)
		return nil
	},
}

var remoteUseCmd = &cobra.Command{
	Use:   "use [name]",
	Short: "Make a remote the default service (no name goes back to --server)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var name string
		if len(args) == 1 {
			name = args[0]
		}
		err := updateRemotes(func(cfg *RemotesConfig) error {
			if _, ok := cfg.Remotes[name]; name != "" && !ok {
				return fmt.Errorf("remote %q not found", name)
			}
			cfg.Active = name
			return nil
		})
		if err != nil {
			return err
		}
		if name == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "no active remote")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "using remote %s\n", name)
		return nil
	},
}

var remoteListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List remotes with their last known project status",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRemotesConfig()
		if err != nil {
			return err
		}
		if len(cfg.Remotes) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no remotes; add one with 'scope remote add <name> <url>'")
			return nil
		}
		names := make([]string, 0, len(cfg.Remotes))
		for name := range cfg.Remotes {
			names = append(names, name)
		}
		sort.Strings(names)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  REMOTE\tURL\tPROJECT\tSTATUS")
		for _, name := range names {
			r := cfg.Remotes[name]
			marker := "  "
			if name == cfg.Active {
				marker = "* "
			}
			project := "-"
			if r.Project != nil {
				project = r.Project.ID
			}
			fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\n", marker, name, r.URL, project, ui.RenderStatus(r.Project.status()))
		}
		return w.Flush()
	},
}

var remoteShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a remote and check its project's status",
	Long: `Show a remote (the active one by default). When the remote holds a
project, its status is fetched from the service and recorded. --offline
prints the last recorded status instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		offline, _ := cmd.Flags().GetBool("offline")
		cfg, err := loadRemotesConfig()
		if err != nil {
			return err
		}
		name := cfg.Active
		if len(args) == 1 {
			name = args[0]
		}
		if name == "" {
			return fmt.Errorf("no active remote; name one or run 'scope remote use <name>'")
		}
		r, ok := cfg.Remotes[name]
		if !ok {
			return fmt.Errorf("remote %q not found", name)
		}

		var checkErr error
		if r.Project != nil && !offline {
			var snap session.Snapshot
			snap, checkErr = checkRemoteProject(cmd.Context(), r)
			if checkErr == nil {
				if err := refreshProject(name, snap); err != nil {
					return err
				}
				r.Project = newProjectState(snap)
			}
		}
		printRemote(cmd.OutOrStdout(), name, name == cfg.Active, r, checkErr)
		return nil
	},
}

// checkRemoteProject attaches a throwaway session to r's project and
// returns its status.
func checkRemoteProject(ctx context.Context, r Remote) (session.Snapshot, error) {
	e := explorer.New(client.NewHTTPClient(r.URL, r.Token), explorer.Options{Logger: logging.Discard()})
	defer e.Close()
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return e.ResumeUploaded(ctx, r.Project.ID)
}

func printRemote(out io.Writer, name string, active bool, r Remote, checkErr error) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if active {
		name += " (active)"
	}
	fmt.Fprintf(w, "remote:\t%s\n", name)
	fmt.Fprintf(w, "url:\t%s\n", r.URL)
	if r.Token != "" {
		fmt.Fprintf(w, "token:\t%s\n", maskToken(r.Token))
	}
	if r.NATSURL != "" {
		fmt.Fprintf(w, "events:\t%s\n", r.NATSURL)
	}
	if r.Project == nil {
		fmt.Fprintln(w, "project:\tnone")
		w.Flush()
		return
	}
	fmt.Fprintf(w, "project:\t%s\n", r.Project.ID)
	fmt.Fprintf(w, "status:\t%s\n", ui.RenderStatus(r.Project.status()))
	fmt.Fprintf(w, "checked:\t%s\n", r.Project.Checked.Local().Format(time.DateTime))
	if checkErr != nil {
		fmt.Fprintf(w, "check failed:\t%v\n", checkErr)
	}
	w.Flush()
}

// maskToken keeps a short prefix so tokens can be told apart.
func maskToken(tok string) string {
	if len(tok) <= 8 {
		return strings.Repeat("*", len(tok))
	}
	return tok[:8] + strings.Repeat("*", len(tok)-8)
}

func init() {
	remoteAddCmd.Flags().String("token", "", "bearer token for the analysis service")
	remoteAddCmd.Flags().String("nats", "", "NATS URL where the service's session events are published")
	remoteShowCmd.Flags().Bool("offline", false, "print the recorded status without contacting the service")

	remoteCmd.AddCommand(remoteAddCmd, remoteRemoveCmd, remoteUseCmd, remoteListCmd, remoteShowCmd)
}
