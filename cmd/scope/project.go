package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/codescope/internal/model"
	"github.com/alfredjeanlab/codescope/internal/session"
	"github.com/alfredjeanlab/codescope/internal/ui"
)

var errNoActiveProject = errors.New("no active project; run 'scope upload <archive.zip>' or pass --project")

// resolveProject picks the project a command targets: an explicit argument,
// then --project, then the last uploaded project.
func resolveProject(args []string) (string, error) {
	switch {
	case len(args) > 0 && args[0] != "":
		return args[0], nil
	case projectFlag != "":
		return projectFlag, nil
	}
	if id := activeProject(); id != "" {
		return id, nil
	}
	return "", errNoActiveProject
}

// attach resumes the session on the targeted project. The project last
// uploaded from here may still be analyzing, so for it not found means
// processing. Any other id must be known to the service.
func attach(ctx context.Context, args []string) (session.Snapshot, error) {
	id, err := resolveProject(args)
	if err != nil {
		return session.Snapshot{}, err
	}
	resume := exp.Resume
	if id == activeProject() {
		resume = exp.ResumeUploaded
	}
	snap, err := resume(ctx, id)
	if err != nil {
		return snap, err
	}
	if err := refreshProject(usedRemote, snap); err != nil {
		logger.WithError(err).Warn("could not record the project status")
	}
	return snap, nil
}

var uploadCmd = &cobra.Command{
	Use:     "upload <archive.zip>",
	Short:   "Upload a ZIP archive of Java sources for analysis",
	GroupID: "project",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wait, _ := cmd.Flags().GetBool("wait")
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		snap, err := exp.UploadFile(ctx, args[0])
		if err != nil {
			return err
		}
		if err := recordProject(snap); err != nil {
			logger.WithError(err).Warn("could not remember the active project")
		}
		if !wait || snap.Status != model.StatusProcessing {
			return printStatus(cmd.OutOrStdout(), snap)
		}

		if format() == "table" {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "project %s %s, waiting for analysis...\n", ui.RenderAccent(snap.ProjectID), ui.RenderStatus(snap.Status))
			exp.Subscribe(func(ev session.Event) {
				if ev.Kind == session.EventPollError {
					fmt.Fprintf(cmd.ErrOrStderr(), "status check failed: %s\n", ev.Error)
				}
			})
		}
		snap, err = exp.WaitReady(ctx)
		if err != nil {
			return err
		}
		if err := refreshProject(usedRemote, snap); err != nil {
			logger.WithError(err).Warn("could not record the project status")
		}
		if err := printStatus(cmd.OutOrStdout(), snap); err != nil {
			return err
		}
		if snap.Status == model.StatusFailed {
			return fmt.Errorf("analysis of %s failed: %s", snap.ProjectID, snap.Message)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:     "status [project-id]",
	Short:   "Show the analysis status of a project",
	GroupID: "project",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := attach(cmd.Context(), args)
		if err != nil {
			return err
		}
		return printStatus(cmd.OutOrStdout(), snap)
	},
}

var viewsCmd = &cobra.Command{
	Use:     "views",
	Short:   "List the views reachable for the active project",
	GroupID: "project",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := attach(cmd.Context(), nil); err != nil && !errors.Is(err, errNoActiveProject) {
			return err
		}
		return printViews(cmd, exp.Views())
	},
}

func printViews(cmd *cobra.Command, views []model.View) error {
	if format() != "table" {
		return printDoc(cmd.OutOrStdout(), map[string][]model.View{"views": views})
	}
	for _, v := range views {
		fmt.Fprintln(cmd.OutOrStdout(), v)
	}
	return nil
}

var deleteCmd = &cobra.Command{
	Use:     "delete [project-id]",
	Short:   "Delete a project from the analysis service",
	GroupID: "project",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if _, err := attach(ctx, args); err != nil {
			return err
		}
		id := exp.Snapshot().ProjectID
		if err := exp.Discard(ctx); err != nil {
			return err
		}
		if activeProject() == id {
			if err := recordProject(session.Snapshot{}); err != nil {
				logger.WithError(err).Warn("could not clear the active project")
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "project %s deleted\n", id)
		return nil
	},
}

func init() {
	uploadCmd.Flags().Bool("wait", false, "wait until the analysis finishes")
}
