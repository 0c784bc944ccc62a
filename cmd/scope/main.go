package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/codescope/internal/client"
	"github.com/alfredjeanlab/codescope/internal/config"
	"github.com/alfredjeanlab/codescope/internal/events"
	"github.com/alfredjeanlab/codescope/internal/explorer"
	"github.com/alfredjeanlab/codescope/internal/logging"
	"github.com/alfredjeanlab/codescope/internal/ui"
)

var (
	configPath   string
	serverURL    string
	token        string
	projectFlag  string
	jsonOutput   bool
	outputFormat string
	logLevel     string
	colorFlag    string

	cfg       *config.Config
	logger    *logrus.Logger
	logCloser io.Closer
	publisher events.Publisher
	exp       *explorer.Explorer
)

var rootCmd = &cobra.Command{
	Use:           "scope <command>",
	Short:         "Explore Java code bases through the code analysis service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd.OutOrStdout())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		teardown()
	},
}

// setup loads configuration and builds the explorer shared by every
// command. Flags beat SCOPE_* variables and the config file, which beat the
// active remote.
func setup(out io.Writer) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	switch outputFormat {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q (must be table, json or yaml)", outputFormat)
	}
	if err := applyColor(out); err != nil {
		return err
	}

	name, remote := activeRemote()
	usedRemote = ""
	switch {
	case serverURL != "":
		c.ServerURL = serverURL
	case c.ServerURL == config.DefaultServerURL && remote.URL != "":
		c.ServerURL = remote.URL
		usedRemote = name
	}
	switch {
	case token != "":
		c.Token = token
	case c.Token == "":
		c.Token = remote.Token
	}
	if c.NATSURL == "" {
		c.NATSURL = remote.NATSURL
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	cfg = c

	logger, logCloser = logging.New(logging.Options{Level: c.LogLevel, Format: c.LogFormat, Output: c.LogOutput})
	if c.File != "" {
		logger.WithField("file", c.File).Debug("loaded config")
	}

	publisher = events.Discard
	if c.NATSURL != "" {
		p, err := events.NewNATSPublisher(c.NATSURL)
		if err != nil {
			logger.WithError(err).Warn("event publishing disabled")
		} else {
			publisher = p
		}
	}

	exp = explorer.New(client.NewHTTPClient(c.ServerURL, c.Token), explorer.Options{
		PollInterval:    c.PollInterval,
		MaxArchiveBytes: c.MaxArchiveBytes,
		MaxResults:      c.MaxResults,
		Logger:          logger,
		Publisher:       publisher,
	})
	return nil
}

// applyColor turns styling off unless --color allows it for out.
func applyColor(out io.Writer) error {
	mode, err := ui.ParseColorMode(colorFlag)
	if err != nil {
		return err
	}
	if !mode.Enabled(out) {
		ui.ForceNoColor()
	}
	return nil
}

func teardown() {
	if exp != nil {
		exp.Close()
		exp = nil
	}
	if publisher != nil {
		publisher.Close()
		publisher = nil
	}
	if logCloser != nil {
		logCloser.Close()
		logCloser = nil
	}
}

func format() string {
	if jsonOutput {
		return "json"
	}
	return outputFormat
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: scope.yaml in the user config dir or working directory)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "analysis service base URL (e.g. http://localhost:8080/api/v1)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "bearer token for the analysis service")
	rootCmd.PersistentFlags().StringVar(&projectFlag, "project", "", "project id (default: the last uploaded project)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON (same as --output json)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json or yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (default from config)")
	rootCmd.PersistentFlags().StringVar(&colorFlag, "color", "auto", "colorize output: auto, always or never")

	rootCmd.AddGroup(
		&cobra.Group{ID: "project", Title: "Project:"},
		&cobra.Group{ID: "explore", Title: "Explore:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetUsageTemplate(usageTemplate)
	rootCmd.SetHelpFunc(helpFunc)

	// Project
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(viewsCmd)
	rootCmd.AddCommand(deleteCmd)

	// Explore
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(callsCmd)
	rootCmd.AddCommand(dataflowCmd)
	rootCmd.AddCommand(similarCmd)
	rootCmd.AddCommand(conceptsCmd)
	rootCmd.AddCommand(qualityCmd)

	// System
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	err := rootCmd.Execute()
	// PersistentPostRun is skipped when a command fails.
	teardown()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
