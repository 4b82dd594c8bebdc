package cmd

import (
	"context"
	"fmt"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"

	"github.com/yockii/yoctl/internal/cli"
	"github.com/yockii/yoctl/pkg/logging"
)

// githubRepoSlug is the repository (owner/repo) releases are fetched from.
const githubRepoSlug = "yockii/yoctl"

// releaseUpdater is the part of *selfupdate.Updater self-update uses.
type releaseUpdater interface {
	DetectLatest(ctx context.Context, repository selfupdate.Repository) (*selfupdate.Release, bool, error)
	UpdateTo(ctx context.Context, rel *selfupdate.Release, cmdPath string) error
}

// newUpdater is replaced in tests.
var newUpdater = func() (releaseUpdater, error) {
	return selfupdate.NewUpdater(selfupdate.Config{})
}

var selfUpdateCheck bool

func newSelfUpdateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "self-update",
		Short: "Update yoctl to the latest version",
		Long: `Check GitHub for the latest yoctl release and replace the running
binary when it is newer. With --check only report whether an update exists.`,
		Args: cobra.NoArgs,
		RunE: runSelfUpdate,
	}
	c.Flags().BoolVar(&selfUpdateCheck, "check", false, "Only check for a newer release")
	return c
}

func runSelfUpdate(cmd *cobra.Command, args []string) error {
	currentVersion := rootCmd.Version
	if currentVersion == "" || currentVersion == "dev" {
		return fmt.Errorf("cannot self-update a development version")
	}

	out := cmd.OutOrStdout()
	printer, err := newPrinter(cli.Connection{}, out)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	updater, err := newUpdater()
	if err != nil {
		return fmt.Errorf("failed to create updater: %w", err)
	}

	stop := printer.StartSpinner("Checking for updates")
	latest, found, err := updater.DetectLatest(ctx, selfupdate.ParseSlug(githubRepoSlug))
	stop(err != nil, "update check failed")
	if err != nil {
		return fmt.Errorf("error detecting latest version: %w", err)
	}
	if !found {
		return fmt.Errorf("latest release for %s could not be found", githubRepoSlug)
	}
	logging.Debug("SelfUpdate", "Latest release of %s is %s", githubRepoSlug, latest.Version())

	if !latest.GreaterThan(currentVersion) {
		fmt.Fprintf(out, "yoctl %s is the latest version.\n", currentVersion)
		return nil
	}

	fmt.Fprintf(out, "Found newer version: %s (current %s, published %s)\n", latest.Version(), currentVersion, cli.FormatTime(latest.PublishedAt))
	if latest.ReleaseNotes != "" {
		fmt.Fprintf(out, "Release notes:\n%s\n", latest.ReleaseNotes)
	}
	if selfUpdateCheck {
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}

	stop = printer.StartSpinner(fmt.Sprintf("Updating %s", exe))
	err = updater.UpdateTo(ctx, latest, exe)
	stop(err != nil, "update failed")
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	printer.Success("Updated to version %s", latest.Version())
	return nil
}
