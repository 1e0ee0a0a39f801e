package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli"

	artifactrepo "github.com/portfoliocontrol/pcsrel/internal/artifact/repo"
	"github.com/portfoliocontrol/pcsrel/internal/cli/entity"
	"github.com/portfoliocontrol/pcsrel/internal/cli/repository"
	"github.com/portfoliocontrol/pcsrel/internal/cli/usecase"
	"github.com/portfoliocontrol/pcsrel/internal/notification"
	easypgp "github.com/portfoliocontrol/pcsrel/pkg/easygpg"
	"github.com/portfoliocontrol/pcsrel/pkg/systemutil"
)

var toolRunner = repository.ShellRunner{Echo: os.Stdout}

func notifier() usecase.Notifier {
	if releaseConfig.Notification.WebhookURL == "" {
		return nil
	}
	return notification.NewWebhook(releaseConfig.Notification.WebhookURL)
}

func signer() usecase.Signer {
	if releaseConfig.Installer.SigningKey == "" {
		return nil
	}
	return easypgp.EasyPGP{
		Binary: releaseConfig.Installer.GPG,
		Key:    releaseConfig.Installer.SigningKey,
	}
}

func gitBinary() (string, error) {
	git, err := systemutil.LookupTool(releaseConfig.Publish.Git, releaseConfig.Publish.GitPath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", usecase.ErrToolUnavailable, err)
	}
	return git, nil
}

func newBuildUsecase(tracker *usecase.RunTracker) *usecase.BuildUsecase {
	return usecase.NewBuildUsecase(releaseConfig, toolRunner, toolRunner, tracker)
}

func newInstallerUsecase(tracker *usecase.RunTracker) *usecase.InstallerUsecase {
	return usecase.NewInstallerUsecase(releaseConfig, toolRunner, toolRunner, signer(), notifier(), tracker)
}

func buildCommand(c *cli.Context) error {
	if err := requireReleaseConfig(); err != nil {
		return err
	}
	tracker, done := openTracker()
	defer done()

	artifact, err := newBuildUsecase(tracker).Build(ctx)
	if err != nil {
		return err
	}
	printSuccess("Executable ready:", artifact.Path)
	return nil
}

func packageCommand(c *cli.Context) error {
	if err := requireReleaseConfig(); err != nil {
		return err
	}
	tracker, done := openTracker()
	defer done()

	installer, err := newInstallerUsecase(tracker).Package(ctx)
	if err != nil {
		return err
	}
	printInstaller(installer)
	return nil
}

func releaseCommand(c *cli.Context) error {
	if err := requireReleaseConfig(); err != nil {
		return err
	}
	tracker, done := openTracker()
	defer done()

	uc := usecase.NewReleaseUsecase(newBuildUsecase(tracker), newInstallerUsecase(tracker))
	artifact, installer, err := uc.Release(ctx)
	if err != nil {
		return err
	}
	printSuccess("Executable ready:", artifact.Path)
	printInstaller(installer)
	return nil
}

func printInstaller(installer entity.Installer) {
	printSuccess("Installer ready:", installer.Path)
	if installer.SignaturePath != "" {
		printSuccess("Signature:", installer.SignaturePath)
	}
}

func identityCommand(c *cli.Context) error {
	git, err := gitBinary()
	if err != nil {
		return err
	}
	tracker, done := openTracker()
	defer done()

	uc := usecase.NewIdentityUsecase(repository.NewGitIdentityStore(git, repository.ShellRunner{}), tracker)
	current, err := uc.Current(ctx)
	if err != nil {
		return err
	}

	input := entity.GitIdentity{Name: c.String("name"), Email: c.String("email")}.Normalize()
	if input.Name == "" {
		if input.Name, err = promptRequired("Git user name", current.Name); err != nil {
			return err
		}
	}
	if input.Email == "" {
		if input.Email, err = promptRequired("Git user email", current.Email); err != nil {
			return err
		}
	}

	changed, err := uc.Configure(ctx, input)
	if err != nil {
		return err
	}
	if changed {
		printSuccess(fmt.Sprintf("Git identity set to %s <%s>", input.Name, input.Email))
	} else {
		printSuccess(fmt.Sprintf("Git identity already %s <%s>", input.Name, input.Email))
	}
	return nil
}

func newPublishUsecase(tracker *usecase.RunTracker) (*usecase.PublishUsecase, error) {
	if err := releaseConfig.ValidatePublish(); err != nil {
		return nil, err
	}
	git, err := gitBinary()
	if err != nil {
		return nil, err
	}
	repo := repository.NewGitRepo(releaseConfig.Publish.RepoDir, git, toolRunner)
	p := releaseConfig.Publish
	return usecase.NewPublishUsecase(repo, notifier(), tracker, p.Remote, p.Branch), nil
}

func publishCommand(c *cli.Context) error {
	tracker, done := openTracker()
	defer done()
	uc, err := newPublishUsecase(tracker)
	if err != nil {
		return err
	}

	url := c.String("url")
	if url == "" {
		if url, err = promptOptional("Remote repository URL"); err != nil {
			return err
		}
	}

	link, err := uc.Publish(ctx, url)
	if errors.Is(err, usecase.ErrValidation) {
		printHint("No URL given, nothing was changed.")
		return err
	}
	if errors.Is(err, usecase.ErrRemoteExists) {
		printHint("Remove or rename the existing remote first, for example: git remote remove " + uc.Remote)
		return err
	}
	if err != nil {
		return err
	}
	printSuccess(fmt.Sprintf("Published %s to %s (%s)", link.Branch, link.URL, link.Name))
	return nil
}

func republishCommand(c *cli.Context) error {
	tracker, done := openTracker()
	defer done()
	uc, err := newPublishUsecase(tracker)
	if err != nil {
		return err
	}

	result, err := uc.Recover(ctx)
	if err != nil {
		return err
	}
	if !result.Pushed {
		printFailure("Publish failed:", result.Cause)
		printHint(result.Diagnosis)
		return errHandled
	}
	if result.RemoteURL != "" {
		printSuccess("Published to", result.RemoteURL)
	} else {
		printSuccess("Published to the configured upstream")
	}
	return nil
}

func historyCommand(c *cli.Context) error {
	history, done, err := openHistory()
	if err != nil {
		return err
	}
	defer done()

	runs, err := history.Recent(ctx, c.Int("limit"))
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTEP\tAPP\tVERSION\tSTATE\tSTARTED\tDURATION")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			run.ID,
			run.Step,
			run.AppName,
			run.Version,
			colorState(run.State),
			run.StartedAt.Local().Format(time.DateTime),
			run.Duration().Round(time.Millisecond),
		)
	}
	return w.Flush()
}

func colorState(state string) string {
	switch state {
	case entity.RunSuccess:
		return color.GreenString(state)
	case entity.RunFailure:
		return color.RedString(state)
	default:
		return color.YellowString(state)
	}
}

func logsCommand(c *cli.Context) error {
	history, done, err := openHistory()
	if err != nil {
		return err
	}
	defer done()

	run, err := history.Find(ctx, c.Args().First())
	if err != nil {
		return err
	}
	if run.LogPath == "" {
		return fmt.Errorf("run %s has no log", run.ID)
	}
	slog.Debug("streaming log", slog.String("run", run.ID), slog.String("path", run.LogPath))
	return systemutil.StreamLog(ctx, run.LogPath, c.Bool("follow"), os.Stdout)
}

func artifactsCommand(c *cli.Context) error {
	list, err := artifactrepo.NewFileRepo(releaseConfig.Installer.OutputDir).GetArtifactList()
	if err != nil {
		return err
	}
	if list.TotalData == 0 {
		fmt.Println("No installers in", releaseConfig.Installer.OutputDir)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tMODIFIED\tSIGNED")
	for _, artifact := range list.Artifacts {
		fmt.Fprintf(w, "%s\t%d\t%s\t%t\n",
			artifact.Name,
			artifact.Size,
			artifact.ModTime.Local().Format(time.DateTime),
			artifact.Signed,
		)
	}
	return w.Flush()
}

func updateCommand(c *cli.Context) error {
	u := releaseConfig.Update
	uc := usecase.NewUpdateUsecase(
		repository.NewGitHubReleases(u.Owner, u.Repo),
		repository.BinaryUpdater{},
		version,
	)

	check, err := uc.Check(ctx)
	if err != nil {
		return err
	}
	if !check.Newer {
		printSuccess("pcsrel is up to date:", version)
		return nil
	}

	fmt.Printf("pcsrel %s is available (current %s)\n", check.Release.Version(), version)
	if !c.Bool("yes") && !confirm("Update now") {
		return nil
	}
	if err := uc.Apply(ctx, check.Asset); err != nil {
		return err
	}
	printSuccess("Updated to", check.Release.Version())
	return nil
}
