package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/blang/semver"
	goerrors "github.com/go-errors/errors"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
	"github.com/spf13/cobra"
)

// repoSlug is the GitHub repository releases are looked up in.
const repoSlug = "Fepozopo/rescale"

// updater checks GitHub releases and replaces the running binary.
// detect and apply are selfupdate.DetectLatest and selfupdate.UpdateTo
// outside of tests.
type updater struct {
	detect func(slug string) (*selfupdate.Release, bool, error)
	apply  func(assetURL, exe string) error
	in     io.Reader // answers to the confirmation prompt
	out    io.Writer
	yes    bool // skip the prompt
}

// updateCommand builds `rescale update`.
func (a *app) updateCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "update",
		Short: "check for a newer release and install it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(func() error {
				u := &updater{
					detect: selfupdate.DetectLatest,
					apply:  selfupdate.UpdateTo,
					in:     a.stdin,
					out:    a.stdout,
					yes:    yes,
				}
				if err := u.check(Version); err != nil {
					return goerrors.Wrap(err, 0)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "update without asking")
	return cmd
}

// check compares current against the latest release and, once confirmed,
// replaces the running executable with the release asset. Having nothing to
// do (no release, already current, no asset, declined) is not an error.
func (u *updater) check(current string) error {
	fmt.Fprintf(u.out, "Current version: %s\n", current)
	// ParseTolerant accepts a leading "v" and short forms like "1.2".
	currentVer, err := semver.ParseTolerant(current)
	if err != nil {
		return fmt.Errorf("could not parse current version %q: %w", current, err)
	}

	// Ask GitHub for the newest release with an asset for this platform.
	latest, found, err := u.detect(repoSlug)
	if err != nil {
		return fmt.Errorf("update check failed: %w", err)
	}
	// No release found or nil result -> nothing to do.
	if !found || latest == nil {
		fmt.Fprintf(u.out, "No releases found for %s.\n", repoSlug)
		return nil
	}
	fmt.Fprintf(u.out, "Latest version: %s\n", latest.Version)

	// Same or older release -> up-to-date.
	if latest.Version.LTE(currentVer) {
		fmt.Fprintf(u.out, "You are already running the latest version: %s.\n", currentVer)
		return nil
	}
	// Without an asset URL we cannot update automatically.
	if latest.AssetURL == "" {
		fmt.Fprintf(u.out, "A new version (%s) is available but there is no downloadable asset.\n", latest.Version)
		fmt.Fprintln(u.out, "Please visit the project releases page to download the new version.")
		return nil
	}

	// Prompt the user to confirm updating unless --yes was given.
	// Anything but y/yes, including EOF, declines.
	if !u.yes {
		fmt.Fprintf(u.out, "A new version (%s) is available. Update now? (y/N): ", latest.Version)
		answer, err := bufio.NewReader(u.in).ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed reading input: %w", err)
		}
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(u.out, "Update cancelled.")
			return nil
		}
	}

	fmt.Fprintln(u.out, "Updating...")
	// Replace the binary that is running now, wherever it was installed.
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("could not locate executable: %w", err)
	}
	// UpdateTo downloads the asset and swaps it in place of exe.
	if err := u.apply(latest.AssetURL, exe); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	fmt.Fprintf(u.out, "Updated to version %s.\n", latest.Version)
	return nil
}
