package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/blang/semver"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeDetect(version, asset string, found bool, err error) func(string) (*selfupdate.Release, bool, error) {
	return func(slug string) (*selfupdate.Release, bool, error) {
		if err != nil || !found {
			return nil, found, err
		}
		return &selfupdate.Release{Version: semver.MustParse(version), AssetURL: asset}, true, nil
	}
}

func TestUpdateAlreadyLatest(t *testing.T) {
	var out bytes.Buffer
	u := &updater{detect: fakeDetect("0.1.0", "https://example.invalid/a", true, nil), out: &out, in: strings.NewReader("")}
	require.NoError(t, u.check("v0.1.0"))
	assert.Contains(t, out.String(), "already running the latest version")
}

func TestUpdateNoRelease(t *testing.T) {
	var out bytes.Buffer
	u := &updater{detect: fakeDetect("", "", false, nil), out: &out}
	require.NoError(t, u.check("0.1.0"))
	assert.Contains(t, out.String(), "No releases found")
}

func TestUpdateDetectError(t *testing.T) {
	u := &updater{detect: fakeDetect("", "", false, errors.New("rate limited")), out: &bytes.Buffer{}}
	assert.ErrorContains(t, u.check("0.1.0"), "rate limited")
}

func TestUpdateDeclined(t *testing.T) {
	var out bytes.Buffer
	applied := false
	u := &updater{
		detect: fakeDetect("0.2.0", "https://example.invalid/a", true, nil),
		apply:  func(string, string) error { applied = true; return nil },
		in:     strings.NewReader("n\n"),
		out:    &out,
	}
	require.NoError(t, u.check("0.1.0"))
	assert.False(t, applied)
	assert.Contains(t, out.String(), "Update cancelled.")
}

func TestUpdateAccepted(t *testing.T) {
	var out bytes.Buffer
	var gotURL string
	u := &updater{
		detect: fakeDetect("0.2.0", "https://example.invalid/rescale_linux_amd64.tar.gz", true, nil),
		apply:  func(url, exe string) error { gotURL = url; return nil },
		in:     strings.NewReader("yes\n"),
		out:    &out,
	}
	require.NoError(t, u.check("0.1.0"))
	assert.Equal(t, "https://example.invalid/rescale_linux_amd64.tar.gz", gotURL)
	assert.Contains(t, out.String(), "Updated to version 0.2.0.")
}

func TestUpdateWithoutAsset(t *testing.T) {
	var out bytes.Buffer
	u := &updater{detect: fakeDetect("1.0.0", "", true, nil), out: &out, yes: true}
	require.NoError(t, u.check("0.1.0"))
	assert.Contains(t, out.String(), "no downloadable asset")
}

func TestUpdateBadCurrentVersion(t *testing.T) {
	u := &updater{detect: fakeDetect("1.0.0", "", true, nil), out: &bytes.Buffer{}}
	assert.Error(t, u.check("dev"))
}
