package installer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/tpi/internal/console"
	"github.com/oshokin/tpi/internal/domain/descriptor"
	"github.com/oshokin/tpi/internal/repository/manifest"
	"github.com/oshokin/tpi/internal/runner"
)

const registry = "https://registry.test"

var errTestRun = errors.New("test run error")

// fakeFetcher serves descriptors from memory and records requested URLs.
type fakeFetcher struct {
	bodies map[string]string
	urls   []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.urls = append(f.urls, url)

	body, ok := f.bodies[url]
	if !ok {
		return "", fmt.Errorf("no body for %s", url)
	}

	return body, nil
}

// fakeRunner records command lists and fails on the ones listed in failOn.
type fakeRunner struct {
	lists  []string
	failOn map[string]error
}

func (r *fakeRunner) Run(_ context.Context, commands string) error {
	r.lists = append(r.lists, commands)

	return r.failOn[commands]
}

// memoryManifest is a minimal in-memory Repository implementation for tests.
type memoryManifest struct {
	entries  []string
	recorded []string
	removed  []string
}

func (m *memoryManifest) Read(context.Context) ([]string, error) {
	return slices.Clone(m.entries), nil
}

func (m *memoryManifest) Record(_ context.Context, id string) (bool, error) {
	m.recorded = append(m.recorded, id)
	if slices.Contains(m.entries, id) {
		return false, nil
	}

	m.entries = append(m.entries, id)

	return true, nil
}

func (m *memoryManifest) Remove(_ context.Context, id string) (bool, error) {
	m.removed = append(m.removed, id)
	before := len(m.entries)
	m.entries = slices.DeleteFunc(m.entries, func(e string) bool { return e == id })

	return len(m.entries) != before, nil
}

func descriptorText(name, deps, install, uninstall string) string {
	return fmt.Sprintf(
		"name => %s\nversion => 1.2.3\nauthor => tester\nunix_deps => %s\nunix_commands => %s\nunix_uninstall => %s\n"+
			"win_deps => %s\nwin_commands => %s\nwin_uninstall => %s\n",
		name, deps, install, uninstall, deps, install, uninstall)
}

type fixture struct {
	fetcher  *fakeFetcher
	runner   *fakeRunner
	manifest *memoryManifest
	out      *bytes.Buffer
	service  *Service
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	f := &fixture{
		fetcher:  &fakeFetcher{bodies: map[string]string{}},
		runner:   &fakeRunner{failOn: map[string]error{}},
		manifest: &memoryManifest{},
		out:      new(bytes.Buffer),
	}

	service, err := New(Dependencies{
		RegistryURL: registry,
		Fetcher:     f.fetcher,
		Runner:      f.runner,
		Manifest:    f.manifest,
		Printer:     console.New(f.out),
	}, opts...)
	require.NoError(t, err)

	f.service = service

	return f
}

func writeDescriptor(t *testing.T, name, text string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))

	return path
}

// TestNew_RequiresDependencies rejects missing collaborators.
func TestNew_RequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := New(Dependencies{})
	require.ErrorIs(t, err, errFetcherRequired)

	_, err = New(Dependencies{Fetcher: &fakeFetcher{}})
	require.ErrorIs(t, err, errRunnerRequired)

	_, err = New(Dependencies{Fetcher: &fakeFetcher{}, Runner: &fakeRunner{}})
	require.ErrorIs(t, err, errManifestRequired)

	_, err = New(Dependencies{Fetcher: &fakeFetcher{}, Runner: &fakeRunner{}, Manifest: &memoryManifest{}})
	require.ErrorIs(t, err, errPrinterRequired)
}

// TestInstall_LocalPathNeverFetches reads the descriptor from disk and runs deps before the main list.
func TestInstall_LocalPathNeverFetches(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	path := writeDescriptor(t, "hello.srb", descriptorText("hello", "echo dep", "echo main", "echo bye"))

	require.NoError(t, f.service.Install(context.Background(), path))

	require.Empty(t, f.fetcher.urls)
	require.Equal(t, []string{"echo dep", "echo main"}, f.runner.lists)
	require.Equal(t, []string{path}, f.manifest.recorded)
	require.Contains(t, f.out.String(), "Installing dependencies for hello...")
	require.Contains(t, f.out.String(), "Installed package: "+path+"!")
}

// TestInstall_RegistryResolvesURL fetches "<registry>/<name>.srb" for bare names.
func TestInstall_RegistryResolvesURL(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.fetcher.bodies[registry+"/foo.srb"] = descriptorText("foo", "", "echo foo", "echo bye")

	require.NoError(t, f.service.Install(context.Background(), "foo"))
	require.Equal(t, []string{registry + "/foo.srb"}, f.fetcher.urls)
	require.Contains(t, f.out.String(), "Contacting registry...")
}

// TestInstall_RemoteURL fetches the identifier itself.
func TestInstall_RemoteURL(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	url := "https://example.com/pkgs/bar.yaml"
	f.fetcher.bodies[url] = "name: bar\nversion: 2.0\nauthor: x\nunix_deps:\nwin_deps:\ncommands: echo bar\nuninstall: echo rm\n"

	require.NoError(t, f.service.Install(context.Background(), url))
	require.Equal(t, []string{url}, f.fetcher.urls)
	require.Equal(t, []string{"", "echo bar"}, f.runner.lists)
	require.Equal(t, []string{url}, f.manifest.recorded)
}

// TestInstall_FailureLeavesManifestUntouched keeps the partial install unrecorded.
func TestInstall_FailureLeavesManifestUntouched(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.runner.failOn["echo main"] = errTestRun
	path := writeDescriptor(t, "hello.srb", descriptorText("hello", "echo dep", "echo main", "echo bye"))

	err := f.service.Install(context.Background(), path)
	require.ErrorIs(t, err, errTestRun)
	require.Equal(t, []string{"echo dep", "echo main"}, f.runner.lists)
	require.Empty(t, f.manifest.recorded)
}

// TestInstall_DescriptorErrors stops before any command runs.
func TestInstall_DescriptorErrors(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	path := writeDescriptor(t, "bad.srb", "name => hello\nversion => 1\n")
	require.ErrorIs(t, f.service.Install(context.Background(), path), descriptor.ErrMissingField)

	unixOnly := "name => a\nversion => 1\nauthor => b\nunix_deps =>\nunix_commands => true\nunix_uninstall => true\n"
	path = writeDescriptor(t, "unix.srb", unixOnly)

	windows := newFixture(t, WithPlatform(descriptor.PlatformWindows))
	require.ErrorIs(t, windows.service.Install(context.Background(), path), descriptor.ErrUnsupportedPlatform)

	require.ErrorContains(t, f.service.Install(context.Background(), "./does/not/exist.srb"), "read descriptor")

	require.Empty(t, f.runner.lists)
	require.Empty(t, windows.runner.lists)
}

// TestUninstall_RemovesBeforeCommands updates the manifest even when uninstall commands fail.
func TestUninstall_RemovesBeforeCommands(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.manifest.entries = []string{"foo", "./other.srb"}
	f.fetcher.bodies[registry+"/foo.srb"] = descriptorText("foo", "", "echo foo", "echo bye")
	f.runner.failOn["echo bye"] = errTestRun

	err := f.service.Uninstall(context.Background(), "foo")
	require.ErrorIs(t, err, errTestRun)
	require.Equal(t, []string{"./other.srb"}, f.manifest.entries)
	require.Equal(t, []string{"echo bye"}, f.runner.lists)
}

// TestUninstall_DescriptorFileKeepsManifest does not touch the manifest for descriptor references.
func TestUninstall_DescriptorFileKeepsManifest(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	path := writeDescriptor(t, "hello.srb", descriptorText("hello", "", "echo hi", "echo bye"))
	f.manifest.entries = []string{path}

	require.NoError(t, f.service.Uninstall(context.Background(), path))
	require.Empty(t, f.manifest.removed)
	require.Equal(t, []string{path}, f.manifest.entries)
	require.Empty(t, f.fetcher.urls)
	require.Contains(t, f.out.String(), "Uninstalled package: "+path+"!")
}

// TestUninstall_AbsentIsNoop completes without error and suggests similar entries.
func TestUninstall_AbsentIsNoop(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.manifest.entries = []string{"./hello.srb"}
	f.fetcher.bodies[registry+"/hello.srb"] = descriptorText("hello", "", "echo hi", "echo bye")

	require.NoError(t, f.service.Uninstall(context.Background(), "hello"))
	require.Equal(t, []string{"hello"}, f.manifest.removed)
	require.Equal(t, []string{"./hello.srb"}, f.manifest.entries)
	require.Contains(t, f.out.String(), "similar name: [./hello.srb]")
}

// TestUpgrade_ReinstallsEveryEntry runs install for each manifest line in order.
func TestUpgrade_ReinstallsEveryEntry(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.manifest.entries = []string{"https://x.dev/a.srb", "https://x.dev/b.srb"}
	f.fetcher.bodies["https://x.dev/a.srb"] = descriptorText("a", "", "echo a", "")
	f.fetcher.bodies["https://x.dev/b.srb"] = descriptorText("b", "", "echo b", "")

	require.NoError(t, f.service.Upgrade(context.Background(), UpgradeOptions{}))
	require.Equal(t, []string{"https://x.dev/a.srb", "https://x.dev/b.srb"}, f.fetcher.urls)
	require.Equal(t, []string{"", "echo a", "", "echo b"}, f.runner.lists)
	require.Contains(t, f.out.String(), "Upgraded all packages!")
}

// TestUpgrade_AbortsOnFirstFailure stops the loop by default.
func TestUpgrade_AbortsOnFirstFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.manifest.entries = []string{"https://x.dev/a.srb", "https://x.dev/b.srb"}
	f.fetcher.bodies["https://x.dev/a.srb"] = descriptorText("a", "", "echo a", "")
	f.fetcher.bodies["https://x.dev/b.srb"] = descriptorText("b", "", "echo b", "")
	f.runner.failOn["echo a"] = errTestRun

	err := f.service.Upgrade(context.Background(), UpgradeOptions{})
	require.ErrorIs(t, err, errTestRun)
	require.ErrorContains(t, err, "upgrade https://x.dev/a.srb")
	require.Equal(t, []string{"https://x.dev/a.srb"}, f.fetcher.urls)
	require.NotContains(t, f.out.String(), "Upgraded all packages!")
}

// TestUpgrade_KeepGoing visits every entry and reports all failures.
func TestUpgrade_KeepGoing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.manifest.entries = []string{"https://x.dev/a.srb", "https://x.dev/b.srb", "https://x.dev/c.srb"}
	f.fetcher.bodies["https://x.dev/a.srb"] = descriptorText("a", "", "echo a", "")
	f.fetcher.bodies["https://x.dev/c.srb"] = descriptorText("c", "", "echo c", "")
	f.runner.failOn["echo a"] = errTestRun

	err := f.service.Upgrade(context.Background(), UpgradeOptions{KeepGoing: true})
	require.ErrorIs(t, err, errTestRun)
	require.ErrorContains(t, err, "https://x.dev/b.srb")
	require.Len(t, f.fetcher.urls, 3)
	require.Contains(t, f.out.String(), "Upgraded: https://x.dev/c.srb!")
}

// TestList classifies manifest entries.
func TestList(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.manifest.entries = []string{"https://x.dev/a.srb", "./b.srb"}

	entries, err := f.service.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "remote", entries[0].Kind.String())
	require.Equal(t, "local", entries[1].Kind.String())
}

// TestInstall_EndToEnd installs a local descriptor with the real runner and manifest.
func TestInstall_EndToEnd(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("uses a POSIX shell")
	}

	var out bytes.Buffer

	printer := console.New(&out)
	manifestPath := filepath.Join(t.TempDir(), "packages")
	repo := manifest.NewFileRepository(manifestPath)

	service, err := New(Dependencies{
		RegistryURL: registry,
		Fetcher:     &fakeFetcher{},
		Runner:      runner.New(printer, runner.WithTempRoot(t.TempDir())),
		Manifest:    repo,
		Printer:     printer,
	})
	require.NoError(t, err)

	path := writeDescriptor(t, "hello.srb", descriptorText("hello", "", "echo hello", "echo bye"))

	require.NoError(t, service.Install(context.Background(), path))
	require.Contains(t, out.String(), "  ·Command => hello\n")

	contents, err := os.ReadFile(manifestPath)
	require.NoError(t, err)
	require.Equal(t, path+"\n", string(contents))
}

// TestInstall_InterruptedIsNotRecorded cancels while the last install command runs.
func TestInstall_InterruptedIsNotRecorded(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("uses a POSIX shell")
	}

	var out bytes.Buffer

	printer := console.New(&out)
	manifestPath := filepath.Join(t.TempDir(), "packages")

	service, err := New(Dependencies{
		RegistryURL: registry,
		Fetcher:     &fakeFetcher{},
		Runner:      runner.New(printer, runner.WithTempRoot(t.TempDir())),
		Manifest:    manifest.NewFileRepository(manifestPath),
		Printer:     printer,
	})
	require.NoError(t, err)

	path := writeDescriptor(t, "slow.srb", descriptorText("slow", "", "sleep 3", ""))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	err = service.Install(ctx, path)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotContains(t, out.String(), "Installed package")

	_, err = os.Stat(manifestPath)
	require.ErrorIs(t, err, os.ErrNotExist)
}
