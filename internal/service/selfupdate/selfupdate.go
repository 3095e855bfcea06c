package selfupdate

import (
	"context"
	"crypto"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	goupdate "github.com/doitdistributed/go-update"
	"github.com/mitchellh/go-ps"

	"github.com/oshokin/tpi/internal/config"
	"github.com/oshokin/tpi/internal/logger"

	// Ensure SHA256 is available for checksum verification.
	_ "crypto/sha256"
)

const (
	// unixScript and windowsScript are appended to the installer base URL.
	unixScript    = "install.sh"
	windowsScript = "install.ps1"

	// checksumFunction verifies downloaded binaries.
	checksumFunction = crypto.SHA256

	// executableMode is applied to the replaced binary.
	executableMode os.FileMode = 0o755
)

var (
	errOtherInstancesRunning = errors.New("other tpi processes are running")
	errChecksumRequired      = errors.New("checksum must be provided with a binary URL")
	errBadHTTPStatus         = errors.New("unexpected http status")
)

// Runner executes a command list.
type Runner interface {
	Run(ctx context.Context, commands string) error
}

// Printer shows progress to the user.
type Printer interface {
	Info(message string)
	Success(message string)
}

// Options are inputs of a self-update.
type Options struct {
	// InstallerURL is the base URL hosting install.sh and install.ps1.
	InstallerURL string
	// BinaryURL switches to in-place binary replacement when set.
	BinaryURL string
	// Checksum is the hex SHA-256 of the binary at BinaryURL.
	Checksum string
	// TargetPath is the executable to replace; empty means the running one.
	TargetPath string
}

// Updater performs self-updates.
type Updater struct {
	runner  Runner
	printer Printer
	client  *http.Client
	// processes lists running processes; replaced in tests.
	processes func() ([]ps.Process, error)
	// executable returns the path of the running binary; replaced in tests.
	executable func() (string, error)
}

// New creates an Updater running scripts through runner.
func New(runner Runner, printer Printer, client *http.Client) *Updater {
	if client == nil {
		client = http.DefaultClient
	}

	return &Updater{
		runner:     runner,
		printer:    printer,
		client:     client,
		processes:  ps.Processes,
		executable: os.Executable,
	}
}

// ScriptCommand returns the installer one-liner for the host platform.
func ScriptCommand(installerURL string, windows bool) string {
	base := strings.TrimRight(installerURL, "/")
	if windows {
		return fmt.Sprintf("irm %s/%s | iex", base, windowsScript)
	}

	return fmt.Sprintf("curl -fsSL %s/%s | sh", base, unixScript)
}

// Run updates tpi according to opts.
func (u *Updater) Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "self-update")

	if opts.BinaryURL == "" {
		u.printer.Info("Updating tpi with the installer script...")

		if err := u.runner.Run(ctx, ScriptCommand(opts.InstallerURL, config.IsWindows())); err != nil {
			return fmt.Errorf("run installer script: %w", err)
		}

		u.printer.Success("Updated tpi!")

		return nil
	}

	return u.replaceBinary(ctx, opts)
}

// replaceBinary downloads and applies a new executable.
func (u *Updater) replaceBinary(ctx context.Context, opts *Options) error {
	if opts.Checksum == "" {
		return errChecksumRequired
	}

	checksum, err := hex.DecodeString(strings.TrimSpace(opts.Checksum))
	if err != nil {
		return fmt.Errorf("decode checksum: %w", err)
	}

	target := opts.TargetPath
	if target == "" {
		if target, err = u.executable(); err != nil {
			return fmt.Errorf("locate executable: %w", err)
		}
	}

	if err = u.ensureNoOtherInstances(filepath.Base(target)); err != nil {
		return err
	}

	u.printer.Info("Downloading " + opts.BinaryURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.BinaryURL, http.NoBody)
	if err != nil {
		return err
	}

	response, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("download binary: %w", err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("%s, %s: %w", opts.BinaryURL, response.Status, errBadHTTPStatus)
	}

	logger.InfoKV(ctx, "Applying update", "target", target)

	err = goupdate.Apply(response.Body, goupdate.Options{
		TargetPath: target,
		TargetMode: executableMode,
		Checksum:   checksum,
		Hash:       checksumFunction,
	})
	if err != nil {
		return fmt.Errorf("apply update: %w", err)
	}

	oldFileName := filepath.Join(filepath.Dir(target), "."+filepath.Base(target)+".old")
	if _, err = os.Stat(oldFileName); err == nil {
		_ = os.Remove(oldFileName)
	}

	u.printer.Success("Updated tpi!")

	return nil
}

// ensureNoOtherInstances refuses to replace the binary while another copy runs.
func (u *Updater) ensureNoOtherInstances(executable string) error {
	processList, err := u.processes()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() == executable {
			return fmt.Errorf("%w: pid %d", errOtherInstancesRunning, process.Pid())
		}
	}

	return nil
}
