package installer

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/oshokin/tpi/internal/domain/pkgref"
	"github.com/oshokin/tpi/internal/logger"
)

// UpgradeOptions controls the upgrade loop.
type UpgradeOptions struct {
	// KeepGoing continues with the next package after a failure and
	// reports all failures at the end. By default the first failure stops the loop.
	KeepGoing bool
}

// Entry is one installed package as listed in the manifest.
type Entry struct {
	// ID is the identifier the package was installed with.
	ID string
	// Kind is where the descriptor comes from.
	Kind pkgref.Kind
}

// Install fetches the descriptor for id, runs its dependency and install
// commands and records id in the manifest.
func (s *Service) Install(ctx context.Context, id string) error {
	ctx = logger.WithKV(logger.WithName(ctx, "install"), "package", id)
	ref := pkgref.Resolve(id, s.registryURL)

	d, err := s.loadDescriptor(ctx, ref)
	if err != nil {
		return err
	}

	commands, err := d.Commands(s.platform)
	if err != nil {
		return err
	}

	s.printer.Infof("Installing dependencies for %s...", d.Name())

	if err = s.runner.Run(ctx, commands.Deps); err != nil {
		return fmt.Errorf("install dependencies of %s: %w", d.Name(), err)
	}

	s.printHeader("Installing", d)

	if err = s.runner.Run(ctx, commands.Install); err != nil {
		return fmt.Errorf("install %s: %w", d.Name(), err)
	}

	added, err := s.manifest.Record(ctx, id)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Package installed", "recorded", added)
	s.printer.Successf("Installed package: %s!", id)

	return nil
}

// Uninstall drops id from the manifest, unless id names a descriptor file,
// and then runs the descriptor's uninstall commands. The manifest is updated
// before the commands run and stays updated if they fail.
func (s *Service) Uninstall(ctx context.Context, id string) error {
	ctx = logger.WithKV(logger.WithName(ctx, "uninstall"), "package", id)

	if !pkgref.IsDescriptorFile(id) {
		removed, err := s.manifest.Remove(ctx, id)
		if err != nil {
			return err
		}

		if !removed {
			logger.InfoKV(ctx, "Package was not recorded in the manifest")
			s.suggest(ctx, id)
		}
	}

	d, err := s.loadDescriptor(ctx, pkgref.Resolve(id, s.registryURL))
	if err != nil {
		return err
	}

	commands, err := d.Commands(s.platform)
	if err != nil {
		return err
	}

	s.printHeader("Uninstalling", d)

	if err = s.runner.Run(ctx, commands.Uninstall); err != nil {
		return fmt.Errorf("uninstall %s: %w", d.Name(), err)
	}

	s.printer.Successf("Uninstalled package: %s!", id)

	return nil
}

// Upgrade reinstalls every package listed in the manifest.
func (s *Service) Upgrade(ctx context.Context, opts UpgradeOptions) error {
	ctx = logger.WithName(ctx, "upgrade")

	s.printer.Info("Upgrading packages...")

	entries, err := s.manifest.Read(ctx)
	if err != nil {
		return err
	}

	var failures error

	for _, id := range entries {
		if id == "" {
			continue
		}

		s.printer.Infof("Upgrading: %s", id)

		if err = s.Install(ctx, id); err != nil {
			err = fmt.Errorf("upgrade %s: %w", id, err)
			if !opts.KeepGoing {
				return err
			}

			s.printer.Fail(err.Error())
			failures = multierr.Append(failures, err)

			continue
		}

		s.printer.Successf("Upgraded: %s!", id)
	}

	if failures != nil {
		return failures
	}

	s.printer.Success("Upgraded all packages!")

	return nil
}

// List returns the manifest entries with their source kind.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	ids, err := s.manifest.Read(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, Entry{ID: id, Kind: pkgref.Classify(id)})
	}

	return entries, nil
}
