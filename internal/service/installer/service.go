package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sahilm/fuzzy"

	"github.com/oshokin/tpi/internal/domain/descriptor"
	"github.com/oshokin/tpi/internal/domain/pkgref"
	"github.com/oshokin/tpi/internal/logger"
	"github.com/oshokin/tpi/internal/repository/manifest"
)

// maxSuggestions caps the "did you mean" list printed on uninstall.
const maxSuggestions = 3

var (
	errFetcherRequired  = errors.New("descriptor fetcher must be provided")
	errRunnerRequired   = errors.New("command runner must be provided")
	errManifestRequired = errors.New("manifest repository must be provided")
	errPrinterRequired  = errors.New("printer must be provided")
)

// Fetcher downloads descriptor text from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Runner executes a command list.
type Runner interface {
	Run(ctx context.Context, commands string) error
}

// Printer shows progress to the user.
type Printer interface {
	Info(message string)
	Infof(format string, args ...any)
	Successf(format string, args ...any)
	Success(message string)
	Fail(message string)
	Tip(message string)
}

// Dependencies are the collaborators of a Service.
type Dependencies struct {
	// RegistryURL is the base URL bare names resolve against.
	RegistryURL string
	// Fetcher downloads remote and registry descriptors.
	Fetcher Fetcher
	// Runner executes descriptor command lists.
	Runner Runner
	// Manifest records installed identifiers.
	Manifest manifest.Repository
	// Printer shows progress.
	Printer Printer
}

// Service runs package operations.
type Service struct {
	registryURL string
	fetcher     Fetcher
	runner      Runner
	manifest    manifest.Repository
	printer     Printer

	// platform picks the descriptor command fields.
	platform descriptor.Platform
}

// Option configures a Service.
type Option func(*Service)

// WithPlatform overrides the host platform used to pick command fields.
func WithPlatform(platform descriptor.Platform) Option {
	return func(s *Service) {
		s.platform = platform
	}
}

// New creates a Service from deps.
func New(deps Dependencies, opts ...Option) (*Service, error) {
	switch {
	case deps.Fetcher == nil:
		return nil, errFetcherRequired
	case deps.Runner == nil:
		return nil, errRunnerRequired
	case deps.Manifest == nil:
		return nil, errManifestRequired
	case deps.Printer == nil:
		return nil, errPrinterRequired
	}

	s := &Service{
		registryURL: deps.RegistryURL,
		fetcher:     deps.Fetcher,
		runner:      deps.Runner,
		manifest:    deps.Manifest,
		printer:     deps.Printer,
		platform:    descriptor.CurrentPlatform(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// loadDescriptor obtains and parses the descriptor ref points at.
func (s *Service) loadDescriptor(ctx context.Context, ref pkgref.Ref) (*descriptor.Descriptor, error) {
	var text string

	switch ref.Kind {
	case pkgref.KindLocalPath:
		data, err := os.ReadFile(filepath.Clean(ref.Location))
		if err != nil {
			return nil, fmt.Errorf("read descriptor %s: %w", ref.Location, err)
		}

		text = string(data)
	default:
		if ref.Kind == pkgref.KindRegistry {
			s.printer.Info("Contacting registry...")
		}

		s.printer.Info("Downloading package...")

		var err error

		text, err = s.fetcher.Fetch(ctx, ref.Location)
		if err != nil {
			return nil, fmt.Errorf("download descriptor: %w", err)
		}
	}

	format := descriptor.FormatSorbet
	if pkgref.IsYAML(ref.Location) {
		format = descriptor.FormatYAML
	}

	d, err := descriptor.Parse(text, format)
	if err != nil {
		return nil, fmt.Errorf("parse descriptor %s: %w", ref.Location, err)
	}

	logger.DebugKV(ctx, "Descriptor loaded",
		"name", d.Name(), "version", d.Version(), "source", ref.Kind.String())

	return d, nil
}

// printHeader shows who and what is being processed.
func (s *Service) printHeader(action string, d *descriptor.Descriptor) {
	s.printer.Infof("%s package: %s", action, d.Name())
	s.printer.Infof("v%s", d.Version())
	s.printer.Infof("By: %s", d.Author())
}

// suggest prints manifest entries close to id.
func (s *Service) suggest(ctx context.Context, id string) {
	entries, err := s.manifest.Read(ctx)
	if err != nil || len(entries) == 0 {
		return
	}

	matches := fuzzy.Find(id, entries)
	if len(matches) == 0 {
		return
	}

	if len(matches) > maxSuggestions {
		matches = matches[:maxSuggestions]
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m.Str)
	}

	s.printer.Tip(fmt.Sprintf("%s is not in the manifest. Recorded packages with a similar name: %v", id, names))
}
