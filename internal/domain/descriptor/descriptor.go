package descriptor

import (
	"errors"
	"fmt"
	"maps"
	"runtime"
)

// Platform selects which command fields of a descriptor apply.
type Platform int

const (
	// PlatformUnix covers Linux, macOS and the BSDs.
	PlatformUnix Platform = iota
	// PlatformWindows covers Windows hosts.
	PlatformWindows
)

// Field names understood by the parser.
const (
	FieldName    = "name"
	FieldVersion = "version"
	FieldAuthor  = "author"

	// FieldCommands and FieldUninstall are the unified fallbacks used when a
	// descriptor has no platform-specific variant.
	FieldCommands  = "commands"
	FieldUninstall = "uninstall"
)

var (
	// ErrMissingField is returned when a required field is absent.
	ErrMissingField = errors.New("package has no field")
	// ErrUnsupportedPlatform is returned when the platform command fields are absent.
	ErrUnsupportedPlatform = errors.New("package not compatible with platform")
)

// String implements fmt.Stringer.
func (p Platform) String() string {
	if p == PlatformWindows {
		return "Windows"
	}

	return "Unix"
}

// prefix is the field name prefix for platform-specific keys.
func (p Platform) prefix() string {
	if p == PlatformWindows {
		return "win_"
	}

	return "unix_"
}

// CurrentPlatform returns the platform of the running host.
func CurrentPlatform() Platform {
	if runtime.GOOS == "windows" {
		return PlatformWindows
	}

	return PlatformUnix
}

// CommandSet holds the three command lists of a descriptor for one platform.
type CommandSet struct {
	// Deps installs prerequisites and runs before Install.
	Deps string
	// Install installs the package itself.
	Install string
	// Uninstall removes the package.
	Uninstall string
}

// Descriptor is a parsed package descriptor. It is immutable.
type Descriptor struct {
	fields map[string]string
}

// New builds a descriptor from already decoded fields and checks the
// platform-independent required fields.
func New(fields map[string]string) (*Descriptor, error) {
	d := &Descriptor{fields: make(map[string]string, len(fields))}
	maps.Copy(d.fields, fields)

	for _, field := range []string{FieldName, FieldVersion, FieldAuthor} {
		if _, ok := d.fields[field]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, field)
		}
	}

	return d, nil
}

// Get returns the raw value of field.
func (d *Descriptor) Get(field string) (string, bool) {
	v, ok := d.fields[field]

	return v, ok
}

// Name returns the package name.
func (d *Descriptor) Name() string { return d.fields[FieldName] }

// Version returns the package version.
func (d *Descriptor) Version() string { return d.fields[FieldVersion] }

// Author returns the package author.
func (d *Descriptor) Author() string { return d.fields[FieldAuthor] }

// Commands returns the command lists for platform. The dependency list must be
// platform-specific; install and uninstall fall back to the unified fields.
func (d *Descriptor) Commands(platform Platform) (CommandSet, error) {
	var (
		set CommandSet
		err error
	)

	if set.Deps, err = d.platformField(platform, "deps", ""); err != nil {
		return CommandSet{}, err
	}

	if set.Install, err = d.platformField(platform, "commands", FieldCommands); err != nil {
		return CommandSet{}, err
	}

	if set.Uninstall, err = d.platformField(platform, "uninstall", FieldUninstall); err != nil {
		return CommandSet{}, err
	}

	return set, nil
}

func (d *Descriptor) platformField(platform Platform, suffix, fallback string) (string, error) {
	field := platform.prefix() + suffix
	if v, ok := d.fields[field]; ok {
		return v, nil
	}

	if fallback != "" {
		if v, ok := d.fields[fallback]; ok {
			return v, nil
		}
	}

	return "", fmt.Errorf("%w %s: missing %s", ErrUnsupportedPlatform, platform, field)
}
