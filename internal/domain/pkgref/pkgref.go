package pkgref

import "strings"

// Kind is the source an identifier resolves to.
type Kind int

const (
	// KindRegistry is a bare package name looked up in the registry.
	KindRegistry Kind = iota
	// KindRemoteURL is a descriptor fetched from an arbitrary URL.
	KindRemoteURL
	// KindLocalPath is a descriptor read from local disk.
	KindLocalPath
)

// RegistryExtension is appended to bare names when building registry URLs.
const RegistryExtension = ".srb"

// descriptorExtensions mark an identifier as a reference to a descriptor file.
//
//nolint:gochecknoglobals // Read-only lookup table.
var descriptorExtensions = []string{".srb", ".sorbet", ".yaml", ".yml"}

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindRemoteURL:
		return "remote"
	case KindLocalPath:
		return "local"
	default:
		return "registry"
	}
}

// Ref is a classified identifier together with where its descriptor lives.
type Ref struct {
	// ID is the identifier exactly as the user typed it.
	ID string
	// Kind is the classification of ID.
	Kind Kind
	// Location is a URL for remote and registry refs, a file path for local ones.
	Location string
}

// Classify returns the kind of id. The http prefix is checked first.
func Classify(id string) Kind {
	switch {
	case strings.HasPrefix(id, "http"):
		return KindRemoteURL
	case strings.HasPrefix(id, "./"), strings.HasPrefix(id, `.\`), strings.HasPrefix(id, "/"):
		return KindLocalPath
	default:
		return KindRegistry
	}
}

// Resolve classifies id and computes the descriptor location.
func Resolve(id, registryBase string) Ref {
	ref := Ref{
		ID:       id,
		Kind:     Classify(id),
		Location: id,
	}

	if ref.Kind == KindRegistry {
		ref.Location = RegistryURL(registryBase, id)
	}

	return ref
}

// RegistryURL builds "<registryBase>/<name>.srb".
func RegistryURL(registryBase, name string) string {
	return strings.TrimRight(registryBase, "/") + "/" + name + RegistryExtension
}

// IsDescriptorFile reports whether id names a descriptor file by its extension.
func IsDescriptorFile(id string) bool {
	lower := strings.ToLower(id)
	for _, ext := range descriptorExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}

	return false
}

// IsYAML reports whether id names a YAML descriptor.
func IsYAML(id string) bool {
	lower := strings.ToLower(id)

	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}
