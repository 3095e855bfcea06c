// Package config defines tpi settings and provides helpers to load, validate
// and save them in YAML format.
//
// Every field has a working default, so a host without a settings file behaves
// exactly like a fresh install: the public registry, the OS-specific manifest
// path and the platform shell.
package config
