// Package selfupdate upgrades the tpi executable itself.
//
// By default it pipes the published installer script into the platform shell.
// With a binary URL it downloads a build, verifies its SHA-256 checksum and
// replaces the running executable in place.
package selfupdate
