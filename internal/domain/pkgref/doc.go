// Package pkgref classifies package identifiers given on the command line.
//
// An identifier is either a remote descriptor URL, a path to a descriptor on
// local disk, or a bare name looked up in the registry.
package pkgref
