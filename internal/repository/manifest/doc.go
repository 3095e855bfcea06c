// Package manifest persists the identifiers of installed packages.
//
// The FileRepository keeps one identifier per line in a plain text file and
// rewrites the whole file on every change. Calls on one repository are
// serialised; separate tpi processes are not coordinated, the last writer wins.
//
// Only descriptor files (.srb, .sorbet, .yaml, .yml) are recorded. Bare registry
// names are accepted by Remove but never written by Record.
package manifest
