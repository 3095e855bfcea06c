// Package installer composes resolution, fetching, parsing, command execution
// and the manifest into the install, uninstall, upgrade and list operations.
//
// Operations are linear and never roll back: a failure part way through an
// install leaves the commands that already ran in place and the manifest
// untouched.
//
// Uninstall drops an identifier from the manifest only when it is not itself a
// descriptor file, so a descriptor file uninstalled by path stays listed.
package installer
