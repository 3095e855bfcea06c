// Package descriptor parses package descriptors and extracts the command lists
// for the host platform.
//
// Descriptors are sorbet key-value text (media type application/sorbet):
//
//	name => hello
//	version => 1.0.0
//	author => someone
//	unix_deps =>
//	unix_commands => echo hello, echo world
//	> echo next line
//	unix_uninstall => echo bye
//
// A line starting with ">" continues the previous value on a new line. Blank
// lines and lines starting with "#" are ignored. YAML descriptors with the same
// keys are accepted too; sequences are joined into one command per line.
package descriptor
