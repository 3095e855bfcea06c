// Package runner executes descriptor command lists.
//
// A command list is multi-line text; every line may hold several
// comma-separated commands. Commands run one after another through the
// platform shell inside a scratch directory created for the call and removed
// when it returns. The scratch directory is handed to each subprocess
// explicitly, the working directory of the tpi process is never changed.
package runner
