// Package util holds small helpers for building remote command lines.
package util

import "strings"

// ShellQuote wraps a string in single quotes, escaping any existing single quotes.
// The remote shell treats the result as one literal word.
func ShellQuote(s string) string {
	// ' becomes '\'' (close, escaped quote, reopen)
	escaped := strings.ReplaceAll(s, "'", "'\\''")
	return "'" + escaped + "'"
}

// ShellQuotePath quotes a remote path while leaving a leading ~/ for the
// remote shell to expand.
func ShellQuotePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		return "~/" + ShellQuote(path[2:])
	}
	if path == "~" {
		return "~"
	}
	return ShellQuote(path)
}

// SFTPPath converts a remote path into the form the SFTP server expects.
// SFTP resolves relative paths against the login directory and does not
// expand ~, so a leading ~/ is dropped.
func SFTPPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		return path[2:]
	}
	if path == "~" {
		return "."
	}
	return path
}

// RemoteInvocation builds the command line that runs the executable at path
// with args. The path is always quoted; args are quoted only when they hold
// characters the shell would interpret.
func RemoteInvocation(path string, args ...string) string {
	words := make([]string, 0, len(args)+1)
	words = append(words, ShellQuotePath(path))
	for _, a := range args {
		if isPlainWord(a) {
			words = append(words, a)
		} else {
			words = append(words, ShellQuote(a))
		}
	}
	return strings.Join(words, " ")
}

func isPlainWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("-_./=:,@%+", r):
		default:
			return false
		}
	}
	return true
}
