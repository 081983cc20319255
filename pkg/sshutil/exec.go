package sshutil

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/rileyhilliard/hostfacts/internal/errors"
	"golang.org/x/crypto/ssh"
)

// Capture runs cmd on the remote host and returns everything it wrote to
// stdout. stdin is closed as soon as the command starts, and stdout is read
// until the remote side closes it. The read has no size limit and no
// timeout.
//
// A command that cannot be started, whose output cannot be read, or that
// exits non-zero yields an errors.ErrRemoteExec error. Anything the command
// wrote to stderr is included in the error.
func (c *Client) Capture(cmd string) ([]byte, error) {
	session, err := c.Client.NewSession()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrRemoteExec,
			"Failed to create SSH session",
			"Connection may have been closed. Try again.")
	}
	defer session.Close()

	stdin, err := session.StdinPipe()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrRemoteExec,
			"Failed to open remote stdin", "")
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrRemoteExec,
			"Failed to open remote stdout", "")
	}
	var stderr bytes.Buffer
	session.Stderr = &stderr

	if err := session.Start(cmd); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrRemoteExec,
			fmt.Sprintf("Failed to start remote command: %s", cmd),
			"Check the remote path exists and is executable.")
	}

	// Nothing is sent to the command; closing stdin flushes and signals EOF.
	_ = stdin.Close()

	out, readErr := io.ReadAll(stdout)
	waitErr := session.Wait()

	if readErr != nil {
		return nil, errors.WrapWithCode(readErr, errors.ErrRemoteExec,
			fmt.Sprintf("Couldn't read output of: %s", cmd),
			"The connection may have dropped while the command ran.")
	}
	if waitErr != nil {
		return nil, exitFailure(cmd, waitErr, stderr.String())
	}

	return out, nil
}

// exitFailure describes why a started command did not finish cleanly.
func exitFailure(cmd string, err error, stderr string) error {
	detail := strings.TrimSpace(stderr)

	var exitErr *ssh.ExitError
	if stderrors.As(err, &exitErr) {
		msg := fmt.Sprintf("Remote command exited with status %d: %s", exitErr.ExitStatus(), cmd)
		if detail != "" {
			return errors.WrapWithCode(stderrors.New(detail), errors.ErrRemoteExec, msg, "")
		}
		return errors.New(errors.ErrRemoteExec, msg, "Run the command by hand on the host to see why.")
	}

	var missingErr *ssh.ExitMissingError
	if stderrors.As(err, &missingErr) {
		return errors.WrapWithCode(err, errors.ErrRemoteExec,
			fmt.Sprintf("Remote command ended without an exit status: %s", cmd),
			"The process may have been killed, or the connection dropped.")
	}

	return errors.WrapWithCode(err, errors.ErrRemoteExec,
		fmt.Sprintf("Remote command failed: %s", cmd), "")
}
