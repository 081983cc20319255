package sshutil

import (
	"fmt"
	"os"
	"path"

	"github.com/pkg/sftp"
	"github.com/rileyhilliard/hostfacts/internal/errors"
)

// Upload copies the local file to remotePath over an SFTP sub-channel and
// sets its permissions to mode. The sub-channel is opened for this call only
// and is closed before Upload returns, on success or failure. Failures are
// errors.ErrTransfer errors.
func (c *Client) Upload(localPath, remotePath string, mode os.FileMode) error {
	src, err := os.Open(localPath)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrTransfer,
			fmt.Sprintf("Couldn't open %s for upload", localPath),
			"Check the artifact path.")
	}
	defer src.Close()

	sc, err := sftp.NewClient(c.Client)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrTransfer,
			fmt.Sprintf("Couldn't start SFTP on '%s'", c.Host),
			"Check that the SFTP subsystem is enabled in the host's sshd_config.")
	}
	defer sc.Close()

	if err := sc.MkdirAll(path.Dir(remotePath)); err != nil {
		return errors.WrapWithCode(err, errors.ErrTransfer,
			fmt.Sprintf("Couldn't create %s on '%s'", path.Dir(remotePath), c.Host),
			"Pick a remote path the login user can write to.")
	}

	dst, err := sc.Create(remotePath)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrTransfer,
			fmt.Sprintf("Couldn't create %s on '%s'", remotePath, c.Host),
			"Pick a remote path the login user can write to.")
	}

	if _, err := dst.ReadFrom(src); err != nil {
		dst.Close()
		return errors.WrapWithCode(err, errors.ErrTransfer,
			fmt.Sprintf("Upload to %s:%s was interrupted", c.Host, remotePath),
			"Check free space on the host and try again.")
	}
	if err := dst.Close(); err != nil {
		return errors.WrapWithCode(err, errors.ErrTransfer,
			fmt.Sprintf("Couldn't finish writing %s on '%s'", remotePath, c.Host), "")
	}

	if err := sc.Chmod(remotePath, mode); err != nil {
		return errors.WrapWithCode(err, errors.ErrTransfer,
			fmt.Sprintf("Couldn't make %s executable on '%s'", remotePath, c.Host), "")
	}

	return nil
}
