// Package target holds the validated description of a remote machine and
// the credentials used to reach it.
package target

import (
	"fmt"

	"github.com/rileyhilliard/hostfacts/internal/errors"
)

// MinHostLength is the shortest host name accepted.
const MinHostLength = 4

// Descriptor identifies a remote host, the login to use on it and the
// private key that authenticates that login. The zero value is not valid;
// obtain one from New.
type Descriptor struct {
	host    string
	login   string
	keyPath string
}

// New validates the connection parameters and returns a Descriptor.
// Any missing or malformed field yields an errors.ErrConfig error and no
// descriptor.
func New(host, login, keyPath string) (Descriptor, error) {
	if len(host) < MinHostLength {
		msg := "Can't connect to server. Host name is required"
		if host != "" {
			msg = fmt.Sprintf("Can't connect to server. Host name '%s' is too short", host)
		}
		return Descriptor{}, errors.New(errors.ErrConfig, msg,
			fmt.Sprintf("Pass a host name of at least %d characters with -s/--server.", MinHostLength))
	}
	if login == "" {
		return Descriptor{}, errors.New(errors.ErrConfig,
			"Can't connect to server. User name is required",
			"Pass the remote login with -u/--username.")
	}
	if keyPath == "" {
		return Descriptor{}, errors.New(errors.ErrConfig,
			"Can't connect to server because no credentials were provided",
			"Pass the path to a private key with -k/--key.")
	}

	return Descriptor{host: host, login: login, keyPath: keyPath}, nil
}

// Host returns the remote host name or SSH config alias.
func (d Descriptor) Host() string { return d.host }

// Login returns the remote user name.
func (d Descriptor) Login() string { return d.login }

// KeyPath returns the path to the private key file.
func (d Descriptor) KeyPath() string { return d.keyPath }

// String renders the descriptor as login@host.
func (d Descriptor) String() string {
	return d.login + "@" + d.host
}
