// Package dispatch pushes the collector artifact to a remote host, runs it
// in remote-collection mode and captures the report it prints.
package dispatch

import (
	"fmt"
	"os"
	"time"

	"github.com/rileyhilliard/hostfacts/internal/errors"
	"github.com/rileyhilliard/hostfacts/internal/logger"
	"github.com/rileyhilliard/hostfacts/internal/target"
	"github.com/rileyhilliard/hostfacts/internal/util"
	"github.com/rileyhilliard/hostfacts/pkg/sshutil"
)

// DefaultRemotePath is where the artifact is placed on the remote host.
const DefaultRemotePath = "/tmp/hostfacts"

// RemoteFlag switches the uploaded artifact into remote-collection mode.
const RemoteFlag = "-r"

// PackageCommandFlag carries the package listing command to the remote side.
const PackageCommandFlag = "--package-command"

// artifactMode is applied to the uploaded file so it can be executed.
const artifactMode os.FileMode = 0o755

// DialFunc opens the transport for one dispatch.
type DialFunc func(opts sshutil.DialOptions) (sshutil.Transport, error)

// Options configures a Dispatcher.
type Options struct {
	// ArtifactPath is the local file to upload. Empty means the running executable.
	ArtifactPath string
	// RemotePath is the upload destination. Empty means DefaultRemotePath.
	RemotePath string

	Port              int
	TrustUnknownHosts bool
	KnownHostsPath    string
	SSHConfigPath     string
	ConnectTimeout    time.Duration

	// PackageCommand is forwarded to the remote collector when set.
	PackageCommand string

	// Dial replaces sshutil.Dial; tests use it to inject a fake transport.
	Dial DialFunc
	Log  logger.Logger
}

// DefaultOptions returns options with the trust-on-first-use host policy.
func DefaultOptions() Options {
	return Options{
		RemotePath:        DefaultRemotePath,
		TrustUnknownHosts: true,
	}
}

func dialSSH(opts sshutil.DialOptions) (sshutil.Transport, error) {
	return sshutil.Dial(opts)
}

// Dispatcher owns one SSH connection for the length of a dispatch.
type Dispatcher struct {
	target    target.Descriptor
	transport sshutil.Transport
	artifact  string
	remote    string
	pkgCmd    string
	log       logger.Logger
	closed    bool
}

// New connects to the host described by desc. The returned Dispatcher owns
// the connection; callers must Close it.
func New(desc target.Descriptor, opts Options) (*Dispatcher, error) {
	log := opts.Log
	if log == nil {
		log = logger.Noop()
	}

	artifact := opts.ArtifactPath
	if artifact == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrTransfer,
				"Couldn't locate the hostfacts executable to upload",
				"Pass the file to upload with --artifact.")
		}
		artifact = exe
	}

	remote := opts.RemotePath
	if remote == "" {
		remote = DefaultRemotePath
	}

	dial := opts.Dial
	if dial == nil {
		dial = dialSSH
	}

	if opts.TrustUnknownHosts {
		log.Debug("host keys for %s are trusted without verification", desc.Host())
	}
	log.Debug("connecting to %s", desc)

	transport, err := dial(sshutil.DialOptions{
		Host:              desc.Host(),
		User:              desc.Login(),
		KeyPath:           desc.KeyPath(),
		Port:              opts.Port,
		TrustUnknownHosts: opts.TrustUnknownHosts,
		KnownHostsPath:    opts.KnownHostsPath,
		SSHConfigPath:     opts.SSHConfigPath,
		Timeout:           opts.ConnectTimeout,
	})
	if err != nil {
		if errors.Code(err) == "" {
			err = errors.WrapWithCode(err, errors.ErrTransfer,
				fmt.Sprintf("Couldn't connect to %s", desc), "")
		}
		return nil, err
	}
	log.Debug("connected to %s (%s)", transport.GetHost(), transport.GetAddress())

	return &Dispatcher{
		target:    desc,
		transport: transport,
		artifact:  artifact,
		remote:    remote,
		pkgCmd:    opts.PackageCommand,
		log:       log,
	}, nil
}

// Upload transfers the artifact to the remote path.
func (d *Dispatcher) Upload() error {
	d.log.Debug("uploading %s to %s:%s", d.artifact, d.target.Host(), d.remote)
	if err := d.transport.Upload(d.artifact, util.SFTPPath(d.remote), artifactMode); err != nil {
		if errors.Code(err) == "" {
			err = errors.WrapWithCode(err, errors.ErrTransfer,
				fmt.Sprintf("Couldn't upload %s to %s:%s", d.artifact, d.target.Host(), d.remote), "")
		}
		return err
	}
	return nil
}

// Command returns the remote command line that runs the uploaded artifact.
func (d *Dispatcher) Command() string {
	if d.pkgCmd != "" {
		return util.RemoteInvocation(d.remote, RemoteFlag, PackageCommandFlag, d.pkgCmd)
	}
	return util.RemoteInvocation(d.remote, RemoteFlag)
}

// ExecuteAndCapture runs the uploaded artifact in remote-collection mode and
// returns everything it wrote to stdout.
func (d *Dispatcher) ExecuteAndCapture() (string, error) {
	cmd := d.Command()
	d.log.Debug("running %s on %s", cmd, d.target.Host())
	out, err := d.transport.Capture(cmd)
	if err != nil {
		if errors.Code(err) == "" {
			err = errors.WrapWithCode(err, errors.ErrRemoteExec,
				fmt.Sprintf("Couldn't run %s on %s", cmd, d.target.Host()), "")
		}
		return "", err
	}
	d.log.Debug("captured %d bytes from %s", len(out), d.target.Host())
	return string(out), nil
}

// Close releases the SSH connection. Calling it more than once is safe.
func (d *Dispatcher) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return d.transport.Close()
}
