// Package cli implements the hostfacts command-line interface.
//
// hostfacts runs in one of two modes chosen by the -r flag:
//
//	hostfacts -s <host> -u <user> -k <key>   - upload self, run remotely, print results
//	hostfacts -r                             - collect facts about this host
//
// Local mode loads the config (see internal/config), validates the target,
// then hands off to dispatch.Run. Phase progress is written to stderr and the
// RESULTS banner plus the captured report to stdout. Remote mode runs the
// telemetry collector and prints its report to stdout; nothing else is
// written there.
//
// # Errors and exit status
//
// Commands return errors instead of exiting. Run is the only place that
// prints them and picks the exit status: 0 on success or --help, 2 for usage
// errors (bad flags, stray arguments), 1 for everything else.
//
// Dependencies that touch the network or the host (the SSH dialer and the
// telemetry source) live on the app value so tests can replace them.
package cli
