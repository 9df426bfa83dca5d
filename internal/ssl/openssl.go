package ssl

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/ksyq12/hostcheck/internal/config"
	"github.com/ksyq12/hostcheck/internal/executor"
	"github.com/ksyq12/hostcheck/internal/predicate"
)

// DefaultPort is the port s_client connects to when none is given.
const DefaultPort = 443

// Handshake failure lines printed by openssl when a server refuses an
// SSLv3 handshake. The wording changed between OpenSSL releases.
const (
	HandshakeFailureLegacy = "routines:SSL3_READ_BYTES:sslv3 alert handshake failure"
	HandshakeFailure       = "ssl3_read_bytes:sslv3 alert handshake failure"
)

// launcher runs openssl (can be replaced for testing)
var launcher executor.ProcessLauncher = defaultLauncher()

func defaultLauncher() executor.ProcessLauncher {
	return executor.NewSystemLauncher([]string{"/bin/sh", "-c"}, 0)
}

// SetLauncher allows tests to inject a mock launcher
func SetLauncher(l executor.ProcessLauncher) {
	launcher = l
}

// ResetLauncher restores the system launcher
func ResetLauncher() {
	launcher = defaultLauncher()
}

// Options describes an s_client connection.
type Options struct {
	Host       string
	Port       int    // DefaultPort when zero
	ServerName string // SNI name; omitted when empty
	SSL3       bool   // only offer SSLv3
}

// SClient builds an openssl s_client command line for opts.
func SClient(opts Options) (string, error) {
	if opts.Host == "" {
		return "", fmt.Errorf("host is required")
	}
	if strings.ContainsAny(opts.Host+opts.ServerName, " \t\n'\";&|$`<>") {
		return "", fmt.Errorf("invalid host %q", opts.Host)
	}
	port := opts.Port
	if port == 0 {
		port = DefaultPort
	}
	if port < 0 || port > 65535 {
		return "", fmt.Errorf("invalid port %d", port)
	}

	args := []string{"openssl", "s_client", "-connect", net.JoinHostPort(opts.Host, strconv.Itoa(port))}
	if opts.ServerName != "" {
		args = append(args, "-servername", opts.ServerName)
	}
	if opts.SSL3 {
		args = append(args, "-ssl3")
	}
	return strings.Join(args, " "), nil
}

// SubjectPredicate holds when the certificate printed on stdout has the
// given common name.
func SubjectPredicate(cn string) predicate.Predicate {
	return predicate.Contains(predicate.Stdout, "CN="+cn).
		WithDescription(fmt.Sprintf("certificate subject CN=%s", cn))
}

// HandshakeRejected holds when stderr shows the server refusing an
// SSLv3 handshake, in either OpenSSL wording.
func HandshakeRejected() predicate.Predicate {
	return predicate.Or(
		predicate.Contains(predicate.Stderr, HandshakeFailureLegacy),
		predicate.Contains(predicate.Stderr, HandshakeFailure),
	).WithDescription("server rejects the SSLv3 handshake")
}

// CheckOptions selects the cases CheckSuite builds for one endpoint.
type CheckOptions struct {
	Host    string
	Port    int
	CN      string        // expected subject CN; Host when empty
	Poodle  bool          // add the SSLv3 rejection case
	Workdir string        // where s_client runs; the process cwd when empty
	Timeout time.Duration // per case
}

// CheckSuite builds an in-memory suite checking the certificate served
// for opts.Host and, with Poodle set, that SSLv3 is refused.
func CheckSuite(opts CheckOptions) (*config.Suite, error) {
	if opts.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive")
	}
	cn := opts.CN
	if cn == "" {
		cn = opts.Host
	}

	subject, err := SClient(Options{Host: opts.Host, Port: opts.Port, ServerName: opts.Host})
	if err != nil {
		return nil, err
	}
	s := &config.Suite{
		Name: "tls " + opts.Host,
		Cases: []*config.TestCase{{
			Name:         fmt.Sprintf("%s should serve CN=%s", opts.Host, cn),
			Command:      subject,
			Workdir:      opts.Workdir,
			Timeout:      config.Duration(opts.Timeout),
			AllowFailure: true,
			Expect:       []predicate.Predicate{SubjectPredicate(cn)},
		}},
	}

	if opts.Poodle {
		ssl3, err := SClient(Options{Host: opts.Host, Port: opts.Port, SSL3: true})
		if err != nil {
			return nil, err
		}
		s.Cases = append(s.Cases, &config.TestCase{
			Name:         fmt.Sprintf("%s is not vulnerable to CVE-2014-3566 (SSLv3 POODLE)", opts.Host),
			Command:      ssl3,
			Workdir:      opts.Workdir,
			Timeout:      config.Duration(opts.Timeout),
			AllowFailure: true,
			Expect:       []predicate.Predicate{HandshakeRejected()},
		})
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// IsInstalled checks if openssl is on PATH
func IsInstalled() bool {
	_, err := launcher.LookPath("openssl")
	return err == nil
}

// Version returns the first line of `openssl version`.
func Version(ctx context.Context) (string, error) {
	if !IsInstalled() {
		return "", fmt.Errorf("openssl is not installed. Install it with: apt install openssl")
	}

	res, err := launcher.Launch(ctx, executor.Command{Line: "openssl version", Timeout: 10 * time.Second})
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 || res.TimedOut {
		return "", fmt.Errorf("openssl version failed: %s", strings.TrimSpace(res.Stderr))
	}
	line, _, _ := strings.Cut(strings.TrimSpace(res.Stdout), "\n")
	return line, nil
}
