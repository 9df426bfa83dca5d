// Package ssl builds openssl s_client checks for TLS endpoints.
//
// The helpers produce command lines and predicates that slot into a
// suite case, so certificate and protocol checks read the same way in
// Go and in YAML.
//
// # Certificate subject
//
//	cmd, _ := ssl.SClient(ssl.Options{Host: "local.example.com", ServerName: "local.example.com"})
//	// openssl s_client -connect local.example.com:443 -servername local.example.com
//	tc.Expect = []predicate.Predicate{ssl.SubjectPredicate("local.example.com")}
//
// # SSLv3 (POODLE)
//
// A server that is not vulnerable to CVE-2014-3566 refuses an SSLv3-only
// handshake. openssl reports this on stderr:
//
//	cmd, _ := ssl.SClient(ssl.Options{Host: "local.example.com", SSL3: true})
//	tc.Expect = []predicate.Predicate{ssl.HandshakeRejected()}
//
// s_client exits non-zero in both of these checks, so the cases set
// AllowFailure and rely on their predicates alone.
//
// # Testing
//
// The package uses a global launcher that can be replaced for testing:
//
//	ssl.SetLauncher(&executor.MockLauncher{})
//	defer ssl.ResetLauncher()
package ssl
