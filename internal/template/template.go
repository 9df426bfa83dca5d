package template

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/ksyq12/hostcheck/internal/ssl"
)

// Suite kinds that can be scaffolded.
const (
	KindSNI       = "sni"
	KindPoodle    = "poodle"
	KindProvision = "provision"
)

// Data contains data for rendering suite templates
type Data struct {
	Host           string // host under test (sni, poodle)
	ProductionHost string // optional second sni case
	ProductionCN   string // CN expected from ProductionHost; defaults to ProductionHost
	Port           int    // TLS port; 443 when zero
	Stage          string // capistrano stage (provision)
	Workdir        string // relative to the suite file; "." when empty

	HandshakeFailure       string
	HandshakeFailureLegacy string
}

// Render renders the suite template for kind.
func Render(kind string, data Data) (string, error) {
	if err := prepare(kind, &data); err != nil {
		return "", err
	}

	content, err := suiteTemplates.ReadFile(fmt.Sprintf("suites/%s.yaml.tmpl", kind))
	if err != nil {
		return "", fmt.Errorf("template not found: %s", kind)
	}

	funcMap := template.FuncMap{
		"quote":   quote,
		"sclient": sclient,
	}

	tmpl, err := template.New(kind).Funcs(funcMap).Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

// Available returns the kinds that have a template.
func Available() []string {
	entries, err := suiteTemplates.ReadDir("suites")
	if err != nil {
		return nil
	}
	var kinds []string
	for _, e := range entries {
		kinds = append(kinds, strings.TrimSuffix(e.Name(), ".yaml.tmpl"))
	}
	sort.Strings(kinds)
	return kinds
}

// prepare fills defaults and checks the fields kind needs.
func prepare(kind string, d *Data) error {
	if d.Workdir == "" {
		d.Workdir = "."
	}
	d.HandshakeFailure = ssl.HandshakeFailure
	d.HandshakeFailureLegacy = ssl.HandshakeFailureLegacy

	switch kind {
	case KindSNI, KindPoodle:
		if d.Host == "" {
			return fmt.Errorf("%s suite requires a host", kind)
		}
		if d.ProductionHost != "" && d.ProductionCN == "" {
			d.ProductionCN = d.ProductionHost
		}
	case KindProvision:
		if d.Stage == "" {
			d.Stage = "production"
		}
		if strings.ContainsAny(d.Stage, " \t\n'\";&|$`<>") {
			return fmt.Errorf("invalid stage %q", d.Stage)
		}
	default:
		return fmt.Errorf("unknown suite kind %q (available: %s)", kind, strings.Join(Available(), ", "))
	}
	return nil
}

// quote renders s as a YAML scalar.
func quote(s string) (string, error) {
	b, err := yaml.Marshal(s)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(b), "\n"), nil
}

func sclient(host string, port int, serverName string, ssl3 bool) (string, error) {
	return ssl.SClient(ssl.Options{Host: host, Port: port, ServerName: serverName, SSL3: ssl3})
}
