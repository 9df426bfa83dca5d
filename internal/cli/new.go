package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ksyq12/hostcheck/internal/config"
	"github.com/ksyq12/hostcheck/internal/input"
	"github.com/ksyq12/hostcheck/internal/output"
	"github.com/ksyq12/hostcheck/internal/template"
	"github.com/spf13/cobra"
)

var (
	newHost           string
	newProductionHost string
	newProductionCN   string
	newPort           int
	newStage          string
	newWorkdir        string
	newForce          bool
)

var newCmd = &cobra.Command{
	Use:   "new <kind> <file>",
	Short: "Scaffold a suite file from a template",
	Long: `Write a new suite file from one of the built-in templates.

Kinds:
  sni        the certificate served for each host name has the expected CN
  poodle     the server refuses SSLv3 handshakes (CVE-2014-3566)
  provision  bundle exec cap <stage> evolve:provision exits 0

Examples:
  hostcheck new sni suites/sni.yaml --host local.example.com \
      --production-host production.example.com --production-cn example.com
  hostcheck new poodle suites/poodle.yaml --host local.example.com
  hostcheck new provision suites/provision.yaml --stage production --workdir temp`,
	Args: cobra.ExactArgs(2),
	RunE: runNew,
}

func init() {
	newCmd.Flags().StringVar(&newHost, "host", "", "Host under test (sni, poodle)")
	newCmd.Flags().StringVar(&newProductionHost, "production-host", "", "Second host for the sni suite")
	newCmd.Flags().StringVar(&newProductionCN, "production-cn", "", "CN expected from --production-host (default: the host)")
	newCmd.Flags().IntVar(&newPort, "port", 0, "TLS port (default 443)")
	newCmd.Flags().StringVar(&newStage, "stage", "", "Capistrano stage (provision, default production)")
	newCmd.Flags().StringVar(&newWorkdir, "workdir", "", "Working directory of the cases, relative to the suite file")
	newCmd.Flags().BoolVarP(&newForce, "force", "f", false, "Overwrite an existing file without confirmation")

	rootCmd.AddCommand(newCmd)
}

func runNew(cmd *cobra.Command, args []string) error {
	kind, path := args[0], args[1]

	data := template.Data{
		Host:           newHost,
		ProductionHost: newProductionHost,
		ProductionCN:   newProductionCN,
		Port:           newPort,
		Stage:          newStage,
		Workdir:        newWorkdir,
	}
	if data.Host == "" && (kind == template.KindSNI || kind == template.KindPoodle) {
		host, err := input.Ask(deps.StdinReader, output.Writer(), "Host to check", "")
		if err != nil {
			return err
		}
		data.Host = strings.TrimSpace(host)
	}

	content, err := template.Render(kind, data)
	if err != nil {
		return err
	}

	// Rendered suites must load; a failure here is a template bug.
	if _, err := config.ParseSuite([]byte(content), filepath.Dir(path), nil); err != nil {
		return fmt.Errorf("generated suite is invalid: %w", err)
	}

	if _, err := os.Stat(path); err == nil && !newForce {
		ok, err := input.Confirm(deps.StdinReader, output.Writer(), fmt.Sprintf("%s exists. Overwrite?", path))
		if err != nil {
			return err
		}
		if !ok {
			output.Info("Cancelled")
			return nil
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write suite: %w", err)
	}

	return outputResult(
		map[string]interface{}{
			"success": true,
			"kind":    kind,
			"path":    path,
		},
		"Created %s suite %s", kind, path,
	)
}
