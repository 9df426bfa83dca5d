// Package platform selects the shell used to run test case command lines.
package platform

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// unixShells are tried in order on darwin and linux.
var unixShells = []string{"/bin/sh", "/usr/bin/sh", "/bin/bash", "/usr/bin/bash"}

// DetectShell returns the argv prefix a command line is appended to,
// such as ["/bin/sh", "-c"]. A non-empty override (from config) wins.
func DetectShell(override []string) ([]string, error) {
	if len(override) > 0 {
		return override, nil
	}

	switch runtime.GOOS {
	case "windows":
		return windowsShell(), nil
	case "darwin", "linux", "freebsd", "openbsd", "netbsd":
		return detectUnixShell()
	default:
		return nil, fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

func detectUnixShell() ([]string, error) {
	for _, sh := range unixShells {
		if pathExists(sh) {
			return []string{sh, "-c"}, nil
		}
	}
	return nil, fmt.Errorf("no POSIX shell found (checked %s)", strings.Join(unixShells, ", "))
}

func windowsShell() []string {
	if comspec := os.Getenv("COMSPEC"); comspec != "" {
		return []string{comspec, "/C"}
	}
	return []string{"cmd.exe", "/C"}
}

// pathExists checks if a path exists on the filesystem.
func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Platform returns a string describing the current platform.
func Platform() string {
	return fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
}
