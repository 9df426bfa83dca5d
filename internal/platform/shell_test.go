package platform

import (
	"runtime"
	"strings"
	"testing"
)

func TestDetectShell(t *testing.T) {
	shell, err := DetectShell(nil)

	switch runtime.GOOS {
	case "darwin", "linux":
		if err != nil {
			t.Fatalf("DetectShell failed: %v", err)
		}
		if len(shell) != 2 || shell[1] != "-c" {
			t.Errorf("unexpected shell argv %v", shell)
		}
		if !pathExists(shell[0]) {
			t.Errorf("detected shell %s does not exist", shell[0])
		}
	case "windows":
		if err != nil || len(shell) != 2 || shell[1] != "/C" {
			t.Errorf("unexpected shell %v, %v", shell, err)
		}
	}
}

func TestDetectShell_Override(t *testing.T) {
	shell, err := DetectShell([]string{"/bin/bash", "-eu", "-c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(shell, " ") != "/bin/bash -eu -c" {
		t.Errorf("override not honoured: %v", shell)
	}
}

func TestPathExists(t *testing.T) {
	if !pathExists("/") {
		t.Error("root path should exist")
	}
	if pathExists("/this/path/should/definitely/not/exist/anywhere") {
		t.Error("non-existent path should return false")
	}
}

func TestPlatform(t *testing.T) {
	p := Platform()
	if !strings.HasPrefix(p, runtime.GOOS+"/") {
		t.Errorf("Platform() = %q, want prefix %s/", p, runtime.GOOS)
	}
}
