//go:build windows

package scan

import "testing"

func TestHasPathPrefix(t *testing.T) {
	cases := []struct {
		path, prefix string
		want         bool
	}{
		{`c:\windows\system32`, `c:\windows`, true},
		{`c:\windows`, `c:\windows`, true},
		{`c:\windowsx`, `c:\windows`, false},
		{`c:\users\bob`, `c:\windows`, false},
	}
	for _, c := range cases {
		if got := hasPathPrefix(c.path, c.prefix); got != c.want {
			t.Errorf("hasPathPrefix(%q, %q) = %v, want %v", c.path, c.prefix, got, c.want)
		}
	}
}

func TestIsRefusedUnderSystemProtection(t *testing.T) {
	protections := []string{`c:\windows`, `c:\program files`}
	if !isRefused(`C:\Windows\System32`, protections, nil) {
		t.Error("expected path under C:\\Windows to be refused")
	}
	if isRefused(`C:\Users\bob\Documents`, protections, nil) {
		t.Error("expected unrelated path not to be refused")
	}
}

func TestIsRefusedUnderExcludedPath(t *testing.T) {
	if !isRefused(`D:\Staging\WIP`, nil, []string{`D:\Staging`}) {
		t.Error("expected path under an excluded prefix to be refused")
	}
}

func TestBaseNameAndParentDir(t *testing.T) {
	path := `D:\Archive\2024\Invoices`
	if got := baseName(path); got != "Invoices" {
		t.Errorf("baseName() = %q, want %q", got, "Invoices")
	}
	if got := parentDir(path); got != `D:\Archive\2024` {
		t.Errorf("parentDir() = %q, want %q", got, `D:\Archive\2024`)
	}
}

func TestDrive(t *testing.T) {
	if got := drive(`D:\Archive`); got != "D:" {
		t.Errorf("drive() = %q, want %q", got, "D:")
	}
	if got := drive(`\\server\share\x`); got != "" {
		t.Errorf("drive() = %q, want empty for UNC path", got)
	}
}

func TestJoinPath(t *testing.T) {
	if got := joinPath(`D:\Archive\`, `\2024\Invoices`); got != `D:\Archive\2024\Invoices` {
		t.Errorf("joinPath() = %q", got)
	}
	if got := joinPath(`D:\Archive`, ""); got != `D:\Archive` {
		t.Errorf("joinPath() with empty rel = %q, want %q", got, `D:\Archive`)
	}
}
