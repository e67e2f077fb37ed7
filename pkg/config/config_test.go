package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/SumihisaYutani/FileMover/pkg/model"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "filemover.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeTempConfig(t, `{
		"roots": ["D:\\Data"],
		"rules": [
			{"id": "r1", "kind": "contains", "pattern": "report", "dest_root": "D:\\Archive", "template": "{name}"}
		],
		"options": {"system_protections": true}
	}`)

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(cfg.Roots) != 1 || cfg.Roots[0] != `D:\Data` {
		t.Errorf("Roots = %v", cfg.Roots)
	}
	if len(cfg.Rules) != 1 || cfg.Rules[0].Pattern.Kind != model.PatternContains {
		t.Errorf("Rules = %+v", cfg.Rules)
	}
	if !cfg.Rules[0].Enabled {
		t.Error("expected rule to default to enabled")
	}
	if cfg.Rules[0].ConflictPolicy != model.PolicyAutoRename {
		t.Errorf("ConflictPolicy = %v, want default AutoRename", cfg.Rules[0].ConflictPolicy)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeTempConfig(t, `{"roots": ["D:\\Data"], "bogus_field": true}`)
	if _, err := Load(path, ""); err == nil {
		t.Fatal("expected error for unknown top-level field")
	}
}

func TestLoadRejectsDuplicateRuleID(t *testing.T) {
	path := writeTempConfig(t, `{
		"roots": ["D:\\Data"],
		"rules": [
			{"id": "r1", "kind": "contains", "pattern": "a"},
			{"id": "r1", "kind": "contains", "pattern": "b"}
		]
	}`)
	if _, err := Load(path, ""); err == nil {
		t.Fatal("expected error for duplicate rule id")
	}
}

func TestLoadRejectsMissingRoots(t *testing.T) {
	path := writeTempConfig(t, `{"roots": []}`)
	if _, err := Load(path, ""); err == nil {
		t.Fatal("expected error for empty roots")
	}
}

func TestLoadProfileOverridesRoots(t *testing.T) {
	path := writeTempConfig(t, `{
		"roots": ["D:\\Data"],
		"rules": [{"id": "r1", "kind": "contains", "pattern": "x"}],
		"profiles": {
			"work": {"roots": ["E:\\Work"]}
		}
	}`)

	cfg, err := Load(path, "work")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(cfg.Roots) != 1 || cfg.Roots[0] != `E:\Work` {
		t.Errorf("Roots = %v, want profile override", cfg.Roots)
	}
}

func TestLoadUnknownProfile(t *testing.T) {
	path := writeTempConfig(t, `{"roots": ["D:\\Data"]}`)
	if _, err := Load(path, "missing"); err == nil {
		t.Fatal("expected error for unknown profile")
	}
}
