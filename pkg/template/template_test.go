package template

import (
	"testing"
	"time"
)

func TestExpandAllTokens(t *testing.T) {
	ctx := Context{
		Name:   "Invoices",
		Label:  "2024-Q1",
		Drive:  "D:",
		Parent: `D:\Archive`,
		When:   time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC),
	}

	got, err := Expand(`{drive}\Sorted\{yyyy}\{yyyyMM}\{yyyyMMdd}_{name}_{label}`, ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `D:\Sorted\2026\202603\20260305_Invoices_2024-Q1`
	if got != want {
		t.Errorf("Expand() = %q, want %q", got, want)
	}
}

func TestExpandEmptyLabelSubstitutesEmptyString(t *testing.T) {
	ctx := Context{Name: "Invoices", Label: ""}
	got, err := Expand(`{name}-{label}`, ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Invoices-" {
		t.Errorf("Expand() = %q, want %q", got, "Invoices-")
	}
}

func TestExpandEscapedBraces(t *testing.T) {
	got, err := Expand(`\{{name}\}`, Context{Name: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "{x}" {
		t.Errorf("Expand() = %q, want %q", got, "{x}")
	}
}

func TestExpandUnrecognizedToken(t *testing.T) {
	if _, err := Expand("{bogus}", Context{}); err == nil {
		t.Fatal("expected error for unrecognized token")
	}
}

func TestExpandUnbalancedBrace(t *testing.T) {
	if _, err := Expand("{name", Context{Name: "x"}); err == nil {
		t.Fatal("expected error for unbalanced brace")
	}
}
