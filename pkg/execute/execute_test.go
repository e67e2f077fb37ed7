package execute

import (
	"os"
	"testing"

	"github.com/pkg/errors"
)

func TestIsTransientWrapsPathError(t *testing.T) {
	inner := &os.PathError{Op: "open", Path: "x", Err: os.ErrPermission}
	wrapped := errors.Wrap(inner, "context")
	if isTransient(wrapped) {
		t.Error("expected wrapped permission error to be treated as permanent, not transient")
	}
}

func TestIsTransientFalseForOtherErrors(t *testing.T) {
	if isTransient(errors.New("disk full")) {
		t.Error("expected generic error not to be treated as transient")
	}
}
