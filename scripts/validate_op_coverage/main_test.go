package main

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"seqprov/internal/validation"
)

func TestRunCleanPackage(t *testing.T) {
	var stderr bytes.Buffer
	code := run([]string{"validate_op_coverage"}, &stderr, func(dir string) ([]validation.Error, error) {
		if dir != defaultDir {
			t.Fatalf("dir = %q", dir)
		}
		return nil, nil
	})
	if code != 0 || stderr.Len() != 0 {
		t.Fatalf("code = %d, stderr = %q", code, stderr.String())
	}
}

func TestRunReportsViolations(t *testing.T) {
	var stderr bytes.Buffer
	code := run([]string{"validate_op_coverage", "some/dir"}, &stderr, func(dir string) ([]validation.Error, error) {
		if dir != "some/dir" {
			t.Fatalf("dir = %q", dir)
		}
		return []validation.Error{{File: "apply.go", Line: 3, Message: "kind OpX uncovered"}}, nil
	})
	if code != 1 {
		t.Fatalf("code = %d", code)
	}
	if !strings.Contains(stderr.String(), "apply.go:3: kind OpX uncovered") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestRunReportsErrors(t *testing.T) {
	var stderr bytes.Buffer
	code := run([]string{"validate_op_coverage"}, &stderr, func(string) ([]validation.Error, error) {
		return nil, fmt.Errorf("parse failed")
	})
	if code != 2 || !strings.Contains(stderr.String(), "parse failed") {
		t.Fatalf("code = %d, stderr = %q", code, stderr.String())
	}
}
