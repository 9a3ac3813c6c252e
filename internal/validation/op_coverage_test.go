package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestProvenancePackagePasses(t *testing.T) {
	violations, err := ValidateOpCoverage(filepath.Join("..", "..", "pkg", "provenance"))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("unexpected violations: %v", violations)
	}
}

func writeFixture(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
			t.Fatalf("write fixture %s: %v", name, err)
		}
	}
	return dir
}

const fixtureKinds = `package fixture

type OpKind string

const (
	OpGrow   OpKind = "grow"
	OpShrink OpKind = "shrink"
	OpWipe   OpKind = "wipe"
)

type Operation struct{ Kind OpKind }
`

func TestDetectsMissingCase(t *testing.T) {
	dir := writeFixture(t, map[string]string{
		"kinds.go": fixtureKinds,
		"apply.go": `package fixture

func apply(op Operation) int {
	switch op.Kind {
	case OpGrow:
		return 1
	case OpShrink:
		return -1
	}
	return 0
}
`,
	})
	violations, err := ValidateOpCoverage(dir)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(violations) != 1 || !strings.Contains(violations[0].Message, "OpWipe has no transform rule") {
		t.Fatalf("violations = %v", violations)
	}
}

func TestDetectsDefaultClause(t *testing.T) {
	dir := writeFixture(t, map[string]string{
		"kinds.go": fixtureKinds,
		"apply.go": `package fixture

func apply(op Operation) int {
	switch op.Kind {
	case OpGrow:
		return 1
	case OpShrink:
		return -1
	case OpWipe:
		return 0
	default:
		return 0
	}
}
`,
	})
	violations, err := ValidateOpCoverage(dir)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(violations) != 1 || !strings.Contains(violations[0].Message, "default clause") {
		t.Fatalf("violations = %v", violations)
	}
}

func TestDetectsUnknownAndDuplicateCases(t *testing.T) {
	dir := writeFixture(t, map[string]string{
		"kinds.go": fixtureKinds,
		"apply.go": `package fixture

func apply(op Operation) int {
	switch op.Kind {
	case OpGrow:
		return 1
	case OpGrow:
		return 2
	case OpShrink, OpWipe:
		return -1
	case OpVanish:
		return 0
	}
	return 0
}
`,
	})
	violations, err := ValidateOpCoverage(dir)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	var sawDuplicate, sawUnknown bool
	for _, v := range violations {
		if strings.Contains(v.Message, "handles OpGrow twice") {
			sawDuplicate = true
		}
		if strings.Contains(v.Message, "OpVanish has no matching OpKind constant") {
			sawUnknown = true
		}
	}
	if !sawDuplicate || !sawUnknown {
		t.Fatalf("violations = %v", violations)
	}
}

func TestMissingSwitchIsAnError(t *testing.T) {
	dir := writeFixture(t, map[string]string{"kinds.go": fixtureKinds})
	if _, err := ValidateOpCoverage(dir); err == nil {
		t.Fatalf("missing transform accepted")
	}
}

func TestMissingKindsIsAnError(t *testing.T) {
	dir := writeFixture(t, map[string]string{"apply.go": `package fixture

type Operation struct{ Kind string }

func apply(op Operation) int {
	switch op.Kind {
	case "x":
		return 1
	}
	return 0
}
`})
	if _, err := ValidateOpCoverage(dir); err == nil {
		t.Fatalf("missing kind constants accepted")
	}
}

func TestErrorString(t *testing.T) {
	e := Error{File: "apply.go", Line: 7, Message: "boom"}
	if e.String() != "apply.go:7: boom" {
		t.Fatalf("error string = %q", e.String())
	}
}
