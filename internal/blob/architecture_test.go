package blob

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestFacadesWrapInfra ensures that only the facade packages wrap the
// infra-backed implementations. Every other package must depend on the
// facade interfaces instead of importing infra packages directly.
func TestFacadesWrapInfra(t *testing.T) {
	boundaries := []struct {
		infraPrefix   string
		allowedPrefix string
	}{
		{"seqprov/internal/infra/blob", "seqprov/internal/blob"},
		{"seqprov/internal/infra/archive", "seqprov/internal/archive"},
	}

	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, "seqprov/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	seen := make(map[string]struct{})
	for _, b := range boundaries {
		for _, pkg := range pkgs {
			if hasImportPrefix(pkg.PkgPath, b.allowedPrefix) || hasImportPrefix(pkg.PkgPath, b.infraPrefix) {
				continue
			}
			for importPath := range pkg.Imports {
				if hasImportPrefix(importPath, b.infraPrefix) {
					seen[pkg.PkgPath+": "+importPath] = struct{}{}
				}
			}
		}
	}

	if len(seen) > 0 {
		violations := make([]string, 0, len(seen))
		for v := range seen {
			violations = append(violations, v)
		}
		sort.Strings(violations)
		for _, v := range violations {
			t.Errorf("forbidden import of infra package: %s", v)
		}
		t.Fatalf("found %d forbidden imports of infra packages", len(violations))
	}
}

func hasImportPrefix(importPath, prefix string) bool {
	return importPath == prefix || strings.HasPrefix(importPath, prefix+"/")
}
