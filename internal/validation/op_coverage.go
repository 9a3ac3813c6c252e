// Package validation provides static checks that keep the operation catalogue
// and the provenance transform in lockstep.
package validation

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Error represents one coverage violation found in code.
type Error struct {
	File    string
	Line    int
	Message string
}

func (e Error) String() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
}

const (
	opKindType        = "OpKind"
	transformFuncName = "apply"
)

// ValidateOpCoverage checks that the transform switch in the provenance
// package handles every declared operation kind explicitly. The directory
// must hold the package's source files. Three rules are enforced:
//
//  1. every OpKind constant has a case clause,
//  2. no case names an undeclared kind, and
//  3. the switch carries no default clause, so a new kind fails loudly
//     instead of silently falling through.
func ValidateOpCoverage(dir string) ([]Error, error) {
	fset := token.NewFileSet()
	pkgs, err := parser.ParseDir(fset, dir, func(fi fs.FileInfo) bool {
		return !strings.HasSuffix(fi.Name(), "_test.go")
	}, 0)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", dir, err)
	}

	kinds := map[string]token.Pos{}
	var switchStmt *ast.SwitchStmt
	var switchFile string
	for _, pkg := range pkgs {
		for path, file := range pkg.Files {
			collectOpKinds(file, kinds)
			if sw := findTransformSwitch(file); sw != nil {
				switchStmt = sw
				switchFile = path
			}
		}
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("no %s constants declared under %s", opKindType, dir)
	}
	if switchStmt == nil {
		return nil, fmt.Errorf("transform function %s with a kind switch not found under %s", transformFuncName, dir)
	}

	rel := func(p string) string {
		if r, err := filepath.Rel(dir, p); err == nil {
			return r
		}
		return p
	}

	var violations []Error
	covered := map[string]bool{}
	for _, clause := range switchStmt.Body.List {
		cc, ok := clause.(*ast.CaseClause)
		if !ok {
			continue
		}
		if cc.List == nil {
			violations = append(violations, Error{
				File:    rel(switchFile),
				Line:    fset.Position(cc.Pos()).Line,
				Message: "transform switch must not carry a default clause",
			})
			continue
		}
		for _, expr := range cc.List {
			name := identName(expr)
			if name == "" {
				violations = append(violations, Error{
					File:    rel(switchFile),
					Line:    fset.Position(expr.Pos()).Line,
					Message: "transform case must name an operation kind constant",
				})
				continue
			}
			if _, declared := kinds[name]; !declared {
				violations = append(violations, Error{
					File:    rel(switchFile),
					Line:    fset.Position(expr.Pos()).Line,
					Message: fmt.Sprintf("transform case %s has no matching %s constant", name, opKindType),
				})
				continue
			}
			if covered[name] {
				violations = append(violations, Error{
					File:    rel(switchFile),
					Line:    fset.Position(expr.Pos()).Line,
					Message: fmt.Sprintf("transform handles %s twice", name),
				})
			}
			covered[name] = true
		}
	}
	for name, pos := range kinds {
		if !covered[name] {
			violations = append(violations, Error{
				File:    rel(fset.Position(pos).Filename),
				Line:    fset.Position(pos).Line,
				Message: fmt.Sprintf("operation kind %s has no transform rule", name),
			})
		}
	}
	sortErrors(violations)
	return violations, nil
}

// collectOpKinds gathers every constant declared with the OpKind type,
// including later constants in the same block that inherit the type.
func collectOpKinds(file *ast.File, out map[string]token.Pos) {
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.CONST {
			continue
		}
		inKindBlock := false
		for _, spec := range gd.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			if vs.Type != nil {
				inKindBlock = identName(vs.Type) == opKindType
			}
			if !inKindBlock {
				continue
			}
			for _, name := range vs.Names {
				if name.Name != "_" {
					out[name.Name] = name.Pos()
				}
			}
		}
	}
}

// findTransformSwitch locates the kind switch inside the transform function.
func findTransformSwitch(file *ast.File) *ast.SwitchStmt {
	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Name.Name != transformFuncName || fd.Recv != nil {
			continue
		}
		var found *ast.SwitchStmt
		ast.Inspect(fd.Body, func(n ast.Node) bool {
			if found != nil {
				return false
			}
			if sw, ok := n.(*ast.SwitchStmt); ok {
				if sel, ok := sw.Tag.(*ast.SelectorExpr); ok && sel.Sel.Name == "Kind" {
					found = sw
					return false
				}
			}
			return true
		})
		if found != nil {
			return found
		}
	}
	return nil
}

func identName(expr ast.Expr) string {
	switch node := expr.(type) {
	case *ast.Ident:
		return node.Name
	case *ast.SelectorExpr:
		return node.Sel.Name
	}
	return ""
}

func sortErrors(errs []Error) {
	sort.Slice(errs, func(i, j int) bool {
		if errs[i].File != errs[j].File {
			return errs[i].File < errs[j].File
		}
		if errs[i].Line != errs[j].Line {
			return errs[i].Line < errs[j].Line
		}
		return errs[i].Message < errs[j].Message
	})
}
