// Command write_boundary_audit reports HTTP handler methods that write through a
// table repo instead of an aggregate. It exits non-zero when any are found.
//
//	go run ./scripts/write_boundary_audit.go [repo-root]
package main

import (
	"encoding/json"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type fieldKind int

const (
	fieldOther fieldKind = iota
	fieldRepo
	fieldAggregate
)

type handlerField struct {
	Name string    `json:"name"`
	Type string    `json:"type"`
	Kind fieldKind `json:"-"`
}

type methodStats struct {
	Handler            string   `json:"handler"`
	Method             string   `json:"method"`
	File               string   `json:"file"`
	Line               int      `json:"line"`
	RepoWriteCalls     int      `json:"repo_write_calls"`
	RepoWritesObserved []string `json:"repo_writes_observed,omitempty"`
	AggregateCalls     int      `json:"aggregate_calls"`
	AggregatesObserved []string `json:"aggregates_observed,omitempty"`
	RepoReadsObserved  []string `json:"repo_reads_observed,omitempty"`
}

type auditReport struct {
	HandlerMethods         int           `json:"handler_methods"`
	MethodsUsingAggregates int           `json:"methods_using_aggregates"`
	RepoWriteCallsites     int           `json:"repo_write_callsites"`
	Violations             []methodStats `json:"violations"`
	Methods                []methodStats `json:"methods"`
}

// repoWriteMethods covers every mutating method on the marketplace repos.
var repoWriteMethods = map[string]bool{
	"Create":            true,
	"Delete":            true,
	"SaveLines":         true,
	"ReplaceLines":      true,
	"ReplaceReturnRows": true,
	"Append":            true,
	"MarkPublished":     true,
	"MarkFailed":        true,
	"LockByID":          true,
	"LockByIDs":         true,
	"LockByClientID":    true,
	"LockPending":       true,
}

func main() {
	root := "."
	if len(os.Args) > 1 {
		root = os.Args[1]
	}

	handlersDir := filepath.Join(root, "internal", "http", "handlers")
	fset := token.NewFileSet()
	pkgs, err := parser.ParseDir(fset, handlersDir, func(fi os.FileInfo) bool {
		name := fi.Name()
		return strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go")
	}, 0)
	if err != nil {
		exitf("parse dir: %v", err)
	}
	pkg, ok := pkgs["handlers"]
	if !ok {
		exitf("handlers package not found in %s", handlersDir)
	}

	fieldsByStruct := map[string]map[string]handlerField{}
	for _, f := range pkg.Files {
		collectStructFields(f, fieldsByStruct)
	}

	var methods []methodStats
	for filePath, f := range pkg.Files {
		rel, err := filepath.Rel(root, filePath)
		if err != nil {
			rel = filePath
		}
		collectMethodStats(fset, f, rel, fieldsByStruct, &methods)
	}

	report := buildReport(methods)
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		exitf("marshal report: %v", err)
	}
	fmt.Println(string(out))
	if len(report.Violations) > 0 {
		os.Exit(1)
	}
}

func collectStructFields(file *ast.File, out map[string]map[string]handlerField) {
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			st, ok := ts.Type.(*ast.StructType)
			if !ok || !strings.HasSuffix(ts.Name.Name, "Handler") {
				continue
			}
			fields := map[string]handlerField{}
			for _, fld := range st.Fields.List {
				typeName := exprString(fld.Type)
				kind := classify(typeName)
				for _, name := range fld.Names {
					fields[name.Name] = handlerField{Name: name.Name, Type: typeName, Kind: kind}
				}
			}
			out[ts.Name.Name] = fields
		}
	}
}

func classify(typeName string) fieldKind {
	switch {
	case strings.HasPrefix(typeName, "repos.") && strings.HasSuffix(typeName, "Repo"):
		return fieldRepo
	case strings.HasPrefix(typeName, "domainagg.") && strings.HasSuffix(typeName, "Aggregate"):
		return fieldAggregate
	default:
		return fieldOther
	}
}

func collectMethodStats(
	fset *token.FileSet,
	file *ast.File,
	relFile string,
	fieldsByStruct map[string]map[string]handlerField,
	out *[]methodStats,
) {
	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Recv == nil || fd.Body == nil || len(fd.Recv.List) == 0 {
			continue
		}
		recvName, recvType := recvInfo(fd.Recv.List[0])
		if recvName == "" || recvType == "" {
			continue
		}
		fields, ok := fieldsByStruct[recvType]
		if !ok {
			continue
		}

		writes := map[string]bool{}
		reads := map[string]bool{}
		aggs := map[string]bool{}
		writeCalls, aggCalls := 0, 0

		// Method values passed along (h.orders.Pay) count the same as direct calls.
		ast.Inspect(fd.Body, func(n ast.Node) bool {
			fnSel, ok := n.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			rcvSel, ok := fnSel.X.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			base, ok := rcvSel.X.(*ast.Ident)
			if !ok || base.Name != recvName {
				return true
			}
			f, ok := fields[rcvSel.Sel.Name]
			if !ok {
				return true
			}
			qualified := f.Name + "." + fnSel.Sel.Name
			switch f.Kind {
			case fieldRepo:
				if repoWriteMethods[fnSel.Sel.Name] {
					writeCalls++
					writes[qualified] = true
				} else {
					reads[qualified] = true
				}
			case fieldAggregate:
				aggCalls++
				aggs[qualified] = true
			}
			return true
		})

		*out = append(*out, methodStats{
			Handler:            recvType,
			Method:             fd.Name.Name,
			File:               filepath.ToSlash(relFile),
			Line:               fset.Position(fd.Pos()).Line,
			RepoWriteCalls:     writeCalls,
			RepoWritesObserved: sortedKeys(writes),
			AggregateCalls:     aggCalls,
			AggregatesObserved: sortedKeys(aggs),
			RepoReadsObserved:  sortedKeys(reads),
		})
	}
}

func buildReport(methods []methodStats) auditReport {
	sort.Slice(methods, func(i, j int) bool {
		if methods[i].File == methods[j].File {
			return methods[i].Line < methods[j].Line
		}
		return methods[i].File < methods[j].File
	})
	report := auditReport{HandlerMethods: len(methods), Methods: methods}
	for _, m := range methods {
		if m.AggregateCalls > 0 {
			report.MethodsUsingAggregates++
		}
		if m.RepoWriteCalls > 0 {
			report.RepoWriteCallsites += m.RepoWriteCalls
			report.Violations = append(report.Violations, m)
		}
	}
	return report
}

func recvInfo(field *ast.Field) (string, string) {
	if field == nil || len(field.Names) == 0 {
		return "", ""
	}
	recvName := field.Names[0].Name
	switch t := field.Type.(type) {
	case *ast.StarExpr:
		if id, ok := t.X.(*ast.Ident); ok {
			return recvName, id.Name
		}
	case *ast.Ident:
		return recvName, t.Name
	}
	return "", ""
}

func exprString(e ast.Expr) string {
	switch t := e.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return exprString(t.X)
	case *ast.SelectorExpr:
		return exprString(t.X) + "." + t.Sel.Name
	default:
		return ""
	}
}

func sortedKeys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
