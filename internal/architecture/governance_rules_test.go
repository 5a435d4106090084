package architecture_test

import (
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const modulePath = "fleet-dash"

type layerRule struct {
	sourcePrefix string
	forbidden    []string
	hint         string
}

func internalPkgs(names ...string) []string {
	out := make([]string, 0, len(names)+2)
	for _, n := range names {
		out = append(out, modulePath+"/internal/"+n)
	}
	return append(out, modulePath+"/cmd", modulePath+"/pkg/cli")
}

var architectureRules = []layerRule{
	{
		sourcePrefix: modulePath + "/internal/tabular",
		forbidden:    internalPkgs("domain", "fleet", "service", "api", "db", "warehouse", "middleware", "ui", "app", "config"),
		hint:         "tabular is a leaf package",
	},
	{
		sourcePrefix: modulePath + "/internal/domain",
		forbidden:    internalPkgs("fleet", "service", "api", "db", "warehouse", "middleware", "ui", "app", "config"),
		hint:         "domain may only import domain and tabular",
	},
	{
		sourcePrefix: modulePath + "/internal/fleet",
		forbidden:    internalPkgs("service", "api", "db", "warehouse", "middleware", "ui", "app", "config"),
		hint:         "fleet may only import domain and tabular",
	},
	{
		sourcePrefix: modulePath + "/internal/service",
		forbidden:    internalPkgs("api", "db", "warehouse", "middleware", "ui", "app", "config"),
		hint:         "service should depend on domain, fleet and tabular through ports",
	},
	{
		sourcePrefix: modulePath + "/internal/api",
		forbidden:    internalPkgs("db", "warehouse", "service", "ui", "app", "config"),
		hint:         "api should depend on domain, fleet, tabular and middleware",
	},
	{
		sourcePrefix: modulePath + "/internal/ui",
		forbidden:    internalPkgs("db", "warehouse", "service", "api", "app", "config"),
		hint:         "ui should depend on domain only",
	},
	{
		sourcePrefix: modulePath + "/internal/db",
		forbidden:    internalPkgs("fleet", "service", "api", "warehouse", "middleware", "ui", "app", "config"),
		hint:         "db should depend on domain and db-local packages",
	},
	{
		sourcePrefix: modulePath + "/internal/warehouse",
		forbidden:    internalPkgs("fleet", "service", "api", "db", "middleware", "ui", "app", "config"),
		hint:         "warehouse should depend on domain and tabular",
	},
	{
		sourcePrefix: modulePath + "/internal/middleware",
		forbidden:    internalPkgs("fleet", "service", "api", "db", "warehouse", "ui", "app", "config"),
		hint:         "middleware should depend on domain only",
	},
}

func collectGoFiles(root string) ([]string, error) {
	files := make([]string, 0)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".go") {
			files = append(files, filepath.ToSlash(path))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func repoRootDir() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "."
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}

func internalRootDir() string {
	return filepath.Join(repoRootDir(), "internal")
}

func findRule(sourcePkg string) (layerRule, bool) {
	for _, rule := range architectureRules {
		if hasPathPrefix(sourcePkg, rule.sourcePrefix) {
			return rule, true
		}
	}
	return layerRule{}, false
}

func matchingForbiddenPrefix(importPath string, forbidden []string) string {
	for _, prefix := range forbidden {
		if hasPathPrefix(importPath, prefix) {
			return prefix
		}
	}
	return ""
}

func hasPathPrefix(value string, prefix string) bool {
	return value == prefix || strings.HasPrefix(value, prefix+"/")
}

func packageImportPath(file string) string {
	path := filepath.ToSlash(file)
	idx := strings.LastIndex(path, "/internal/")
	if idx >= 0 {
		return modulePath + filepath.ToSlash(filepath.Dir(path[idx:]))
	}
	return modulePath + "/" + filepath.ToSlash(filepath.Dir(path))
}

func isTestFile(path string) bool {
	return strings.HasSuffix(filepath.Base(path), "_test.go")
}

func parseImports(t *testing.T, file string) []string {
	t.Helper()

	fset := token.NewFileSet()
	parsed, err := parser.ParseFile(fset, file, nil, parser.ImportsOnly)
	require.NoErrorf(t, err, "parse imports for %s", file)

	imports := make([]string, 0, len(parsed.Imports))
	for _, imp := range parsed.Imports {
		imports = append(imports, strings.Trim(imp.Path.Value, "\""))
	}
	return imports
}

func relToRepoRoot(path string) string {
	rel, err := filepath.Rel(repoRootDir(), path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func TestPackageImportPath(t *testing.T) {
	require.Equal(t, modulePath+"/internal/service/dashboard", packageImportPath("/repo/internal/service/dashboard/service.go"))
	require.Equal(t, modulePath+"/internal/tabular", packageImportPath("/repo/internal/tabular/decode.go"))
}
