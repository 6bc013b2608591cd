// Package policy evaluates optional Rego modules against the assembled
// build record. Teams use it to flag records that violate release
// conventions, e.g. a missing user identity or a non-semver version.
// Violations are reported, never fatal.
package policy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	opaast "github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"

	"github.com/juriadams/angular-build-info/internal/record"
)

// Violation is one deny result from a policy module.
type Violation struct {
	Source  string
	Message string
}

type module struct {
	source string
	deny   rego.PreparedEvalQuery
}

// Checker holds compiled policy modules.
type Checker struct {
	modules []module
}

// Load compiles the Rego modules at the given paths. Directories are
// walked recursively for .rego files. Missing paths are an error: a
// policy the caller asked for but that cannot be read indicates a
// misconfigured invocation, not a recoverable lookup.
func Load(ctx context.Context, paths ...string) (*Checker, error) {
	files, missing := expand(paths)
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing policy paths: %s", strings.Join(missing, ", "))
	}
	checker := &Checker{modules: make([]module, 0, len(files))}
	for _, file := range files {
		mod, err := loadFile(ctx, file)
		if err != nil {
			return nil, fmt.Errorf("load policy %s: %w", file, err)
		}
		checker.modules = append(checker.modules, mod)
	}
	return checker, nil
}

// Check evaluates every module's deny query against the record.
func (c *Checker) Check(ctx context.Context, rec record.Record) ([]Violation, error) {
	input := recordInput(rec)
	var violations []Violation
	for _, mod := range c.modules {
		rs, err := mod.deny.Eval(ctx, rego.EvalInput(input))
		if err != nil {
			return nil, fmt.Errorf("evaluate policy %s: %w", mod.source, err)
		}
		for _, result := range rs {
			for _, exp := range result.Expressions {
				for _, message := range extractMessages(exp.Value) {
					violations = append(violations, Violation{Source: mod.source, Message: message})
				}
			}
		}
	}
	return violations, nil
}

func loadFile(ctx context.Context, path string) (module, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return module{}, fmt.Errorf("read module: %w", err)
	}
	parsed, err := opaast.ParseModule(path, string(source))
	if err != nil {
		return module{}, fmt.Errorf("parse module: %w", err)
	}
	compiler, err := opaast.CompileModules(map[string]string{path: string(source)})
	if err != nil {
		return module{}, fmt.Errorf("compile module: %w", err)
	}
	pkgRef := parsed.Package.Path.String()
	deny, err := rego.New(
		rego.Compiler(compiler),
		rego.Query(fmt.Sprintf("%s.deny", pkgRef)),
	).PrepareForEval(ctx)
	if err != nil {
		return module{}, fmt.Errorf("prepare deny query: %w", err)
	}
	return module{source: path, deny: deny}, nil
}

// recordInput shapes the record for policy evaluation: "fields" maps key
// to value (nil when absent), "present" maps key to lookup success.
func recordInput(rec record.Record) map[string]interface{} {
	fields := make(map[string]interface{}, len(rec.Fields))
	present := make(map[string]interface{}, len(rec.Fields))
	for _, f := range rec.Fields {
		if f.Value.OK {
			fields[f.Key] = f.Value.Str
		} else {
			fields[f.Key] = nil
		}
		present[f.Key] = f.Value.OK
	}
	return map[string]interface{}{
		"fields":  fields,
		"present": present,
	}
}

func extractMessages(value interface{}) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case []interface{}:
		var out []string
		for _, item := range v {
			out = append(out, extractMessages(item)...)
		}
		return out
	case map[string]interface{}:
		if msg, ok := v["message"].(string); ok && msg != "" {
			return []string{msg}
		}
		return []string{"violation"}
	default:
		return []string{fmt.Sprintf("%v", v)}
	}
}

func expand(paths []string) (files []string, missing []string) {
	unique := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			missing = append(missing, p)
			continue
		}
		info, statErr := os.Stat(abs)
		if statErr != nil {
			missing = append(missing, abs)
			continue
		}
		if info.IsDir() {
			_ = filepath.WalkDir(abs, func(path string, d os.DirEntry, err error) error {
				if err != nil || d.IsDir() {
					return nil
				}
				if strings.HasSuffix(d.Name(), ".rego") {
					if _, seen := unique[path]; !seen {
						unique[path] = struct{}{}
						files = append(files, path)
					}
				}
				return nil
			})
			continue
		}
		if _, seen := unique[abs]; !seen {
			unique[abs] = struct{}{}
			files = append(files, abs)
		}
	}
	sort.Strings(files)
	sort.Strings(missing)
	return files, missing
}
