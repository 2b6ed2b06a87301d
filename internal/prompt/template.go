// Package prompt renders the text templates sent to the generation backend.
//
// Templates use two constructs:
//
//	{{name}}                 replaced by the value of name (missing names are an error)
//	{{#if name}}...{{/if}}   kept only when name is set and non-empty; may nest
//
// Values are inserted verbatim and never re-expanded.
package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Vars maps template variable names to values.
type Vars map[string]string

var tagRe = regexp.MustCompile(`\{\{\s*(#if\s+[a-zA-Z_][a-zA-Z0-9_]*|/if|[a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)

type frame struct {
	name    string
	include bool
}

// Render expands tmpl with vars.
func Render(tmpl string, vars Vars) (string, error) {
	var out strings.Builder
	var stack []frame
	missing := map[string]bool{}

	emitting := func() bool {
		for _, f := range stack {
			if !f.include {
				return false
			}
		}
		return true
	}

	pos := 0
	for _, loc := range tagRe.FindAllStringSubmatchIndex(tmpl, -1) {
		if emitting() {
			out.WriteString(tmpl[pos:loc[0]])
		}
		pos = loc[1]
		tag := tmpl[loc[2]:loc[3]]

		switch {
		case strings.HasPrefix(tag, "#if"):
			name := strings.TrimSpace(strings.TrimPrefix(tag, "#if"))
			stack = append(stack, frame{name: name, include: vars[name] != ""})
		case tag == "/if":
			if len(stack) == 0 {
				return "", fmt.Errorf("{{/if}} without matching {{#if}}")
			}
			stack = stack[:len(stack)-1]
		default:
			if !emitting() {
				continue
			}
			val, ok := vars[tag]
			if !ok {
				missing[tag] = true
				continue
			}
			out.WriteString(val)
		}
	}
	if len(stack) > 0 {
		return "", fmt.Errorf("unclosed {{#if %s}}", stack[len(stack)-1].name)
	}
	if emitting() {
		out.WriteString(tmpl[pos:])
	}

	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for n := range missing {
			names = append(names, n)
		}
		sort.Strings(names)
		return "", fmt.Errorf("missing template variables: %s", strings.Join(names, ", "))
	}
	return out.String(), nil
}

// Library resolves templates by name, preferring files in an override
// directory over the built-in set.
type Library struct {
	overrideDir string
}

// NewLibrary creates a Library. overrideDir may be empty.
func NewLibrary(overrideDir string) *Library {
	return &Library{overrideDir: overrideDir}
}

// Load returns the template text for name (e.g. "questions.md").
func (l *Library) Load(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid template name %q", name)
	}
	if l != nil && l.overrideDir != "" {
		data, err := os.ReadFile(filepath.Join(l.overrideDir, name))
		if err == nil {
			return string(data), nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("read template %s: %w", name, err)
		}
	}
	tmpl, ok := builtinTemplates[name]
	if !ok {
		return "", fmt.Errorf("template %q not found", name)
	}
	return tmpl, nil
}

// RenderNamed loads and renders a template in one step.
func (l *Library) RenderNamed(name string, vars Vars) (string, error) {
	tmpl, err := l.Load(name)
	if err != nil {
		return "", err
	}
	out, err := Render(tmpl, vars)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return out, nil
}

// Install writes the built-in templates into dir without overwriting
// existing files, so they can be edited and used as overrides.
func Install(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create templates dir: %w", err)
	}
	var written []string
	for _, name := range BuiltinNames() {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, []byte(builtinTemplates[name]), 0o644); err != nil {
			return written, fmt.Errorf("write template %q: %w", name, err)
		}
		written = append(written, name)
	}
	return written, nil
}

// BuiltinNames lists the built-in template names, sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtinTemplates))
	for n := range builtinTemplates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
