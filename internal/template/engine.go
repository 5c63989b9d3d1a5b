package template

import (
	"bytes"
	"fmt"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Engine renders Go text templates with the sprig function library.
// Parsed templates are cached by their source text.
type Engine struct {
	mu    sync.RWMutex
	cache map[string]*template.Template
	funcs template.FuncMap
}

// New creates a new template engine
func New() *Engine {
	return &Engine{
		cache: make(map[string]*template.Template),
		funcs: sprig.TxtFuncMap(),
	}
}

// Render executes the template text against data. References to keys that
// are missing from a map are reported as errors.
func (e *Engine) Render(text string, data any) (string, error) {
	tmpl, err := e.parse(text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

// Replace renders every string inside value against ctx. Maps and slices
// are walked recursively; other values are returned as-is.
func (e *Engine) Replace(value any, ctx map[string]any) (any, error) {
	switch v := value.(type) {
	case string:
		return e.Render(v, ctx)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			replaced, err := e.Replace(item, ctx)
			if err != nil {
				return nil, fmt.Errorf("error in key '%s': %w", key, err)
			}
			out[key] = replaced
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			replaced, err := e.Replace(item, ctx)
			if err != nil {
				return nil, fmt.Errorf("error at index %d: %w", i, err)
			}
			out[i] = replaced
		}
		return out, nil
	default:
		return value, nil
	}
}

// Merge merges multiple contexts into one. Later contexts override earlier ones.
func Merge(contexts ...map[string]any) map[string]any {
	result := make(map[string]any)
	for _, ctx := range contexts {
		for key, value := range ctx {
			result[key] = value
		}
	}
	return result
}

func (e *Engine) parse(text string) (*template.Template, error) {
	e.mu.RLock()
	tmpl, ok := e.cache[text]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	tmpl, err := template.New("lantern").
		Funcs(e.funcs).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	e.mu.Lock()
	e.cache[text] = tmpl
	e.mu.Unlock()
	return tmpl, nil
}
