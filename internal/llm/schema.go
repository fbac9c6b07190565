package llm

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	schemasOnce sync.Once
	schemas     map[string]*gojsonschema.Schema
	schemasErr  error
)

func loadSchemas() (map[string]*gojsonschema.Schema, error) {
	schemasOnce.Do(func() {
		schemas = make(map[string]*gojsonschema.Schema)
		entries, err := fs.ReadDir(schemaFS, "schemas")
		if err != nil {
			schemasErr = err
			return
		}
		for _, entry := range entries {
			raw, err := schemaFS.ReadFile("schemas/" + entry.Name())
			if err != nil {
				schemasErr = err
				return
			}
			schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
			if err != nil {
				schemasErr = fmt.Errorf("compile schema %s: %w", entry.Name(), err)
				return
			}
			schemas[strings.TrimSuffix(entry.Name(), ".json")] = schema
		}
	})
	return schemas, schemasErr
}

// Validate checks raw model output against the feature's JSON schema and returns
// the list of problems. Features without a schema only need a JSON object.
func Validate(feature string, raw []byte) ([]string, error) {
	if !json.Valid(raw) {
		return []string{"output is not valid JSON"}, nil
	}
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "{") {
		return []string{"output must be a JSON object"}, nil
	}

	all, err := loadSchemas()
	if err != nil {
		return nil, err
	}
	schema, ok := all[feature]
	if !ok {
		return nil, nil
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("validate %s output: %w", feature, err)
	}
	if result.Valid() {
		return nil, nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return problems, nil
}
