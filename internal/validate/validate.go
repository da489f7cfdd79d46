// Package validate checks upstream result documents and persisted reports
// against embedded JSON schemas.
package validate

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schemas/*.json
var schemasFS embed.FS

// schemaBaseURL is the $id prefix shared by the embedded schemas.
const schemaBaseURL = "https://huangsam.github.io/pagegate/schemas/"

// Schema names.
const (
	FunctionalSchema  = "functional.schema.json"
	PerformanceSchema = "performance.schema.json"
	ReportSchema      = "report.schema.json"
)

var (
	compiled    map[string]*jsonschema.Schema
	compileOnce sync.Once
	compileErr  error
)

// compileSchemas compiles all embedded schemas once.
func compileSchemas() error {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		names := []string{FunctionalSchema, PerformanceSchema, ReportSchema}

		for _, name := range names {
			data, err := schemasFS.ReadFile("schemas/" + name)
			if err != nil {
				compileErr = fmt.Errorf("read %s: %w", name, err)
				return
			}
			doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
			if err != nil {
				compileErr = fmt.Errorf("unmarshal %s: %w", name, err)
				return
			}
			if err := compiler.AddResource(schemaBaseURL+name, doc); err != nil {
				compileErr = fmt.Errorf("add %s resource: %w", name, err)
				return
			}
		}

		result := make(map[string]*jsonschema.Schema, len(names))
		for _, name := range names {
			sch, err := compiler.Compile(schemaBaseURL + name)
			if err != nil {
				compileErr = fmt.Errorf("compile %s: %w", name, err)
				return
			}
			result[name] = sch
		}
		compiled = result
	})

	return compileErr
}

// Document validates JSON data against the named embedded schema.
func Document(name string, data []byte) error {
	if err := compileSchemas(); err != nil {
		return err
	}
	sch, ok := compiled[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("%s validation failed: %w", name, err)
	}
	return nil
}

// Functional validates a functional result document.
func Functional(data []byte) error {
	return Document(FunctionalSchema, data)
}

// Performance validates a performance audit document.
func Performance(data []byte) error {
	return Document(PerformanceSchema, data)
}

// Report validates a persisted merged report.
func Report(data []byte) error {
	return Document(ReportSchema, data)
}
