package core

import (
	"errors"
	"fmt"
	"os"

	"github.com/huangsam/pagegate/internal/validate"
	"github.com/huangsam/pagegate/schema"
)

// Source names used in load diagnostics.
const (
	FunctionalSourceName  = "functional"
	PerformanceSourceName = "performance"
)

// Source is where an upstream document comes from: bytes produced in-process,
// or a path to a previously persisted file.
type Source struct {
	Path     string
	Data     []byte
	InMemory bool
	Err      error // set when the collaborator failed before producing anything
}

// FromBytes wraps a document produced in-process. Nil data means the collaborator produced nothing.
func FromBytes(data []byte) Source {
	return Source{Data: data, InMemory: true}
}

// FailedSource records a collaborator that failed without a document.
func FailedSource(err error) Source {
	return Source{InMemory: true, Err: err}
}

// FromFile refers to a persisted document.
func FromFile(path string) Source {
	return Source{Path: path}
}

// read returns the document bytes, or a SourceMissing load error.
func (s Source) read(name string) ([]byte, *schema.LoadError) {
	if s.InMemory {
		if s.Err != nil {
			return nil, &schema.LoadError{Kind: schema.SourceMissingKind, Source: name, Detail: s.Err.Error()}
		}
		if len(s.Data) == 0 {
			return nil, &schema.LoadError{Kind: schema.SourceMissingKind, Source: name, Detail: "collaborator produced no document"}
		}
		return s.Data, nil
	}
	if s.Path == "" {
		return nil, &schema.LoadError{Kind: schema.SourceMissingKind, Source: name, Detail: "no source configured"}
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		kind := schema.ParseErrorKind
		if errors.Is(err, os.ErrNotExist) {
			kind = schema.SourceMissingKind
		}
		return nil, &schema.LoadError{Kind: kind, Source: name, Path: s.Path, Detail: err.Error()}
	}
	return data, nil
}

// ResultLoader reads the two upstream documents for a page. It never fails:
// anything unusable becomes the matching sentinel plus a LoadError.
type ResultLoader struct {
	validate bool
	declared map[schema.PageID][]string
}

// NewResultLoader creates a loader. When validateDocs is set, documents are checked
// against their JSON schema; declared optionally restricts the checks per page.
func NewResultLoader(validateDocs bool, declared map[schema.PageID][]string) *ResultLoader {
	return &ResultLoader{validate: validateDocs, declared: declared}
}

// Load reads both documents for page.
func (l *ResultLoader) Load(page schema.PageID, functional, performance Source) (schema.FunctionalResult, schema.PerformanceResult, []schema.LoadError) {
	var loadErrors []schema.LoadError

	f, ferr := l.LoadFunctional(page, functional)
	if ferr != nil {
		loadErrors = append(loadErrors, *ferr)
	}
	p, perr := l.LoadPerformance(performance)
	if perr != nil {
		loadErrors = append(loadErrors, *perr)
	}
	return f, p, loadErrors
}

// LoadFunctional reads the functional document, returning the missing sentinel on any problem.
func (l *ResultLoader) LoadFunctional(page schema.PageID, src Source) (schema.FunctionalResult, *schema.LoadError) {
	data, lerr := src.read(FunctionalSourceName)
	if lerr != nil {
		return schema.MissingFunctionalResult(), lerr
	}
	parseErr := func(detail string) (schema.FunctionalResult, *schema.LoadError) {
		return schema.MissingFunctionalResult(), &schema.LoadError{
			Kind: schema.ParseErrorKind, Source: FunctionalSourceName, Path: src.Path, Detail: detail,
		}
	}

	if l.validate {
		if err := validate.Functional(data); err != nil {
			return parseErr(err.Error())
		}
	}

	var result schema.FunctionalResult
	if err := result.UnmarshalJSON(data); err != nil {
		return parseErr(err.Error())
	}
	if _, ok := schema.ValidFunctionalStatuses[result.Status]; !ok {
		return parseErr(fmt.Sprintf("unrecognized status %q", result.Status))
	}

	if checks := l.declared[page]; len(checks) > 0 {
		result = result.RestrictChecks(checks)
	}
	return result, nil
}

// LoadPerformance reads the performance audit, returning the missing sentinel on any problem.
func (l *ResultLoader) LoadPerformance(src Source) (schema.PerformanceResult, *schema.LoadError) {
	data, lerr := src.read(PerformanceSourceName)
	if lerr != nil {
		return schema.MissingPerformanceResult(), lerr
	}
	parseErr := func(detail string) (schema.PerformanceResult, *schema.LoadError) {
		return schema.MissingPerformanceResult(), &schema.LoadError{
			Kind: schema.ParseErrorKind, Source: PerformanceSourceName, Path: src.Path, Detail: detail,
		}
	}

	if l.validate {
		if err := validate.Performance(data); err != nil {
			return parseErr(err.Error())
		}
	}

	result, err := schema.NewPerformanceResult(data)
	if err != nil {
		return parseErr(err.Error())
	}
	return result, nil
}
