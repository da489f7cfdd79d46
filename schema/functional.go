package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
)

// Reserved fields of a functional result document. Every other boolean
// field is a named check.
const (
	fieldStatus = "status"
	fieldPage   = "page"
	fieldError  = "error"
)

// FunctionalResult is the typed form of the document produced by the functional
// collaborator. On the wire it stays flat, e.g.
// {"status":"success","page":"login","usernameFieldVisible":true}.
type FunctionalResult struct {
	Status   FunctionalStatus
	Page     PageID
	Error    string
	Checks   map[string]bool
	Metadata map[string]json.RawMessage
}

// NewFunctionalResult returns an empty result with the given status.
func NewFunctionalResult(status FunctionalStatus) FunctionalResult {
	return FunctionalResult{
		Status:   status,
		Checks:   map[string]bool{},
		Metadata: map[string]json.RawMessage{},
	}
}

// MissingFunctionalResult is the sentinel used when no functional result exists.
func MissingFunctionalResult() FunctionalResult {
	return NewFunctionalResult(StatusMissing)
}

// IsMissing reports whether this is the missing sentinel.
func (f FunctionalResult) IsMissing() bool {
	return f.Status == StatusMissing
}

// AllChecksPassed is true when every named check is true. No checks means passed.
func (f FunctionalResult) AllChecksPassed() bool {
	for _, ok := range f.Checks {
		if !ok {
			return false
		}
	}
	return true
}

// FailedChecks returns the sorted names of the checks that are false.
func (f FunctionalResult) FailedChecks() []string {
	failed := []string{}
	for name, ok := range f.Checks {
		if !ok {
			failed = append(failed, name)
		}
	}
	sort.Strings(failed)
	return failed
}

// CheckNames returns all check names in sorted order.
func (f FunctionalResult) CheckNames() []string {
	return slices.Sorted(maps.Keys(f.Checks))
}

// Clone returns a deep copy.
func (f FunctionalResult) Clone() FunctionalResult {
	clone := f
	clone.Checks = make(map[string]bool, len(f.Checks))
	maps.Copy(clone.Checks, f.Checks)
	clone.Metadata = make(map[string]json.RawMessage, len(f.Metadata))
	for k, v := range f.Metadata {
		clone.Metadata[k] = slices.Clone(v)
	}
	return clone
}

// RestrictChecks keeps only the declared check names as checks. Undeclared
// booleans move to metadata and declared names absent from the document are
// recorded as failed.
func (f FunctionalResult) RestrictChecks(declared []string) FunctionalResult {
	if len(declared) == 0 {
		return f.Clone()
	}
	out := f.Clone()
	allowed := make(map[string]struct{}, len(declared))
	for _, name := range declared {
		allowed[name] = struct{}{}
	}
	for name, ok := range out.Checks {
		if _, keep := allowed[name]; keep {
			continue
		}
		raw, _ := json.Marshal(ok)
		out.Metadata[name] = raw
		delete(out.Checks, name)
	}
	for name := range allowed {
		if _, seen := out.Checks[name]; !seen {
			out.Checks[name] = false
		}
	}
	return out
}

// MarshalJSON flattens the record back into the upstream document shape.
func (f FunctionalResult) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(f.Checks)+len(f.Metadata)+3)
	for k, v := range f.Metadata {
		doc[k] = v
	}
	for k, v := range f.Checks {
		doc[k] = v
	}
	if f.Status != "" {
		doc[fieldStatus] = f.Status
	}
	if f.Page != "" {
		doc[fieldPage] = f.Page
	}
	if f.Error != "" {
		doc[fieldError] = f.Error
	}
	return json.Marshal(doc)
}

// UnmarshalJSON splits a flat document into status, checks and metadata.
func (f *FunctionalResult) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errors.New("functional result must be a JSON object")
	}

	result := NewFunctionalResult("")
	for key, raw := range fields {
		switch key {
		case fieldStatus:
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return fmt.Errorf("field %q: %w", key, err)
			}
			result.Status = FunctionalStatus(s)
		case fieldPage:
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return fmt.Errorf("field %q: %w", key, err)
			}
			result.Page = PageID(s)
		case fieldError:
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				// Non-string errors are kept as their JSON text.
				s = string(compactJSON(raw))
			}
			result.Error = s
		default:
			switch string(bytes.TrimSpace(raw)) {
			case "true":
				result.Checks[key] = true
			case "false":
				result.Checks[key] = false
			default:
				result.Metadata[key] = compactJSON(raw)
			}
		}
	}

	*f = result
	return nil
}

// compactJSON strips insignificant whitespace, returning the input on failure.
func compactJSON(raw []byte) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return slices.Clone(raw)
	}
	return buf.Bytes()
}
