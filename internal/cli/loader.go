package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/hqlcore/internal/qerr"
	"github.com/roach88/hqlcore/internal/query"
	"github.com/roach88/hqlcore/internal/schema"
)

// Problem is one mapping or query problem reported to the user.
type Problem struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// LoadError represents an error that occurred before any mapping could be
// compiled.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands. Query failures
// report the query error code instead.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeInvalidParam = "E002" // Malformed --param or options file
	ErrCodeNoFiles      = "E003" // No CUE files found
	ErrCodeLoadFailed   = "E004" // CUE load failed
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeCompile      = "E006" // Mapping does not compile
	ErrCodeStore        = "E007" // Database cannot be opened
	ErrCodeColumn       = "E301" // Mapped column or table missing from the database
)

// LoadMapping compiles the mapping file or directory at path. On failure
// it returns either a *LoadError or the compile problems.
func LoadMapping(path string) (*schema.Metadata, []Problem, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("mapping not found: %s", path)}
	}
	if err != nil {
		return nil, nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing mapping: %v", err)}
	}
	if info.IsDir() {
		files, err := FindCUEFiles(path)
		if err != nil {
			return nil, nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("error scanning directory: %v", err)}
		}
		if len(files) == 0 {
			return nil, nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}
		}
	}

	md, err := schema.Load(path)
	if err != nil {
		return nil, mappingProblems(err), nil
	}
	return md, nil, nil
}

// FindCUEFiles returns the .cue files directly inside dir, the files a
// mapping instance is built from.
func FindCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".cue") {
			files = append(files, entry.Name())
		}
	}
	return files, nil
}

// mappingProblems converts a schema load error into problems with codes
// and positions.
func mappingProblems(err error) []Problem {
	var verrs schema.ValidationErrors
	if errors.As(err, &verrs) {
		problems := make([]Problem, len(verrs))
		for i, v := range verrs {
			problems[i] = Problem{Code: v.Code, Field: v.Field, Message: v.Message}
		}
		return problems
	}
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		return []Problem{{Code: verr.Code, Field: verr.Field, Message: verr.Message}}
	}
	var cerr *schema.CompileError
	if errors.As(err, &cerr) {
		p := Problem{Code: ErrCodeCompile, Field: cerr.Field, Message: cerr.Message}
		if cerr.Pos.IsValid() {
			p.Line = cerr.Pos.Line()
		}
		return []Problem{p}
	}
	return []Problem{{Code: ErrCodeCompile, Message: err.Error()}}
}

// queryErrorCode returns the query error code of err, or the generic code
// for errors that carry none.
func queryErrorCode(err error) string {
	if code := qerr.CodeOf(err); code != "" {
		return string(code)
	}
	return ErrCodeGeneric
}

// ParseParams converts name=value flags to parameter bindings. Values are
// read as YAML scalars or sequences, so 3 binds an integer and
// "[Main St, Springfield]" binds a multi-column value.
func ParseParams(params []string) (query.ParameterBindings, error) {
	bindings := make(query.ParameterBindings, len(params))
	for _, p := range params {
		name, raw, ok := strings.Cut(p, "=")
		name = strings.TrimPrefix(strings.TrimSpace(name), ":")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q: want name=value", p)
		}
		if raw == "" {
			bindings[name] = ""
			continue
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("invalid value for parameter %s: %w", name, err)
		}
		if _, isMap := value.(map[string]any); isMap {
			return nil, fmt.Errorf("invalid value for parameter %s: mappings cannot be bound", name)
		}
		bindings[name] = value
	}
	return bindings, nil
}

// loadOptions reads the options file, if one was given.
func loadOptions(path string) (*query.Options, error) {
	if path == "" {
		return nil, nil
	}
	return query.LoadOptions(path)
}
