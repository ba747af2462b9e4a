package pipeline

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// File is the YAML document layout.
type File struct {
	Pipelines []Pipeline `yaml:"pipelines"`
}

// LoadError reports a file that could not be read or decoded.
type LoadError struct {
	Path    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// IsPipelineFile reports whether path has a pipeline extension.
func IsPipelineFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".cue":
		return true
	default:
		return false
	}
}

// Load reads pipelines from a file, or from every pipeline file directly in
// a directory (sorted by name). Pipeline names must be unique across the
// load, and every pipeline is validated.
func Load(path string) ([]*Pipeline, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: fmt.Sprintf("cannot access pipeline path: %v", err)}
	}

	files := []string{path}
	if info.IsDir() {
		files, err = FindPipelineFiles(path)
		if err != nil {
			return nil, &LoadError{Path: path, Message: fmt.Sprintf("scanning directory: %v", err)}
		}
		if len(files) == 0 {
			return nil, &LoadError{Path: path, Message: "no pipeline files found"}
		}
	}

	var all []*Pipeline
	seen := make(map[string]string)
	for _, file := range files {
		ps, err := LoadFile(file)
		if err != nil {
			return nil, err
		}
		for _, p := range ps {
			if prev, dup := seen[p.Name]; dup {
				return nil, &LoadError{Path: file, Message: fmt.Sprintf("pipeline %q already defined in %s", p.Name, prev)}
			}
			seen[p.Name] = file
			all = append(all, p)
		}
	}
	return all, nil
}

// FindPipelineFiles returns the pipeline files directly inside dir.
func FindPipelineFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && IsPipelineFile(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// LoadFile reads one YAML or CUE file, chosen by extension.
func LoadFile(path string) ([]*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: fmt.Sprintf("failed to read pipeline file: %v", err)}
	}

	var ps []*Pipeline
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		ps, err = ParseYAML(data)
	case ".cue":
		ps, err = ParseCUE(path, data)
	default:
		return nil, &LoadError{Path: path, Message: "unsupported pipeline file extension"}
	}
	if err != nil {
		var pe *Error
		if errors.As(err, &pe) {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		var le *LoadError
		if errors.As(err, &le) {
			if le.Path == "" {
				le.Path = path
			}
			return nil, le
		}
		return nil, &LoadError{Path: path, Message: err.Error()}
	}
	if len(ps) == 0 {
		return nil, &LoadError{Path: path, Message: "no pipelines defined"}
	}
	return ps, nil
}

// ParseYAML decodes a YAML pipeline document. Unknown fields are rejected.
func ParseYAML(data []byte) ([]*Pipeline, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	ps := make([]*Pipeline, len(f.Pipelines))
	for i := range f.Pipelines {
		p := &f.Pipelines[i]
		if err := p.Validate(); err != nil {
			return nil, err
		}
		ps[i] = p
	}
	return ps, nil
}

// ParseCUE evaluates a CUE file and decodes every field of its top-level
// pipeline struct. The field label becomes the pipeline name.
func ParseCUE(filename string, data []byte) ([]*Pipeline, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling pipeline schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Pipeline"))

	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	root := value.LookupPath(cue.ParsePath("pipeline"))
	if !root.Exists() {
		return nil, nil
	}
	iter, err := root.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var ps []*Pipeline
	for iter.Next() {
		name := iter.Selector().Unquoted()
		v := def.Unify(iter.Value())
		if err := v.Validate(cue.Concrete(true)); err != nil {
			return nil, formatCUEError(err)
		}

		p := &Pipeline{}
		if err := v.Decode(p); err != nil {
			return nil, formatCUEError(err)
		}
		if p.Name != "" && p.Name != name {
			return nil, &LoadError{
				Message: fmt.Sprintf("pipeline %s: name %q does not match its label", name, p.Name),
				Pos:     iter.Value().Pos(),
			}
		}
		p.Name = name
		if err := p.Validate(); err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	return ps, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return &LoadError{Message: first.Error(), Pos: positions[0]}
	}
	return &LoadError{Message: first.Error()}
}
