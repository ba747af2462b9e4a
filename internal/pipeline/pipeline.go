package pipeline

import (
	"errors"
	"fmt"

	"github.com/roach88/grizzly/internal/frame"
)

// Pipeline is a named chain of frames.
type Pipeline struct {
	// Name uniquely identifies the pipeline within a load.
	Name string `yaml:"name" json:"name,omitempty"`

	// Description is free text shown by the CLI.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Frames are built in order; a step may only refer to earlier frames.
	Frames []Step `yaml:"frames" json:"frames"`

	// Output names the frame to render. Defaults to the last frame.
	Output string `yaml:"output,omitempty" json:"output,omitempty"`

	// Aggregate optionally reduces the output frame.
	Aggregate *Aggregate `yaml:"aggregate,omitempty" json:"aggregate,omitempty"`

	// ExpectSQL is the rendered SQLite text the pipeline must produce.
	// Checked by validate when set.
	ExpectSQL string `yaml:"expect_sql,omitempty" json:"expect_sql,omitempty"`
}

// Step defines one named frame. Exactly one of Table or From is set; a From
// step carries exactly one operation.
type Step struct {
	Name string `yaml:"name" json:"name"`

	// Table starts a chain over a base relation. Columns optionally declares
	// its columns, making column checks strict.
	Table   string   `yaml:"table,omitempty" json:"table,omitempty"`
	Columns []string `yaml:"columns,omitempty" json:"columns,omitempty"`

	// From names the frame this step derives from.
	From string `yaml:"from,omitempty" json:"from,omitempty"`

	Filter   *Predicate `yaml:"filter,omitempty" json:"filter,omitempty"`
	Select   []string   `yaml:"select,omitempty" json:"select,omitempty"`
	Distinct bool       `yaml:"distinct,omitempty" json:"distinct,omitempty"`
	GroupBy  []string   `yaml:"group_by,omitempty" json:"group_by,omitempty"`
	Join     *Join      `yaml:"join,omitempty" json:"join,omitempty"`
}

// Join combines the From frame with Right.
type Join struct {
	Right string `yaml:"right" json:"right"`

	// On is an expression condition. Columns without a frame belong to the
	// left (From) frame.
	On *Predicate `yaml:"on,omitempty" json:"on,omitempty"`

	// Using is a [left, right] column name pair compared with Comparator.
	Using []string `yaml:"using,omitempty" json:"using,omitempty"`

	How        string `yaml:"how,omitempty" json:"how,omitempty"`
	Comparator string `yaml:"comparator,omitempty" json:"comparator,omitempty"`
}

// Predicate is a comparison or a boolean combination of predicates.
//
// A comparison compares Column of Frame against Ref or, when Ref is nil,
// against the literal Value. A missing value compares against NULL.
type Predicate struct {
	Frame  string     `yaml:"frame,omitempty" json:"frame,omitempty"`
	Column string     `yaml:"column,omitempty" json:"column,omitempty"`
	Op     string     `yaml:"op,omitempty" json:"op,omitempty"`
	Value  any        `yaml:"value,omitempty" json:"value,omitempty"`
	Ref    *ColumnRef `yaml:"ref,omitempty" json:"ref,omitempty"`

	And []Predicate `yaml:"and,omitempty" json:"and,omitempty"`
	Or  []Predicate `yaml:"or,omitempty" json:"or,omitempty"`
}

// ColumnRef names a column of a frame. An empty Frame means the frame the
// predicate is evaluated against.
type ColumnRef struct {
	Frame  string `yaml:"frame,omitempty" json:"frame,omitempty"`
	Column string `yaml:"column" json:"column"`
}

// Aggregate reduces the output frame with Kind over Column. Column may be
// empty for a single-column output, or "*" for COUNT.
type Aggregate struct {
	Kind   string `yaml:"kind" json:"kind"`
	Column string `yaml:"column,omitempty" json:"column,omitempty"`
}

// Error reports a problem in one pipeline, and the frame when known.
type Error struct {
	Pipeline string
	Frame    string
	Err      error
}

func (e *Error) Error() string {
	if e.Frame != "" {
		return fmt.Sprintf("pipeline %s: frame %s: %v", e.Pipeline, e.Frame, e.Err)
	}
	return fmt.Sprintf("pipeline %s: %v", e.Pipeline, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (p *Pipeline) errorf(frameName, format string, args ...any) *Error {
	return &Error{Pipeline: p.Name, Frame: frameName, Err: fmt.Errorf(format, args...)}
}

// OutputName returns the output frame name, defaulting to the last frame.
func (p *Pipeline) OutputName() string {
	if p.Output != "" || len(p.Frames) == 0 {
		return p.Output
	}
	return p.Frames[len(p.Frames)-1].Name
}

// AggregateKind parses the aggregate kind. ok is false when the pipeline has
// no aggregate.
func (p *Pipeline) AggregateKind() (kind frame.AggregateKind, ok bool, err error) {
	if p.Aggregate == nil {
		return 0, false, nil
	}
	kind, err = frame.ParseAggregateKind(p.Aggregate.Kind)
	if err != nil {
		return 0, true, p.errorf("", "aggregate: %w", err)
	}
	return kind, true, nil
}

// Validate checks the pipeline's shape without building frames: names,
// step operations, and that every reference points at an earlier frame.
func (p *Pipeline) Validate() error {
	if p.Name == "" {
		return &Error{Pipeline: "<unnamed>", Err: errors.New("name is required")}
	}
	if len(p.Frames) == 0 {
		return p.errorf("", "frames list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(p.Frames))
	for i := range p.Frames {
		step := &p.Frames[i]
		if step.Name == "" {
			return p.errorf("", "frames[%d]: name is required", i)
		}
		if seen[step.Name] {
			return p.errorf(step.Name, "duplicate frame name")
		}
		if err := step.validate(seen); err != nil {
			return &Error{Pipeline: p.Name, Frame: step.Name, Err: err}
		}
		seen[step.Name] = true
	}

	if out := p.OutputName(); !seen[out] {
		return p.errorf("", "output frame %q is not defined", out)
	}
	if _, _, err := p.AggregateKind(); err != nil {
		return err
	}
	return nil
}

// Operation returns the name of the step's operation.
func (s *Step) Operation() string {
	ops := s.operations()
	switch {
	case s.Table != "":
		return "table"
	case len(ops) == 1:
		return ops[0]
	default:
		return ""
	}
}

func (s *Step) operations() []string {
	var ops []string
	if s.Filter != nil {
		ops = append(ops, "filter")
	}
	if len(s.Select) > 0 {
		ops = append(ops, "select")
	}
	if s.Distinct {
		ops = append(ops, "distinct")
	}
	if len(s.GroupBy) > 0 {
		ops = append(ops, "group_by")
	}
	if s.Join != nil {
		ops = append(ops, "join")
	}
	return ops
}

func (s *Step) validate(defined map[string]bool) error {
	ops := s.operations()

	if s.Table != "" {
		if s.From != "" {
			return errors.New("table and from are mutually exclusive")
		}
		if len(ops) > 0 {
			return fmt.Errorf("table step cannot also %s", ops[0])
		}
		return nil
	}

	if s.From == "" {
		return errors.New("either table or from is required")
	}
	if !defined[s.From] {
		return fmt.Errorf("from: frame %q is not defined earlier", s.From)
	}
	if len(s.Columns) > 0 {
		return errors.New("columns only apply to table steps")
	}
	switch len(ops) {
	case 0:
		return errors.New("step needs one of filter, select, distinct, group_by, join")
	case 1:
	default:
		return fmt.Errorf("step has %d operations (%v), expected one", len(ops), ops)
	}

	if s.Filter != nil {
		return s.Filter.validate(defined)
	}
	if s.Join != nil {
		return s.Join.validate(defined)
	}
	return nil
}

func (j *Join) validate(defined map[string]bool) error {
	if j.Right == "" {
		return errors.New("join: right is required")
	}
	if !defined[j.Right] {
		return fmt.Errorf("join: right frame %q is not defined earlier", j.Right)
	}
	switch {
	case j.On != nil && len(j.Using) > 0:
		return errors.New("join: on and using are mutually exclusive")
	case j.On != nil:
		return j.On.validate(defined)
	case len(j.Using) != 2:
		return errors.New("join: using must name exactly [left, right] columns")
	}
	if j.Comparator != "" {
		if _, err := frame.ParseCompareOp(j.Comparator); err != nil {
			return fmt.Errorf("join: %w", err)
		}
	}
	return nil
}

func (p *Predicate) validate(defined map[string]bool) error {
	compound := len(p.And) + len(p.Or)
	switch {
	case len(p.And) > 0 && len(p.Or) > 0:
		return errors.New("predicate: and and or are mutually exclusive")
	case compound > 0 && (p.Column != "" || p.Ref != nil || p.Value != nil):
		return errors.New("predicate: and/or cannot be combined with a comparison")
	case compound > 0:
		for i := range p.And {
			if err := p.And[i].validate(defined); err != nil {
				return err
			}
		}
		for i := range p.Or {
			if err := p.Or[i].validate(defined); err != nil {
				return err
			}
		}
		return nil
	}

	if p.Column == "" {
		return errors.New("predicate: column is required")
	}
	if p.Frame != "" && !defined[p.Frame] {
		return fmt.Errorf("predicate: frame %q is not defined earlier", p.Frame)
	}
	if _, err := frame.ParseCompareOp(p.Op); err != nil {
		return fmt.Errorf("predicate on %s: %w", p.Column, err)
	}
	if p.Ref != nil {
		if p.Value != nil {
			return fmt.Errorf("predicate on %s: value and ref are mutually exclusive", p.Column)
		}
		if p.Ref.Column == "" {
			return fmt.Errorf("predicate on %s: ref column is required", p.Column)
		}
		if p.Ref.Frame != "" && !defined[p.Ref.Frame] {
			return fmt.Errorf("predicate on %s: ref frame %q is not defined earlier", p.Column, p.Ref.Frame)
		}
	}
	return nil
}
