// Package script parses and replays layout mutation scripts.
//
// A script is a list of steps, one per line, applied in order to a scene
// host and its composite:
//
//	# grow the list, then measure the new row
//	insert messages:1 count 2
//	measure messages:1 height 88
//	scroll by 120
//	move photos:0 to messages:0
//	insert section 2 extras like photos count 4
//	delete section extras
//	measure header messages height 36
//	resize 414 896
//	tick 3s
//	check
//
// Sections are referenced by index or by id. Item indexes follow the batch
// update conventions of the layout package: sources refer to positions
// before the step and destinations to positions after it. "check" compares
// the incremental layout against a rebuild from scratch; a [Replayer] in
// verify mode does that after every step.
package script

import (
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/matzehuels/sectionflow/pkg/errors"
)

var (
	scriptLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "Comment", Pattern: `#[^\n]*`},
		{Name: "Duration", Pattern: `(?:\d+(?:\.\d+)?(?:ms|us|s|m|h))+`},
		{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_.-]*`},
		{Name: "Symbol", Pattern: `[:;]`},
	})

	scriptParser = participle.MustBuild[Script](
		participle.Lexer(scriptLexer),
		participle.Elide("Whitespace", "Comment"),
		participle.UseLookahead(4),
	)
)

// =============================================================================
// Grammar
// =============================================================================

// Script is a parsed mutation script.
type Script struct {
	Pos   lexer.Position `parser:""`
	Steps []*Step        `parser:"Newline* ( @@ ( ';' | Newline )* )*"`
}

// Step is one statement. Exactly one field is set.
type Step struct {
	Pos lexer.Position `parser:""`

	Reload        *Reload        `parser:"  @@"`
	Resize        *Resize        `parser:"| @@"`
	Scroll        *Scroll        `parser:"| @@"`
	InsertSection *InsertSection `parser:"| @@"`
	Insert        *Insert        `parser:"| @@"`
	DeleteSection *DeleteSection `parser:"| @@"`
	Delete        *Delete        `parser:"| @@"`
	MoveSection   *MoveSection   `parser:"| @@"`
	Move          *Move          `parser:"| @@"`
	MeasureBanner *MeasureBanner `parser:"| @@"`
	Measure       *Measure       `parser:"| @@"`
	Tick          *Tick          `parser:"| @@"`
	Check         *Check         `parser:"| @@"`
}

// Ref addresses an item as section:item.
type Ref struct {
	Section string `parser:"@(Ident | Number)"`
	Item    int    `parser:"':' @Number"`
}

func (r Ref) String() string { return fmt.Sprintf("%s:%d", r.Section, r.Item) }

// Reload invalidates everything, or reloads one item.
type Reload struct {
	Keyword string `parser:"@'reload'"`
	Target  *Ref   `parser:"( @@ )?"`
}

// Resize changes the viewport size. Height zero keeps the current one.
type Resize struct {
	Width  float64 `parser:"'resize' @Number"`
	Height float64 `parser:"( @Number )?"`
}

// Scroll moves the viewport to an offset, or by a delta.
type Scroll struct {
	By     bool    `parser:"'scroll' ( @'by' )?"`
	Offset float64 `parser:"@Number"`
}

// InsertSection inserts a section at an index. The new section copies the
// configuration of Like, or is a self-sizing rows section.
type InsertSection struct {
	At    int    `parser:"'insert' 'section' @Number"`
	ID    string `parser:"@Ident"`
	Like  string `parser:"( 'like' @(Ident | Number) )?"`
	Count *int   `parser:"( 'count' @Number )?"`
}

// Insert inserts Count items (default 1) at Target.
type Insert struct {
	Target Ref `parser:"'insert' @@"`
	Count  int `parser:"( 'count' @Number )?"`
}

// DeleteSection removes a section.
type DeleteSection struct {
	Section string `parser:"'delete' 'section' @(Ident | Number)"`
}

// Delete removes Count items (default 1) starting at Target.
type Delete struct {
	Target Ref `parser:"'delete' @@"`
	Count  int `parser:"( 'count' @Number )?"`
}

// MoveSection moves a section to an index.
type MoveSection struct {
	Section string `parser:"'move' 'section' @(Ident | Number)"`
	To      int    `parser:"'to' @Number"`
}

// Move moves one item.
type Move struct {
	From Ref `parser:"'move' @@"`
	To   Ref `parser:"'to' @@"`
}

// MeasureBanner reports the measured height of a header or footer.
type MeasureBanner struct {
	Kind    string  `parser:"'measure' @('header' | 'footer')"`
	Section string  `parser:"@(Ident | Number)"`
	Height  float64 `parser:"'height' @Number"`
}

// Measure reports the measured height of an item.
type Measure struct {
	Target Ref     `parser:"'measure' @@"`
	Height float64 `parser:"'height' @Number"`
}

// Tick advances the scheduler clock. An empty duration advances by one
// default mosaic interval.
type Tick struct {
	Keyword  string `parser:"@'tick'"`
	Duration string `parser:"( @Duration )?"`
}

// Check compares the layout against a rebuild.
type Check struct {
	Keyword string `parser:"@'check'"`
}

// =============================================================================
// Parsing
// =============================================================================

// Parse reads a script. Name is used in error positions.
func Parse(name string, r io.Reader) (*Script, error) {
	s, err := scriptParser.Parse(name, r)
	if err != nil {
		return nil, parseError(name, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ParseString parses a script from a string.
func ParseString(name, src string) (*Script, error) {
	s, err := scriptParser.ParseString(name, src)
	if err != nil {
		return nil, parseError(name, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func parseError(name string, err error) error {
	var perr participle.Error
	if stderrors.As(err, &perr) {
		pos := perr.Position()
		return errors.Wrap(errors.ErrCodeInvalidScript,
			&errors.PositionError{File: name, Line: pos.Line, Column: pos.Column, Msg: perr.Message()}, "parse")
	}
	return errors.Wrap(errors.ErrCodeInvalidScript, err, "parse")
}

// Validate checks values the grammar cannot express.
func (s *Script) Validate() error {
	for _, st := range s.Steps {
		if err := st.validate(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidScript,
				&errors.PositionError{File: st.Pos.Filename, Line: st.Pos.Line, Column: st.Pos.Column, Msg: err.Error()},
				"%s", st)
		}
	}
	return nil
}

func (st *Step) validate() error {
	switch {
	case st.Resize != nil:
		if st.Resize.Width <= 0 || st.Resize.Height < 0 {
			return fmt.Errorf("viewport size must be positive")
		}
	case st.Insert != nil:
		if st.Insert.Count < 0 {
			return fmt.Errorf("count cannot be negative")
		}
	case st.Delete != nil:
		if st.Delete.Count < 0 {
			return fmt.Errorf("count cannot be negative")
		}
	case st.InsertSection != nil:
		if st.InsertSection.Count != nil && *st.InsertSection.Count < 0 {
			return fmt.Errorf("count cannot be negative")
		}
	case st.Measure != nil:
		if st.Measure.Height < 0 {
			return fmt.Errorf("height cannot be negative")
		}
	case st.MeasureBanner != nil:
		if st.MeasureBanner.Height < 0 {
			return fmt.Errorf("height cannot be negative")
		}
	case st.Tick != nil:
		if _, err := st.Tick.Interval(time.Second); err != nil {
			return err
		}
	}
	return nil
}

// Interval returns the tick duration, or def when none was given.
func (t *Tick) Interval(def time.Duration) (time.Duration, error) {
	if t.Duration == "" {
		return def, nil
	}
	d, err := time.ParseDuration(t.Duration)
	if err != nil {
		return 0, fmt.Errorf("tick: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("tick: duration must be positive")
	}
	return d, nil
}

// =============================================================================
// Formatting
// =============================================================================

// String formats the step in canonical script syntax.
func (st *Step) String() string {
	num := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	count := func(n int) string {
		if n > 1 {
			return fmt.Sprintf(" count %d", n)
		}
		return ""
	}
	switch {
	case st.Reload != nil:
		if st.Reload.Target != nil {
			return "reload " + st.Reload.Target.String()
		}
		return "reload"
	case st.Resize != nil:
		if st.Resize.Height > 0 {
			return "resize " + num(st.Resize.Width) + " " + num(st.Resize.Height)
		}
		return "resize " + num(st.Resize.Width)
	case st.Scroll != nil:
		if st.Scroll.By {
			return "scroll by " + num(st.Scroll.Offset)
		}
		return "scroll " + num(st.Scroll.Offset)
	case st.InsertSection != nil:
		s := st.InsertSection
		out := fmt.Sprintf("insert section %d %s", s.At, s.ID)
		if s.Like != "" {
			out += " like " + s.Like
		}
		if s.Count != nil {
			out += fmt.Sprintf(" count %d", *s.Count)
		}
		return out
	case st.Insert != nil:
		return "insert " + st.Insert.Target.String() + count(st.Insert.Count)
	case st.DeleteSection != nil:
		return "delete section " + st.DeleteSection.Section
	case st.Delete != nil:
		return "delete " + st.Delete.Target.String() + count(st.Delete.Count)
	case st.MoveSection != nil:
		return fmt.Sprintf("move section %s to %d", st.MoveSection.Section, st.MoveSection.To)
	case st.Move != nil:
		return "move " + st.Move.From.String() + " to " + st.Move.To.String()
	case st.MeasureBanner != nil:
		m := st.MeasureBanner
		return "measure " + m.Kind + " " + m.Section + " height " + num(m.Height)
	case st.Measure != nil:
		return "measure " + st.Measure.Target.String() + " height " + num(st.Measure.Height)
	case st.Tick != nil:
		if st.Tick.Duration != "" {
			return "tick " + st.Tick.Duration
		}
		return "tick"
	case st.Check != nil:
		return "check"
	}
	return "?"
}

// String formats the whole script, one step per line.
func (s *Script) String() string {
	var b strings.Builder
	for _, st := range s.Steps {
		b.WriteString(st.String())
		b.WriteByte('\n')
	}
	return b.String()
}
