package script

import (
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/sectionflow/pkg/errors"
)

func TestParseSteps(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"reload", "reload"},
		{"reload list:2", "reload list:2"},
		{"resize 414", "resize 414"},
		{"resize 414 896", "resize 414 896"},
		{"scroll 120", "scroll 120"},
		{"scroll by -40.5", "scroll by -40.5"},
		{"insert 0:1", "insert 0:1"},
		{"insert messages:1 count 3", "insert messages:1 count 3"},
		{"insert section 1 extras", "insert section 1 extras"},
		{"insert section 0 more like photos count 4", "insert section 0 more like photos count 4"},
		{"delete 1:0 count 2", "delete 1:0 count 2"},
		{"delete section extras", "delete section extras"},
		{"move 0:0 to 1:3", "move 0:0 to 1:3"},
		{"move section 2 to 0", "move section 2 to 0"},
		{"measure 0:4 height 88", "measure 0:4 height 88"},
		{"measure header inbox height 36", "measure header inbox height 36"},
		{"measure footer 1 height 12.5", "measure footer 1 height 12.5"},
		{"tick", "tick"},
		{"tick 1m30s", "tick 1m30s"},
		{"check", "check"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			s, err := ParseString("t", tt.src)
			if err != nil {
				t.Fatalf("ParseString(%q): %v", tt.src, err)
			}
			if len(s.Steps) != 1 {
				t.Fatalf("got %d steps, want 1", len(s.Steps))
			}
			if got := s.Steps[0].String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseLayoutOfScript(t *testing.T) {
	src := `
# warm up
insert list:0 count 2   # trailing comment

scroll 40; check
tick 2s
`
	s, err := ParseString("warmup.sfs", src)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Steps) != 4 {
		t.Fatalf("got %d steps:\n%s", len(s.Steps), s)
	}
	if line := s.Steps[0].Pos.Line; line != 3 {
		t.Errorf("first step on line %d, want 3", line)
	}
	if s.Steps[1].Pos.Line != s.Steps[2].Pos.Line {
		t.Errorf("steps split by ';' on lines %d and %d", s.Steps[1].Pos.Line, s.Steps[2].Pos.Line)
	}
	want := "insert list:0 count 2\nscroll 40\ncheck\ntick 2s\n"
	if got := s.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}

	again, err := ParseString("again", s.String())
	if err != nil {
		t.Fatal(err)
	}
	if again.String() != want {
		t.Errorf("reparse changed the script:\n%s", again)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, src := range []string{"", "\n\n", "# nothing\n"} {
		s, err := ParseString("empty", src)
		if err != nil {
			t.Errorf("ParseString(%q): %v", src, err)
			continue
		}
		if len(s.Steps) != 0 {
			t.Errorf("ParseString(%q) has %d steps", src, len(s.Steps))
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
	}{
		{"unknown verb", "explode 0:1", 1},
		{"missing item", "check\ninsert list", 2},
		{"bad ref", "delete 0:x", 1},
		{"zero width", "resize 0", 1},
		{"negative count", "insert 0:0 count -1", 1},
		{"negative height", "\n\nmeasure 0:0 height -3", 3},
		{"negative tick", "tick 0s", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString("bad.sfs", tt.src)
			if err == nil {
				t.Fatalf("ParseString(%q) succeeded", tt.src)
			}
			if !errors.Is(err, errors.ErrCodeInvalidScript) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidScript)
			}
			var pos *errors.PositionError
			if !stderrors.As(err, &pos) {
				t.Fatalf("no position in %v", err)
			}
			if pos.Line != tt.line || pos.File != "bad.sfs" {
				t.Errorf("position = %s:%d, want bad.sfs:%d", pos.File, pos.Line, tt.line)
			}
		})
	}
}

func TestParseReader(t *testing.T) {
	s, err := Parse("r", strings.NewReader("scroll 10\nscroll by 5\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Steps) != 2 || !s.Steps[1].Scroll.By || s.Steps[1].Scroll.Offset != 5 {
		t.Errorf("steps = %s", s)
	}
}

func TestTickInterval(t *testing.T) {
	tests := []struct {
		dur  string
		want time.Duration
	}{
		{"", 3 * time.Second},
		{"250ms", 250 * time.Millisecond},
		{"1m30s", 90 * time.Second},
	}
	for _, tt := range tests {
		got, err := (&Tick{Duration: tt.dur}).Interval(3 * time.Second)
		if err != nil || got != tt.want {
			t.Errorf("Interval(%q) = %v, %v; want %v", tt.dur, got, err, tt.want)
		}
	}
}
