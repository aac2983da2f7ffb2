package directive

import (
	"fmt"
	"strings"
)

// Kind identifies one of the five recognized directive keywords.
type Kind int

const (
	// KindInclude splices the contents of a resolved file into the output.
	KindInclude Kind = iota
	// KindVariable writes a scalar context value.
	KindVariable
	// KindLoopOver opens an iteration over a list context value.
	KindLoopOver
	// KindLoopVar writes the current element of the active loop.
	KindLoopVar
	// KindEndLoop closes the loop body, rewinding for the next element.
	KindEndLoop
)

// String returns the directive keyword for the kind.
func (k Kind) String() string {
	switch k {
	case KindInclude:
		return "include"
	case KindVariable:
		return "variable"
	case KindLoopOver:
		return "loopover"
	case KindLoopVar:
		return "loopvar"
	case KindEndLoop:
		return "endloop"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Directive is one parsed directive occurrence. Start and End delimit the
// half-open span [Start, End) of the whole marker sequence in the template
// source, so the literal text between two directives is src[prev.End:next.Start].
type Directive struct {
	Kind  Kind
	Arg   string
	Start int
	End   int
}

const (
	openMarker  = "/**"
	closeMarker = "**/"
)

var keywords = map[string]Kind{
	"include":  KindInclude,
	"variable": KindVariable,
	"loopover": KindLoopOver,
	"loopvar":  KindLoopVar,
	"endloop":  KindEndLoop,
}

// argument requirements per keyword; loopvar and endloop take none.
var takesArg = map[Kind]bool{
	KindInclude:  true,
	KindVariable: true,
	KindLoopOver: true,
	KindLoopVar:  false,
	KindEndLoop:  false,
}

// Scan performs a single forward pass over src and returns every directive
// in source order. The argument of a directive is extracted from the text
// strictly before the first close marker after the open marker, so an
// argument can never contain the close marker itself.
func Scan(src string) ([]Directive, error) {
	var dirs []Directive
	i := 0
	for {
		rel := strings.Index(src[i:], openMarker)
		if rel == -1 {
			return dirs, nil
		}
		start := i + rel
		inner := start + len(openMarker)

		rel = strings.Index(src[inner:], closeMarker)
		if rel == -1 {
			return nil, fmt.Errorf("unterminated directive at offset %d: %w", start, ErrParse)
		}
		end := inner + rel + len(closeMarker)

		fields := strings.Fields(src[inner : inner+rel])
		if len(fields) == 0 {
			return nil, fmt.Errorf("empty directive at offset %d: %w", start, ErrParse)
		}
		kind, ok := keywords[fields[0]]
		if !ok {
			return nil, fmt.Errorf("unknown directive %q at offset %d: %w", fields[0], start, ErrParse)
		}

		d := Directive{Kind: kind, Start: start, End: end}
		switch {
		case takesArg[kind] && len(fields) == 2:
			d.Arg = fields[1]
		case takesArg[kind]:
			return nil, fmt.Errorf("directive %q at offset %d wants exactly one argument: %w", fields[0], start, ErrParse)
		case len(fields) > 1:
			return nil, fmt.Errorf("directive %q at offset %d takes no argument: %w", fields[0], start, ErrParse)
		}

		dirs = append(dirs, d)
		i = end
	}
}
