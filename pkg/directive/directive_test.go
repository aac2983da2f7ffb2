package directive

import (
	"errors"
	"testing"
)

func TestScan(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []Directive
	}{
		{
			name: "no directives",
			src:  "plain text with no markers",
			want: nil,
		},
		{
			name: "single variable",
			src:  "/** variable name **/",
			want: []Directive{{Kind: KindVariable, Arg: "name", Start: 0, End: 21}},
		},
		{
			name: "directive between literals",
			src:  "a/** include header.html **/b",
			want: []Directive{{Kind: KindInclude, Arg: "header.html", Start: 1, End: 28}},
		},
		{
			name: "argless directives",
			src:  "/** loopvar **//** endloop **/",
			want: []Directive{
				{Kind: KindLoopVar, Start: 0, End: 15},
				{Kind: KindEndLoop, Start: 15, End: 30},
			},
		},
		{
			name: "extra whitespace inside markers",
			src:  "/**   loopover   items   **/",
			want: []Directive{{Kind: KindLoopOver, Arg: "items", Start: 0, End: 28}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Scan(tt.src)
			if err != nil {
				t.Fatalf("Scan() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Scan() returned %d directives, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("directive %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestScanErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown keyword", "/** shout name **/"},
		{"unterminated", "text /** variable name"},
		{"empty directive", "/**  **/"},
		{"missing argument", "/** variable **/"},
		{"too many arguments", "/** variable one two **/"},
		{"argument on argless directive", "/** endloop now **/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Scan(tt.src); !errors.Is(err, ErrParse) {
				t.Errorf("Scan(%q) error = %v, want ErrParse", tt.src, err)
			}
		})
	}
}

// The argument ends at the first close marker, so a close marker can never be
// consumed as part of an argument.
func TestScanStopsAtFirstCloseMarker(t *testing.T) {
	src := "/** variable name **/ trailing **/"
	got, err := Scan(src)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Scan() returned %d directives, want 1", len(got))
	}
	if got[0].Arg != "name" || got[0].End != 21 {
		t.Errorf("directive = %+v, want Arg=name End=21", got[0])
	}
}

func TestKindString(t *testing.T) {
	kinds := map[Kind]string{
		KindInclude:  "include",
		KindVariable: "variable",
		KindLoopOver: "loopover",
		KindLoopVar:  "loopvar",
		KindEndLoop:  "endloop",
	}
	for k, want := range kinds {
		if k.String() != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(k), k.String(), want)
		}
	}
}
