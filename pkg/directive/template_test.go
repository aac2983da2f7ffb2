package directive

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func render(t *testing.T, src string, ctx Context, opts ...Option) string {
	t.Helper()
	tmpl, err := New(src, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Render(&buf, ctx); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func TestRenderPassthrough(t *testing.T) {
	src := "no directives here, just text\nwith a newline and a lone ** star pair"
	if got := render(t, src, Context{}); got != src {
		t.Errorf("Render() = %q, want input unchanged", got)
	}
}

func TestRenderVariable(t *testing.T) {
	tests := []struct {
		name string
		src  string
		ctx  Context
		want string
	}{
		{
			name: "present scalar",
			src:  "/** variable name **/",
			ctx:  Context{"name": Scalar("Michael")},
			want: "Michael",
		},
		{
			name: "missing key renders empty",
			src:  "[/** variable missing **/]",
			ctx:  Context{},
			want: "[]",
		},
		{
			name: "surrounded by literals",
			src:  "Hello, /** variable name **/!",
			ctx:  Context{"name": Scalar("world")},
			want: "Hello, world!",
		},
		{
			name: "list-valued key renders empty",
			src:  "[/** variable items **/]",
			ctx:  Context{"items": List("a", "b")},
			want: "[]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := render(t, tt.src, tt.ctx); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderInclude(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "header.html"), []byte("<h1>Title</h1>"), 0644); err != nil {
		t.Fatalf("failed to write include file: %v", err)
	}

	got := render(t, "X/** include header.html **/Y", Context{}, WithResolver(DirResolver(dir)))
	if want := "X<h1>Title</h1>Y"; got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestRenderIncludeUnreadable(t *testing.T) {
	tmpl, err := New("/** include nope.txt **/", WithResolver(DirResolver(t.TempDir())))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Render(&buf, Context{}); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Render() error = %v, want wrapped os.ErrNotExist", err)
	}
}

func TestRenderLoop(t *testing.T) {
	src := "/** loopover items **/BODY/** loopvar **/TAIL/** endloop **/"
	got := render(t, src, Context{"items": List("a", "b", "c")})
	if want := "BODYaTAILBODYbTAILBODYcTAIL"; got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestRenderLoopSurroundedByLiterals(t *testing.T) {
	src := "pre|/** loopover items **/</** loopvar **/>/** endloop **/|post"
	got := render(t, src, Context{"items": List("1", "2")})
	if want := "pre|<1><2>|post"; got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestRenderLoopMissingKey(t *testing.T) {
	src := "A/** loopover missing **/X/** endloop **/B"
	if got := render(t, src, Context{}); got != "AB" {
		t.Errorf("Render() = %q, want %q", got, "AB")
	}
}

func TestRenderLoopEmptyList(t *testing.T) {
	src := "A/** loopover items **/X/** loopvar **/Y/** endloop **/B"
	if got := render(t, src, Context{"items": List()}); got != "AB" {
		t.Errorf("Render() = %q, want %q", got, "AB")
	}
}

func TestRenderLoopOverScalar(t *testing.T) {
	tmpl, err := New("/** loopover name **//** endloop **/")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	var buf bytes.Buffer
	err = tmpl.Render(&buf, Context{"name": Scalar("Michael")})
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Render() error = %v, want ErrTypeMismatch", err)
	}
}

func TestRenderLoopStateErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		ctx  Context
		// output flushed before the failing directive must survive
		wantPartial string
	}{
		{
			name:        "loopvar without loop",
			src:         "before/** loopvar **/after",
			ctx:         Context{},
			wantPartial: "before",
		},
		{
			name:        "endloop without loop",
			src:         "before/** endloop **/after",
			ctx:         Context{},
			wantPartial: "before",
		},
		{
			name:        "nested loopover",
			src:         "/** loopover a **/x/** loopover b **//** endloop **//** endloop **/",
			ctx:         Context{"a": List("1"), "b": List("2")},
			wantPartial: "x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := New(tt.src)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			var buf bytes.Buffer
			if err := tmpl.Render(&buf, tt.ctx); !errors.Is(err, ErrLoopState) {
				t.Fatalf("Render() error = %v, want ErrLoopState", err)
			}
			if buf.String() != tt.wantPartial {
				t.Errorf("partial output = %q, want %q", buf.String(), tt.wantPartial)
			}
		})
	}
}

func TestRenderLoopMissingEndloop(t *testing.T) {
	tmpl, err := New("/** loopover missing **/X")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Render(&buf, Context{}); !errors.Is(err, ErrParse) {
		t.Errorf("Render() error = %v, want ErrParse", err)
	}
}

// countingResolver records how often each include name is resolved.
type countingResolver struct {
	content map[string]string
	calls   map[string]int
}

func (c *countingResolver) Resolve(name string) ([]byte, error) {
	c.calls[name]++
	body, ok := c.content[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return []byte(body), nil
}

// An include inside a loop body is resolved again on every iteration.
func TestRenderIncludeInsideLoopRereads(t *testing.T) {
	res := &countingResolver{
		content: map[string]string{"chunk.txt": "C"},
		calls:   map[string]int{},
	}
	src := "/** loopover items **//** include chunk.txt **//** loopvar **//** endloop **/"
	got := render(t, src, Context{"items": List("1", "2", "3")}, WithResolver(res))
	if want := "C1C2C3"; got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
	if res.calls["chunk.txt"] != 3 {
		t.Errorf("include resolved %d times, want 3", res.calls["chunk.txt"])
	}
}

func TestLoadResolvesIncludesRelativeToTemplate(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "part.txt"), []byte("PART"), 0644); err != nil {
		t.Fatalf("failed to write include file: %v", err)
	}
	tmplPath := filepath.Join(dir, "page.tmpl")
	if err := os.WriteFile(tmplPath, []byte("a /** include part.txt **/ b"), 0644); err != nil {
		t.Fatalf("failed to write template file: %v", err)
	}

	tmpl, err := Load(tmplPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Render(&buf, Context{}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if want := "a PART b"; buf.String() != want {
		t.Errorf("Render() = %q, want %q", buf.String(), want)
	}
}

func TestRenderIsRepeatable(t *testing.T) {
	tmpl, err := New("/** variable x **/-/** variable x **/")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := Context{"x": Scalar("v")}
	for i := 0; i < 3; i++ {
		var buf bytes.Buffer
		if err := tmpl.Render(&buf, ctx); err != nil {
			t.Fatalf("Render() pass %d error = %v", i, err)
		}
		if buf.String() != "v-v" {
			t.Fatalf("Render() pass %d = %q, want %q", i, buf.String(), "v-v")
		}
	}
}

func TestRenderLargeLoopOrder(t *testing.T) {
	items := make([]string, 50)
	for i := range items {
		items[i] = string(rune('a' + i%26))
	}
	src := "/** loopover items **//** loopvar **/,/** endloop **/"
	got := render(t, src, Context{"items": List(items...)})
	want := strings.Join(items, ",") + ","
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}
