package directive

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Template is an immutable, pre-scanned template. It is safe for concurrent
// renders since all per-render state lives on the Render stack.
type Template struct {
	src      string
	tokens   []Directive
	resolver Resolver
	logger   *slog.Logger
}

// Option configures a Template during construction.
type Option func(*Template)

// WithResolver overrides how include arguments are resolved. The default
// resolves them relative to the current directory (New) or the template
// file's directory (Load).
func WithResolver(r Resolver) Option {
	return func(t *Template) { t.resolver = r }
}

// WithLogger sets the logger for the Template. By default, all logs are
// discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Template) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New scans src and returns a ready-to-render Template. Scanning the whole
// template up front means a malformed directive fails here rather than
// midway through a render.
func New(src string, opts ...Option) (*Template, error) {
	tokens, err := Scan(src)
	if err != nil {
		return nil, err
	}
	t := &Template{
		src:      src,
		tokens:   tokens,
		resolver: DirResolver("."),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Load reads a template file and scans it. Includes resolve relative to the
// file's directory unless a WithResolver option overrides that.
func Load(path string, opts ...Option) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}
	withDir := make([]Option, 0, len(opts)+1)
	withDir = append(withDir, WithResolver(DirResolver(filepath.Dir(path))))
	withDir = append(withDir, opts...)
	return New(string(data), withDir...)
}

// loopFrame tracks the single active iteration. bodyStart is the source
// offset just past the loopover directive; bodyToken is the index of the
// first directive inside the body, so a rewind is an index reset rather
// than a re-scan.
type loopFrame struct {
	list      []string
	index     int
	bodyStart int
	bodyToken int
}

// Render executes the template against ctx, writing output to w as it goes.
// Output already written stays written when an error aborts the render.
func (t *Template) Render(w io.Writer, ctx Context) error {
	cursor := 0
	var frame *loopFrame

	for ti := 0; ti < len(t.tokens); ti++ {
		d := t.tokens[ti]
		if d.Start > cursor {
			if _, err := io.WriteString(w, t.src[cursor:d.Start]); err != nil {
				return err
			}
		}

		switch d.Kind {
		case KindInclude:
			data, err := t.resolver.Resolve(d.Arg)
			if err != nil {
				return fmt.Errorf("include %q: %w", d.Arg, err)
			}
			if _, err := w.Write(data); err != nil {
				return err
			}
			cursor = d.End

		case KindVariable:
			v := ctx[d.Arg]
			// Absent keys render as the empty string.
			if !v.IsList() {
				if _, err := io.WriteString(w, v.Scalar()); err != nil {
					return err
				}
			}
			cursor = d.End

		case KindLoopOver:
			if frame != nil {
				return fmt.Errorf("loopover %q inside an open loop: %w", d.Arg, ErrLoopState)
			}
			v, ok := ctx[d.Arg]
			if ok && !v.IsList() {
				return fmt.Errorf("loopover %q is a scalar, not a list: %w", d.Arg, ErrTypeMismatch)
			}
			cursor = d.End
			if len(v.List()) == 0 {
				// Zero iterations: skip the body entirely.
				next, err := t.skipBody(ti)
				if err != nil {
					return err
				}
				ti = next
				cursor = t.tokens[ti].End
				continue
			}
			frame = &loopFrame{list: v.List(), bodyStart: d.End, bodyToken: ti + 1}

		case KindLoopVar:
			if frame == nil {
				return fmt.Errorf("loopvar outside a loop: %w", ErrLoopState)
			}
			if _, err := io.WriteString(w, frame.list[frame.index]); err != nil {
				return err
			}
			cursor = d.End

		case KindEndLoop:
			if frame == nil {
				return fmt.Errorf("endloop outside a loop: %w", ErrLoopState)
			}
			frame.index++
			if frame.index < len(frame.list) {
				cursor = frame.bodyStart
				ti = frame.bodyToken - 1
			} else {
				frame = nil
				cursor = d.End
			}
		}
	}

	if _, err := io.WriteString(w, t.src[cursor:]); err != nil {
		return err
	}
	t.logger.Debug("render complete", "directives", len(t.tokens), "template_bytes", len(t.src))
	return nil
}

// skipBody advances from the loopover at token index ti to its endloop,
// returning the endloop's index. Loops do not nest, so the first endloop
// closes the body.
func (t *Template) skipBody(ti int) (int, error) {
	for i := ti + 1; i < len(t.tokens); i++ {
		switch t.tokens[i].Kind {
		case KindEndLoop:
			return i, nil
		case KindLoopOver:
			return 0, fmt.Errorf("loopover %q inside an open loop: %w", t.tokens[i].Arg, ErrLoopState)
		}
	}
	return 0, fmt.Errorf("loopover %q has no matching endloop: %w", t.tokens[ti].Arg, ErrParse)
}
