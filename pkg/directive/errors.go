package directive

import "errors"

// Sentinel errors returned (wrapped, with positional detail) by scanning and
// rendering. File read failures from include resolution are returned as the
// underlying I/O error and carry no sentinel of their own.
var (
	// ErrParse indicates an unterminated directive, an unknown keyword,
	// or a directive with the wrong number of argument tokens.
	ErrParse = errors.New("malformed directive")

	// ErrTypeMismatch indicates a loopover argument that resolved to a
	// scalar value instead of a list.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrLoopState indicates a loopvar or endloop with no active loop,
	// or a loopover while another loop is still open.
	ErrLoopState = errors.New("invalid loop state")
)
