// Package directive implements a small directive-based template rendering
// engine. A template is plain UTF-8 text with embedded directives of the form
// "slash-star-star keyword argument star-star-slash", e.g.:
//
//	/** variable name **/
//	/** include header.html **/
//	/** loopover items **/ - /** loopvar **/
//	/** endloop **/
//
// Templates are scanned once up front into an ordered directive sequence and
// rendered in a single pass against a read-only Context of scalar strings and
// string lists. A single non-nesting loop construct is supported; the loop body
// is replayed once per list element.
//
// Rendering is synchronous and writes output incrementally; a failed render may
// leave partial output behind. Missing variable and loopover keys are not
// errors (empty string and zero iterations respectively).
package directive
