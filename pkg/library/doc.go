/*
Package library provides a SQLite-backed store of named template snippets.

Each snippet has a unique name, its template text, an optional set of
space-separated tags, and a creation timestamp. Snippets can be searched by a
filter string that matches against either the text or the tags, and the whole
library can be exported to and re-imported from JSON.

A Store also satisfies directive.Resolver, so include directives in
server-rendered templates can be resolved from the library instead of the
filesystem.
*/
package library
