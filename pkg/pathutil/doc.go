// Package pathutil parses value paths and reads or writes dynamic value trees.
//
// A value tree is built from map[string]any (objects) and []any (arrays).
// Paths are written dotted, with optional bracket indexing:
//
//	a.b.0.c
//	a.b[0].c
//	a["odd.key"]
//
// Writes never mutate their input: SetIn and DeleteIn copy every container
// along the written path and share everything else with the previous tree.
// A tree returned by these functions may therefore be read concurrently with
// later writes.
package pathutil
