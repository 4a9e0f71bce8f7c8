package filter

import "github.com/MrWong99/entigraph/pkg/authz"

// CompileCount lowers f the same way Compile does, but is named separately
// so callers performing a resolve_count (spec §4.5 item 5) can tell at a
// glance that the resulting WHERE fragment is meant for a `SELECT count(*)`
// rather than a row-returning SELECT — no sort, cursor, or column
// projection applies to a count query.
func CompileCount(f Filter, kind authz.ResourceKind) (Plan, error) {
	return Compile(f, kind)
}
