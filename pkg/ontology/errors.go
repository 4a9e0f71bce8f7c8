package ontology

import "errors"

// Sentinel errors returned by Catalog implementations, matched with
// [errors.Is]. Concrete stores wrap these with positional detail via
// fmt.Errorf("%w").
var (
	// ErrAlreadyExists is returned by Create when (base_url, version)
	// already exists and OnConflict is OnConflictFail.
	ErrAlreadyExists = errors.New("ontology: version already exists")

	// ErrNotFound is returned when the requested VersionedUrl or BaseUrl
	// has no matching record.
	ErrNotFound = errors.New("ontology: not found")

	// ErrUnknownActor is returned when a referenced account (the acting
	// actor, or an owned_by_id web) cannot be resolved.
	ErrUnknownActor = errors.New("ontology: unknown actor")

	// ErrNoLiveEditions is returned by Archive when the target base URL has
	// no non-archived edition left to archive (spec §4.2 ordering rule).
	ErrNoLiveEditions = errors.New("ontology: base url has no live editions")

	// ErrVersionGap is returned when an operation would create a
	// non-dense version sequence for a base URL.
	ErrVersionGap = errors.New("ontology: versions for a base url must be dense starting at 1")
)
