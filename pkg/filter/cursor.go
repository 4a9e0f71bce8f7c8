package filter

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MrWong99/entigraph/pkg/authz"
	"github.com/MrWong99/entigraph/pkg/grapherr"
)

// SortDirection orders a Sort's column.
type SortDirection int

const (
	Ascending SortDirection = iota
	Descending
)

// Sort names one ORDER BY term of a query (spec §4.5 item 4). A query's sorts
// are rendered exactly as given; no unique tiebreaker column is appended.
type Sort struct {
	Path      Path
	Direction SortDirection
}

// ErrCursorInvalid is returned by Decode when a cursor token fails signature
// verification or does not decode to the expected shape — a tampered or
// cross-query cursor, never a caller bug.
var ErrCursorInvalid = errors.New("filter: cursor is invalid or has been tampered with")

// CursorCodec signs and verifies opaque pagination cursors with an HMAC key
// (spec §4.5 item 4's keyset pagination). A cursor simply encodes the sort
// column values of the last row on a page; CursorCodec's only job is making
// sure a caller cannot forge one that skips authorization-masked rows.
type CursorCodec struct {
	key []byte
}

// NewCursorCodec returns a codec keyed by key, normally the process's
// configured cursor signing key.
func NewCursorCodec(key []byte) *CursorCodec {
	return &CursorCodec{key: key}
}

type cursorPayload struct {
	Values []json.RawMessage `json:"v"`
}

// Encode renders values (the sort-column values of the last row on a page,
// in Sort order) into a signed, opaque token.
func (c *CursorCodec) Encode(values []any) (string, error) {
	raw := make([]json.RawMessage, len(values))
	for i, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return "", grapherr.Wrap(err, "encode cursor value")
		}
		raw[i] = b
	}
	body, err := json.Marshal(cursorPayload{Values: raw})
	if err != nil {
		return "", grapherr.Wrap(err, "encode cursor")
	}

	mac := hmac.New(sha256.New, c.key)
	mac.Write(body)
	sig := mac.Sum(nil)

	token := append(body, byte(0))
	token = append(token, sig...)
	return base64.RawURLEncoding.EncodeToString(token), nil
}

// Decode verifies and unpacks a token produced by Encode, returning the raw
// JSON values in Sort order for the caller to unmarshal against each
// column's concrete type.
func (c *CursorCodec) Decode(token string) ([]json.RawMessage, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) < sha256.Size+1 {
		return nil, ErrCursorInvalid
	}

	sigStart := len(raw) - sha256.Size
	body, sig := raw[:sigStart-1], raw[sigStart:]

	mac := hmac.New(sha256.New, c.key)
	mac.Write(body)
	want := mac.Sum(nil)
	if !hmac.Equal(sig, want) {
		return nil, ErrCursorInvalid
	}

	var payload cursorPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, ErrCursorInvalid
	}
	return payload.Values, nil
}

// SeekPredicate compiles the row-comparison predicate that continues a
// keyset-paginated query past the row the cursor values describe: for
// ascending sorts this is the standard lexicographic
//
//	(col1, col2, ...) > ($1, $2, ...)
//
// tuple comparison (and < for descending), which Postgres evaluates left to
// right exactly like the ORDER BY it mirrors. b is the same builder used by
// Compile so the returned fragment's placeholders continue the same
// sequence.
func SeekPredicate(b *Builder, sorts []Sort, kind authz.ResourceKind, values []any) (string, error) {
	if len(sorts) != len(values) {
		return "", grapherr.Newf(grapherr.Internal, "cursor has %d values but query has %d sort terms", len(values), len(sorts))
	}
	if len(sorts) == 0 {
		return "", grapherr.New(grapherr.Internal, "cannot build a seek predicate with no sort terms")
	}

	cols := make([]string, len(sorts))
	op := ">"
	for i, s := range sorts {
		col, err := resolveColumn(kind, s.Path)
		if err != nil {
			return "", err
		}
		cols[i] = col.expr
		if s.Direction == Descending {
			op = "<"
		}
	}

	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = b.Next(v)
	}

	return fmt.Sprintf("(%s) %s (%s)",
		joinExprs(cols), op, joinExprs(placeholders)), nil
}

func joinExprs(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += ", " + p
	}
	return out
}

// OrderByClause renders sorts into a complete ORDER BY clause, including the
// shared resource kind's column resolution (spec §4.5 item 4).
func OrderByClause(sorts []Sort, kind authz.ResourceKind) (string, error) {
	if len(sorts) == 0 {
		return "", nil
	}
	terms := make([]string, len(sorts))
	for i, s := range sorts {
		col, err := resolveColumn(kind, s.Path)
		if err != nil {
			return "", err
		}
		dir := "ASC"
		if s.Direction == Descending {
			dir = "DESC"
		}
		terms[i] = col.expr + " " + dir
	}
	return "ORDER BY " + joinExprs(terms), nil
}
