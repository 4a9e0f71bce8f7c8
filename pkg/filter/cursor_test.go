package filter_test

import (
	"strings"
	"testing"

	"github.com/MrWong99/entigraph/pkg/authz"
	"github.com/MrWong99/entigraph/pkg/filter"
)

func TestCursorCodec_RoundTrip(t *testing.T) {
	codec := filter.NewCursorCodec([]byte("test-signing-key"))

	token, err := codec.Encode([]any{"alice", 42})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	values, err := codec.Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(values) != 2 {
		t.Fatalf("got %d values, want 2", len(values))
	}
	if string(values[0]) != `"alice"` {
		t.Errorf("got %s, want \"alice\"", values[0])
	}
	if string(values[1]) != "42" {
		t.Errorf("got %s, want 42", values[1])
	}
}

func TestCursorCodec_RejectsTamperedToken(t *testing.T) {
	codec := filter.NewCursorCodec([]byte("key-one"))
	token, err := codec.Encode([]any{"alice"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	other := filter.NewCursorCodec([]byte("key-two"))
	if _, err := other.Decode(token); err != filter.ErrCursorInvalid {
		t.Errorf("got %v, want ErrCursorInvalid", err)
	}
}

func TestCursorCodec_RejectsGarbage(t *testing.T) {
	codec := filter.NewCursorCodec([]byte("key"))
	if _, err := codec.Decode("not-a-valid-token"); err != filter.ErrCursorInvalid {
		t.Errorf("got %v, want ErrCursorInvalid", err)
	}
}

func TestSeekPredicate(t *testing.T) {
	b := filter.NewBuilder()
	sorts := []filter.Sort{{Path: filter.EntityWebId(), Direction: filter.Ascending}}

	pred, err := filter.SeekPredicate(b, sorts, authz.ResourceEntity, []any{"last-web-id"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(pred, "e.web_id") || !strings.Contains(pred, ">") {
		t.Errorf("got %q", pred)
	}
	if len(b.Args()) != 1 {
		t.Errorf("got %d args, want 1", len(b.Args()))
	}
}

func TestSeekPredicate_DescendingUsesLessThan(t *testing.T) {
	b := filter.NewBuilder()
	sorts := []filter.Sort{{Path: filter.EntityWebId(), Direction: filter.Descending}}

	pred, err := filter.SeekPredicate(b, sorts, authz.ResourceEntity, []any{"last-web-id"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(pred, "<") {
		t.Errorf("got %q, want a < comparison", pred)
	}
}

func TestSeekPredicate_MismatchedLengthsErrors(t *testing.T) {
	b := filter.NewBuilder()
	sorts := []filter.Sort{{Path: filter.EntityWebId()}}
	if _, err := filter.SeekPredicate(b, sorts, authz.ResourceEntity, []any{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestOrderByClause(t *testing.T) {
	sorts := []filter.Sort{
		{Path: filter.EntityWebId(), Direction: filter.Ascending},
		{Path: filter.EntityUuid(), Direction: filter.Descending},
	}
	clause, err := filter.OrderByClause(sorts, authz.ResourceEntity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(clause, "ORDER BY") || !strings.Contains(clause, "ASC") || !strings.Contains(clause, "DESC") {
		t.Errorf("got %q", clause)
	}
}

func TestOrderByClause_Empty(t *testing.T) {
	clause, err := filter.OrderByClause(nil, authz.ResourceEntity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clause != "" {
		t.Errorf("got %q, want empty", clause)
	}
}
