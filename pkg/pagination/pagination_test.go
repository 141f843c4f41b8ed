package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{-5, DefaultLimit},
		{0, DefaultLimit},
		{10, 10},
		{MaxLimit, MaxLimit},
		{MaxLimit + 1, MaxLimit},
	}
	for _, tc := range cases {
		if got := NormalizeLimit(tc.in); got != tc.want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestLimitWithBuffer(t *testing.T) {
	if got := LimitWithBuffer(10); got != 11 {
		t.Fatalf("LimitWithBuffer(10) = %d, want 11", got)
	}
	if got := LimitWithBuffer(0); got != DefaultLimit+1 {
		t.Fatalf("LimitWithBuffer(0) = %d, want %d", got, DefaultLimit+1)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	id := uuid.New()
	createdAt := time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC)

	token := EncodeCursor(Cursor{CreatedAt: createdAt, ID: id})
	cursor, err := ParseCursor(token)
	if err != nil {
		t.Fatalf("ParseCursor returned error: %v", err)
	}
	if cursor == nil {
		t.Fatal("expected cursor, got nil")
	}
	if !cursor.CreatedAt.Equal(createdAt) {
		t.Fatalf("CreatedAt = %s, want %s", cursor.CreatedAt, createdAt)
	}
	if cursor.ID != id {
		t.Fatalf("ID = %s, want %s", cursor.ID, id)
	}
}

func TestParseCursorEmpty(t *testing.T) {
	cursor, err := ParseCursor("   ")
	if err != nil {
		t.Fatalf("ParseCursor returned error: %v", err)
	}
	if cursor != nil {
		t.Fatal("expected nil cursor for blank value")
	}
}

func TestParseCursorInvalid(t *testing.T) {
	cases := []string{
		"not-base64!!!",
		"bm8tcGlwZQ==",         // no separator
		"YmFkLXRpbWV8YWJjZA==", // bad timestamp
	}
	for _, value := range cases {
		if _, err := ParseCursor(value); err == nil {
			t.Fatalf("expected error for cursor %q", value)
		}
	}
}
