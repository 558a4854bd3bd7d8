package service

import (
	"strings"
	"testing"

	"github.com/parley/parley/internal/model"
)

func TestDeriveTitle(t *testing.T) {
	exactly30 := strings.Repeat("a", 30)
	over30 := strings.Repeat("b", 31)

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"short", "Hello there", "Hello there"},
		{"exactly_thirty", exactly30, exactly30},
		{"over_thirty", over30, strings.Repeat("b", 27) + "…"},
		{"multibyte_runes", strings.Repeat("é", 31), strings.Repeat("é", 27) + "…"},
		{"keeps_internal_whitespace", "hello   world", "hello   world"},
		{"keeps_edge_whitespace", "  hi  ", "  hi  "},
		{
			"boundary_counts_raw_runes",
			strings.Repeat("a", 10) + "  " + strings.Repeat("a", 19),
			strings.Repeat("a", 10) + "  " + strings.Repeat("a", 15) + "…",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := DeriveTitle(test.content); got != test.want {
				t.Errorf("expected %q, got %q", test.want, got)
			}
		})
	}
}

func TestTail(t *testing.T) {
	messages := make([]*model.Message, 15)
	for i := range messages {
		messages[i] = &model.Message{ID: string(rune('a' + i))}
	}

	tests := []struct {
		name    string
		in      []*model.Message
		n       int
		wantLen int
		wantIDs []string
	}{
		{"shorter_than_limit", messages[:3], 10, 3, []string{"a", "b", "c"}},
		{"exactly_limit", messages[:10], 10, 10, nil},
		{"longer_than_limit", messages, 10, 10, nil},
		{"empty", nil, 10, 0, nil},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := tail(test.in, test.n)
			if len(got) != test.wantLen {
				t.Fatalf("expected %d messages, got %d", test.wantLen, len(got))
			}
			for i, id := range test.wantIDs {
				if got[i].ID != id {
					t.Errorf("index %d: expected %q, got %q", i, id, got[i].ID)
				}
			}
		})
	}

	t.Run("keeps_most_recent", func(t *testing.T) {
		got := tail(messages, 10)
		if got[0].ID != messages[5].ID {
			t.Errorf("expected tail to start at the sixth message, got %q", got[0].ID)
		}
		if got[len(got)-1].ID != messages[14].ID {
			t.Errorf("expected tail to end at the last message, got %q", got[len(got)-1].ID)
		}
	})
}
