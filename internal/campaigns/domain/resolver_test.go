package domain

import (
	"context"
	"errors"
	"testing"
)

func TestExtractChatPhone(t *testing.T) {
	cases := map[string]string{
		"5561998765432@s.whatsapp.net": "5561998765432",
		"61998765432@c.us":             "61998765432",
		"group-123@g.us":               "",
		"5561998765432":                "",
		"":                             "",
	}
	for in, want := range cases {
		if got := ExtractChatPhone(in); got != want {
			t.Fatalf("ExtractChatPhone(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestResolveDirect(t *testing.T) {
	records := []DeliveryRecord{
		{ContactID: "c1", ChatID: "5561998765432@s.whatsapp.net", State: StateRead},
		{ContactID: "c2", ChatID: "", State: StateDelivered},
	}

	recipients, stats := ResolveDirect(records)

	if stats.Direct != 1 || stats.Unresolved != 1 {
		t.Fatalf("expected 1 direct and 1 unresolved, got %+v", stats)
	}
	if recipients[0].Identity.Canonical != "61998765432" || recipients[0].Source != SourceChatID {
		t.Fatalf("unexpected first recipient %+v", recipients[0])
	}
	if recipients[1].HasIdentity() || recipients[1].Source != SourceUnresolved {
		t.Fatalf("expected second recipient unresolved, got %+v", recipients[1])
	}
}

func TestResolverSkipsFallbackWhenCoverageIsEnough(t *testing.T) {
	calls := 0
	resolver := Resolver{
		Lookup: func(context.Context, []string) (map[string]string, error) {
			calls++
			return nil, nil
		},
	}
	records := []DeliveryRecord{
		{ContactID: "c1", ChatID: "61998765432@c.us"},
		{ContactID: "c2"},
	}

	_, stats := resolver.Resolve(context.Background(), records)

	if calls != 0 || stats.FallbackUsed {
		t.Fatalf("expected no directory lookup at 50%% coverage, got %d calls", calls)
	}
}

func TestResolverBackfillsInBatchesAndSkipsFailedBatch(t *testing.T) {
	directory := map[string]string{
		"c1": "(61) 99876-0001",
		"c2": "61998760002",
		"c3": "61998760003",
		"c4": "61998760004",
		"c5": "61998760005",
	}
	var batches [][]string
	resolver := Resolver{
		BatchSize: 2,
		Lookup: func(_ context.Context, ids []string) (map[string]string, error) {
			batches = append(batches, append([]string(nil), ids...))
			if len(batches) == 2 {
				return nil, errors.New("directory timeout")
			}
			out := make(map[string]string)
			for _, id := range ids {
				out[id] = directory[id]
			}
			return out, nil
		},
	}
	records := []DeliveryRecord{
		{ContactID: "c1"}, {ContactID: "c2"}, {ContactID: "c3"},
		{ContactID: "c4"}, {ContactID: "c5"}, {ContactID: "c1"},
	}

	recipients, stats := resolver.Resolve(context.Background(), records)

	if len(batches) != 3 {
		t.Fatalf("expected 3 batches for 5 distinct ids, got %d", len(batches))
	}
	if stats.FailedBatches != 1 || len(stats.BatchErrors) != 1 {
		t.Fatalf("expected one failed batch, got %+v", stats)
	}
	if stats.Backfilled != 4 || stats.Unresolved != 2 {
		t.Fatalf("expected 4 backfilled and 2 unresolved, got %+v", stats)
	}
	if recipients[0].Identity.Canonical != "61998760001" || recipients[0].Source != SourceDirectory {
		t.Fatalf("unexpected backfilled recipient %+v", recipients[0])
	}
	if recipients[2].HasIdentity() {
		t.Fatalf("expected c3 to stay unresolved after its batch failed")
	}
}

func TestBackfillDoesNotMutateInput(t *testing.T) {
	input := []Recipient{{ContactID: "c1"}}
	lookup := func(context.Context, []string) (map[string]string, error) {
		return map[string]string{"c1": "61998765432"}, nil
	}

	out, _ := Backfill(context.Background(), input, lookup, 10)

	if input[0].HasIdentity() {
		t.Fatalf("expected input recipients to stay untouched")
	}
	if !out[0].HasIdentity() {
		t.Fatalf("expected output recipient to be resolved")
	}
}
