package validator

import "testing"

type eventQuery struct {
	EventDate string `validate:"omitempty,isodate"`
	Mode      string `validate:"omitempty,oneof=pre_event post_event"`
}

func TestISODate(t *testing.T) {
	val := New()

	cases := []struct {
		query eventQuery
		ok    bool
	}{
		{query: eventQuery{EventDate: "2025-03-14"}, ok: true},
		{query: eventQuery{}, ok: true},
		{query: eventQuery{EventDate: "14/03/2025"}, ok: false},
		{query: eventQuery{EventDate: "2025-02-30"}, ok: false},
		{query: eventQuery{Mode: "post_event"}, ok: true},
		{query: eventQuery{Mode: "after"}, ok: false},
	}

	for _, tc := range cases {
		err := val.Struct(tc.query)
		if tc.ok && err != nil {
			t.Fatalf("expected %+v to be valid, got %v", tc.query, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("expected %+v to be rejected", tc.query)
		}
	}
}
