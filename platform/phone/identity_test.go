package phone

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "canonical mobile", in: "61998765432", want: "61998765432"},
		{name: "country code and punctuation", in: "+55 (61) 99876-5432", want: "61998765432"},
		{name: "ten digit mobile gets nine", in: "6198765432", want: "61998765432"},
		{name: "ten digit landline kept", in: "6133224455", want: "6133224455"},
		{name: "nine digit without ddd", in: "998765432", want: "998765432"},
		{name: "long number truncated", in: "0055619987654321", want: "19987654321"},
		{name: "short kept", in: "12345", want: "12345"},
		{name: "empty", in: "", want: ""},
		{name: "letters", in: "abc", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	id := NewIdentity("61998765432")
	if id.Canonical != "61998765432" {
		t.Fatalf("expected canonical to be unchanged, got %q", id.Canonical)
	}
	if Normalize(id.Canonical) != id.Canonical {
		t.Fatalf("expected normalizing the canonical key to be a no-op")
	}
	if !contains(id.Variants, id.Canonical) {
		t.Fatalf("expected canonical key in its own variants, got %v", id.Variants)
	}
}

func TestVariants(t *testing.T) {
	got := Variants("61998765432")
	want := []string{"61998765432", "5561998765432", "6198765432"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	landline := Variants("6133224455")
	wantLandline := []string{"6133224455", "556133224455", "61933224455"}
	if !reflect.DeepEqual(landline, wantLandline) {
		t.Fatalf("expected %v, got %v", wantLandline, landline)
	}
}

func TestVariantsAreDeterministic(t *testing.T) {
	first := Variants("(61) 9 9876-5432")
	for i := 0; i < 10; i++ {
		if got := Variants("(61) 9 9876-5432"); !reflect.DeepEqual(got, first) {
			t.Fatalf("expected stable variants, got %v then %v", first, got)
		}
	}
}

func TestVariantSymmetry(t *testing.T) {
	inputs := []string{"5561998765432", "61998765432", "6198765432", "+55 61 9 9876 5432"}
	for i := range inputs {
		for j := range inputs {
			a, b := NewIdentity(inputs[i]), NewIdentity(inputs[j])
			if !a.Matches(b) {
				t.Fatalf("expected %q and %q to share a variant (%v / %v)", inputs[i], inputs[j], a.Variants, b.Variants)
			}
		}
	}
}

func TestEmptyInputYieldsNoVariants(t *testing.T) {
	for _, in := range []string{"", "   ", "no digits here", "--()--"} {
		if v := Variants(in); len(v) != 0 {
			t.Fatalf("expected no variants for %q, got %v", in, v)
		}
	}
	if !FromPtr(nil).IsZero() {
		t.Fatalf("expected nil pointer to yield the zero identity")
	}
}

func TestE164(t *testing.T) {
	if got := NewIdentity("61998765432").E164(); got != "+5561998765432" {
		t.Fatalf("expected +5561998765432, got %q", got)
	}
	if got := (Identity{}).E164(); got != "" {
		t.Fatalf("expected empty string for zero identity, got %q", got)
	}
	if got := NewIdentity("998765432").E164(); got != "" {
		t.Fatalf("expected empty string without area code, got %q", got)
	}
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
