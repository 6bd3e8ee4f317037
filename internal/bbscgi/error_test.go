package bbscgi

import "testing"

func TestKindStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		KindNotFound:           404,
		KindBadRequest:         400,
		KindUnauthorized:       401,
		KindForbidden:          403,
		KindTooSoon:            429,
		KindRequiresActivation: 200,
		KindInternal:           500,
	}
	for kind, want := range cases {
		if got := kind.Status(); got != want {
			t.Errorf("Kind(%v).Status() = %d, want %d", kind, got, want)
		}
	}
}

func TestWrapIsInternal(t *testing.T) {
	err := Wrap(NotFound("board"))
	if err.Kind != KindInternal {
		t.Fatalf("Wrap().Kind = %v, want KindInternal", err.Kind)
	}
	if err.Unwrap() == nil {
		t.Fatalf("Unwrap() = nil, want wrapped cause")
	}
}
