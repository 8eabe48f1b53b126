package domain

import "testing"

func TestCompatibleIsSymmetric(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		a, b MatchAttributes
		want bool
	}{
		{
			name: "no preferences accept anyone",
			a:    MatchAttributes{Gender: GenderMale},
			b:    MatchAttributes{Gender: GenderFemale},
			want: true,
		},
		{
			name: "mutual preference satisfied",
			a:    MatchAttributes{Gender: GenderMale, PreferredGender: GenderFemale},
			b:    MatchAttributes{Gender: GenderFemale, PreferredGender: GenderMale},
			want: true,
		},
		{
			name: "one side refused",
			a:    MatchAttributes{Gender: GenderMale, PreferredGender: GenderFemale},
			b:    MatchAttributes{Gender: GenderMale},
			want: false,
		},
		{
			name: "preference refused in the other direction",
			a:    MatchAttributes{Gender: GenderFemale},
			b:    MatchAttributes{Gender: GenderMale, PreferredGender: GenderMale},
			want: false,
		},
		{
			name: "explicit any accepts anyone",
			a:    MatchAttributes{Gender: GenderOther, PreferredGender: GenderAny},
			b:    MatchAttributes{Gender: GenderMale},
			want: true,
		},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			if got := Compatible(c.a, c.b); got != c.want {
				t.Errorf("Compatible(a,b): got %v, want %v", got, c.want)
			}
			if got := Compatible(c.b, c.a); got != c.want {
				t.Errorf("Compatible(b,a): got %v, want %v (predicate must be symmetric)", got, c.want)
			}
		})
	}
}

func TestParseSignalKind(t *testing.T) {
	t.Parallel()
	for _, s := range []string{"offer", "answer", "ice-candidate"} {
		if _, err := ParseSignalKind(s); err != nil {
			t.Errorf("ParseSignalKind(%q): %v", s, err)
		}
	}
	for _, s := range []string{"", "candidate", "OFFER", "bye"} {
		if _, err := ParseSignalKind(s); err == nil {
			t.Errorf("ParseSignalKind(%q): got nil error, want rejection", s)
		}
	}
}

func TestRoomPartnerOf(t *testing.T) {
	t.Parallel()
	r := Room{ParticipantA: "alice", ParticipantB: "bob"}

	if p, ok := r.PartnerOf("alice"); !ok || p != "bob" {
		t.Errorf("PartnerOf(alice): got %q/%v, want bob/true", p, ok)
	}
	if p, ok := r.PartnerOf("bob"); !ok || p != "alice" {
		t.Errorf("PartnerOf(bob): got %q/%v, want alice/true", p, ok)
	}
	if _, ok := r.PartnerOf("carol"); ok {
		t.Error("PartnerOf(carol): got true, want false")
	}

	half := Room{ParticipantA: "alice"}
	if _, ok := half.PartnerOf("alice"); ok {
		t.Error("PartnerOf in a half-empty room: got true, want false")
	}
}
