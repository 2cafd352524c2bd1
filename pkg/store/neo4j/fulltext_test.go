package neo4j

import "testing"

func TestFuzzyQuery(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "single term", in: "Hanks", want: "Hanks~"},
		{name: "every term fuzzy", in: "Tom Hnks", want: "Tom~ Hnks~"},
		{name: "extra whitespace", in: "  Meg   Ryan ", want: "Meg~ Ryan~"},
		{name: "special characters escaped", in: "Mission: Impossible", want: `Mission\:~ Impossible~`},
		{name: "operators escaped", in: "AC/DC (live)!", want: `AC\/DC~ \(live\)\!~`},
		{name: "blank", in: "   ", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := fuzzyQuery(tc.in); got != tc.want {
				t.Fatalf("fuzzyQuery(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestEscapeLucene(t *testing.T) {
	in := `+-&|!(){}[]^"~*?:\/`
	want := `\+\-\&\|\!\(\)\{\}\[\]\^\"\~\*\?\:\\\/`
	if got := escapeLucene(in); got != want {
		t.Fatalf("escapeLucene() = %q, want %q", got, want)
	}
	if got := escapeLucene("Amélie"); got != "Amélie" {
		t.Fatalf("escapeLucene(Amélie) = %q", got)
	}
}
