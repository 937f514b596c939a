package domain

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"WWW.Example.com:8080", "example.com"},
		{"example.com", "example.com"},
		{"www.example.com", "example.com"},
		{"Example.COM:443", "example.com"},
		{"sub.www.example.com", "sub.www.example.com"},
		{"", ""},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, in := range []string{"WWW.Example.com:8080", "example.com", "a.b.c"} {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestValid(t *testing.T) {
	valid := []string{"example.com", "sub.example.co.uk", "x-y.net"}
	invalid := []string{"", "localhost", "-bad.com", "no_tld", "ex ample.com"}

	for _, d := range valid {
		if !Valid(d) {
			t.Errorf("Valid(%q) = false, want true", d)
		}
	}
	for _, d := range invalid {
		if Valid(d) {
			t.Errorf("Valid(%q) = true, want false", d)
		}
	}
}
