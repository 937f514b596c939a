// internal/web/render_test.go
package web

import (
	"strings"
	"testing"

	"github.com/gentpan/NameDeal/internal/settings"
)

func TestIconMarkup(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"fontawesome class", "fa-solid fa-globe", `<i class="fa-solid fa-globe" aria-hidden="true"></i>`},
		{"inline svg", `<svg viewBox="0 0 8 8"><circle r="4"/></svg>`, `<svg viewBox="0 0 8 8"><circle r="4"/></svg>`},
		{"empty", "", ""},
		{"svg with script", `<svg onload="alert(1)"></svg>`, ""},
		{"arbitrary text", `"><script>`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := string(iconMarkup(tc.in)); got != tc.want {
				t.Errorf("iconMarkup(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFooterLinksRenderIcons(t *testing.T) {
	env := newTestEnv(t)
	env.expectSiteLookup("example.com", exampleRow())

	site, err := env.st.Site()
	if err != nil {
		t.Fatalf("site settings: %v", err)
	}
	site.FooterLinks = []settings.FooterLink{
		{Name: "Lookup", URL: "https://who.test/{domain}", IconClass: "fa-solid fa-magnifying-glass"},
		{Name: "Dot", URL: "https://dot.test", IconClass: `<svg viewBox="0 0 8 8"><circle r="4"/></svg>`},
	}
	if err := env.st.SaveSite(site); err != nil {
		t.Fatalf("save site settings: %v", err)
	}

	body := get(env.handler, "/").Body.String()
	for _, want := range []string{
		`<i class="fa-solid fa-magnifying-glass" aria-hidden="true"></i>`,
		`<svg viewBox="0 0 8 8"><circle r="4"/></svg>`,
		`href="https://who.test/example.com"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}
