// internal/whois/client.go
//
// Domain registration lookups for /api/whois.
//
// Context
// -------
// RDAP is the primary source: free, structured JSON straight from the
// registries, discovered through the IANA bootstrap file.  When RDAP
// cannot answer (no server for the TLD, network failure, unparseable
// response) the client falls back once to a classic WHOIS query through
// the likexian client and parser.
//
// Notes
// -----
// A 404, or an RDAP body carrying errorCode 404, means the name is not
// registered and is reported as available rather than as an error.
package whois

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gentpan/NameDeal/internal/domain"
)

// Result is the JSON payload served to the public API.
type Result struct {
	Domain      string   `json:"domain"`
	Available   bool     `json:"available,omitempty"`
	Registrar   string   `json:"registrar,omitempty"`
	Created     string   `json:"created,omitempty"`
	Expires     string   `json:"expires,omitempty"`
	Updated     string   `json:"updated,omitempty"`
	Status      string   `json:"status,omitempty"`
	Nameservers []string `json:"nameservers,omitempty"`
}

// Client performs RDAP lookups with a WHOIS fallback.
type Client struct {
	http         *http.Client
	dataDir      string
	bootstrapURL string
	now          func() time.Time

	fallback func(ctx context.Context, dom string) (Result, error)
}

// New returns a Client caching bootstrap data under dataDir.
func New(dataDir string) *Client {
	c := &Client{
		http:         &http.Client{Timeout: 10 * time.Second},
		dataDir:      dataDir,
		bootstrapURL: DefaultBootstrapURL,
		now:          time.Now,
	}
	c.fallback = c.classicWhois
	return c
}

var (
	schemePrefix = regexp.MustCompile(`(?i)^https?://`)
	portSuffix   = regexp.MustCompile(`:\d+$`)
)

// NormalizeQuery reduces user input to a bare lowercase domain name.
func NormalizeQuery(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = schemePrefix.ReplaceAllString(s, "")
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	return portSuffix.ReplaceAllString(s, "")
}

// Lookup answers for dom, which must already be normalized and valid.
func (c *Client) Lookup(ctx context.Context, dom string) (Result, error) {
	if !domain.Valid(dom) {
		return Result{}, fmt.Errorf("whois: invalid domain %q", dom)
	}
	res, err := c.rdap(ctx, dom)
	if err == nil {
		return res, nil
	}
	return c.fallback(ctx, dom)
}

/*─────────────────────────────── RDAP ────────────────────────────────*/

// rdapDomain is the subset of the RDAP domain object we read.
type rdapDomain struct {
	ErrorCode   int          `json:"errorCode"`
	LDHName     string       `json:"ldhName"`
	Status      []string     `json:"status"`
	Entities    []rdapEntity `json:"entities"`
	Events      []rdapEvent  `json:"events"`
	Nameservers []struct {
		LDHName     string `json:"ldhName"`
		UnicodeName string `json:"unicodeName"`
	} `json:"nameservers"`
}

type rdapEntity struct {
	Handle     string          `json:"handle"`
	Roles      []string        `json:"roles"`
	VCardArray json.RawMessage `json:"vcardArray"`
	Entities   []rdapEntity    `json:"entities"`
}

type rdapEvent struct {
	Action string `json:"eventAction"`
	Date   string `json:"eventDate"`
}

func (c *Client) rdap(ctx context.Context, dom string) (Result, error) {
	tld := dom[strings.LastIndexByte(dom, '.')+1:]
	boot, err := c.loadBootstrap(ctx)
	if err != nil {
		return Result{}, err
	}
	base := boot.baseFor(tld)
	if base == "" {
		return Result{}, fmt.Errorf("whois: no rdap server for .%s", tld)
	}

	u := strings.TrimRight(base, "/") + "/domain/" + url.PathEscape(dom)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Accept", "application/rdap+json, application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("whois: rdap request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Result{Domain: dom, Available: true}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("whois: rdap status %d", resp.StatusCode)
	}

	var body rdapDomain
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Result{}, fmt.Errorf("whois: rdap decode: %w", err)
	}
	if body.ErrorCode == http.StatusNotFound {
		return Result{Domain: dom, Available: true}, nil
	}

	out := Result{
		Domain:      strings.ToLower(body.LDHName),
		Registrar:   registrarFrom(body.Entities),
		Created:     normalizeDate(eventDate(body.Events, "registration", "registered")),
		Expires:     normalizeDate(eventDate(body.Events, "expiration", "expiry", "expires")),
		Updated:     normalizeDate(eventDate(body.Events, "last changed", "last update of rdap database", "updated")),
		Status:      strings.Join(body.Status, ", "),
		Nameservers: cleanNameservers(nameserverNames(body)),
	}
	if out.Domain == "" {
		out.Domain = dom
	}
	return out, nil
}

func nameserverNames(body rdapDomain) []string {
	names := make([]string, 0, len(body.Nameservers))
	for _, ns := range body.Nameservers {
		name := ns.LDHName
		if name == "" {
			name = ns.UnicodeName
		}
		names = append(names, name)
	}
	return names
}

// registrarFrom walks entities, then sub-entities, for the registrar
// role and returns its vCard fn/org (or handle as a last resort).
func registrarFrom(entities []rdapEntity) string {
	for _, e := range entities {
		if !hasRole(e.Roles, "registrar") {
			continue
		}
		if name := vcardValue(e.VCardArray, "fn", "org"); name != "" {
			return name
		}
		if e.Handle != "" {
			return e.Handle
		}
	}
	for _, e := range entities {
		if name := registrarFrom(e.Entities); name != "" {
			return name
		}
	}
	return ""
}

func hasRole(roles []string, want string) bool {
	for _, r := range roles {
		if strings.EqualFold(r, want) {
			return true
		}
	}
	return false
}

// vcardValue digs the text value of the first matching property out of
// a jCard array.  The jCard shape is ["vcard", [[name, params, type,
// value], ...]].
func vcardValue(raw json.RawMessage, keys ...string) string {
	if len(raw) == 0 {
		return ""
	}
	var card []json.RawMessage
	if err := json.Unmarshal(raw, &card); err != nil || len(card) < 2 {
		return ""
	}
	var props [][]json.RawMessage
	if err := json.Unmarshal(card[1], &props); err != nil {
		return ""
	}
	for _, prop := range props {
		if len(prop) < 4 {
			continue
		}
		var name string
		if err := json.Unmarshal(prop[0], &name); err != nil {
			continue
		}
		for _, k := range keys {
			if strings.EqualFold(name, k) {
				var val string
				if err := json.Unmarshal(prop[3], &val); err == nil {
					if v := strings.TrimSpace(val); v != "" {
						return v
					}
				}
			}
		}
	}
	return ""
}

func eventDate(events []rdapEvent, actions ...string) string {
	for _, ev := range events {
		for _, a := range actions {
			if strings.EqualFold(ev.Action, a) {
				return ev.Date
			}
		}
	}
	return ""
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// normalizeDate reduces a timestamp to YYYY-MM-DD, passing through
// values it cannot parse.
func normalizeDate(v string) string {
	if v == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC().Format("2006-01-02")
		}
	}
	return v
}

// Placeholder strings some registries return instead of omitting the
// nameserver record.
var invalidNameservers = map[string]bool{
	"not.defined": true,
	"undefined":   true,
	"unknown":     true,
	"none":        true,
	"n/a":         true,
	"null":        true,
	"-":           true,
}

// cleanNameservers lowercases, dedupes, and drops placeholder values.
func cleanNameservers(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(n)), ".")
		if n == "" || invalidNameservers[n] || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
