// internal/whois/fallback.go
//
// Classic WHOIS fallback used when RDAP cannot answer.  The likexian
// client handles server discovery and referral chasing; the parser
// normalizes the freeform response into fields.
package whois

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	likwhois "github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
)

// classicWhois ignores ctx beyond cancellation checks; the likexian
// client carries its own timeout.
func (c *Client) classicWhois(ctx context.Context, dom string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	client := likwhois.NewClient()
	client.SetTimeout(10 * time.Second)

	raw, err := client.Whois(dom)
	if err != nil {
		return Result{}, fmt.Errorf("whois: query: %w", err)
	}

	info, err := whoisparser.Parse(raw)
	if err != nil {
		if errors.Is(err, whoisparser.ErrNotFoundDomain) {
			return Result{Domain: dom, Available: true}, nil
		}
		return Result{}, fmt.Errorf("whois: parse: %w", err)
	}

	out := Result{Domain: dom}
	if info.Registrar != nil {
		out.Registrar = info.Registrar.Name
	}
	if info.Domain != nil {
		out.Created = normalizeDate(info.Domain.CreatedDate)
		out.Expires = normalizeDate(info.Domain.ExpirationDate)
		out.Updated = normalizeDate(info.Domain.UpdatedDate)
		out.Status = strings.Join(info.Domain.Status, ", ")
		out.Nameservers = cleanNameservers(info.Domain.NameServers)
	}
	return out, nil
}
