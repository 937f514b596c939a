// internal/whois/bootstrap.go
//
// IANA RDAP bootstrap handling.  The registry publishes a TLD to base
// URL mapping at data.iana.org; it changes rarely, so a 24 hour on-disk
// cache keeps lookups off the network.  A stale cache is still used when
// a refresh fails, which matters because IANA outages and registry
// outages tend to coincide.
package whois

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultBootstrapURL is the IANA RDAP bootstrap registry for DNS.
	DefaultBootstrapURL = "https://data.iana.org/rdap/dns.json"

	bootstrapCacheFile = "rdap_dns_bootstrap_cache.json"
	bootstrapMaxAge    = 24 * time.Hour
)

// bootstrap mirrors the registry document shape.  Each service entry is
// a pair of arrays: TLDs first, base URLs second.
type bootstrap struct {
	Services [][][]string `json:"services"`
}

// baseFor returns the RDAP base URL serving tld, or "".
func (b *bootstrap) baseFor(tld string) string {
	tld = strings.ToLower(tld)
	for _, svc := range b.Services {
		if len(svc) < 2 {
			continue
		}
		for _, t := range svc[0] {
			if strings.ToLower(t) == tld {
				if len(svc[1]) > 0 {
					return svc[1][0]
				}
				return ""
			}
		}
	}
	return ""
}

func (c *Client) cachePath() string {
	return filepath.Join(c.dataDir, bootstrapCacheFile)
}

func (c *Client) readCache(maxAge time.Duration) *bootstrap {
	path := c.cachePath()
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	if maxAge > 0 && c.now().Sub(info.ModTime()) >= maxAge {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var b bootstrap
	if err := json.Unmarshal(raw, &b); err != nil || len(b.Services) == 0 {
		return nil
	}
	return &b
}

// loadBootstrap returns the cached registry when fresh, refreshes it
// otherwise, and falls back to a stale cache as a last resort.
func (c *Client) loadBootstrap(ctx context.Context) (*bootstrap, error) {
	if b := c.readCache(bootstrapMaxAge); b != nil {
		return b, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.bootstrapURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			var b bootstrap
			if decErr := json.NewDecoder(resp.Body).Decode(&b); decErr == nil && len(b.Services) > 0 {
				if raw, mErr := json.MarshalIndent(b, "", "  "); mErr == nil {
					_ = os.WriteFile(c.cachePath(), raw, 0o644)
				}
				return &b, nil
			}
		}
	}

	if b := c.readCache(0); b != nil {
		return b, nil
	}
	return nil, fmt.Errorf("whois: rdap bootstrap unavailable")
}
