package config

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// SiteTokens maps a campus site URL to the bearer token used against its APIs
type SiteTokens map[string]string

// ParseSiteTokens parses "site;token,site;token" into a SiteTokens map.
// Every malformed entry is reported, not only the first one.
func ParseSiteTokens(raw string) (SiteTokens, error) {
	tokens := SiteTokens{}
	var result *multierror.Error

	for i, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		site, token, found := strings.Cut(entry, ";")
		if !found {
			result = multierror.Append(result, fmt.Errorf("entry %d: missing ';' delimiter", i+1))
			continue
		}

		site = NormalizeSite(site)
		token = strings.TrimSpace(token)
		switch {
		case site == "":
			result = multierror.Append(result, fmt.Errorf("entry %d: empty site", i+1))
			continue
		case token == "":
			result = multierror.Append(result, fmt.Errorf("entry %d: empty token for %s", i+1, site))
			continue
		}

		if _, dup := tokens[site]; dup {
			result = multierror.Append(result, fmt.Errorf("entry %d: duplicate site %s", i+1, site))
			continue
		}
		tokens[site] = token
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return tokens, nil
}

// Lookup returns the token for a site, ignoring a trailing slash
func (t SiteTokens) Lookup(site string) (string, bool) {
	token, ok := t[NormalizeSite(site)]
	return token, ok
}
