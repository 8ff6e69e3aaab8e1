package cmd

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseOrigins parses a comma-separated CORS origin list such as
// "https://app.example,http://localhost:3000". A lone "*" allows any origin.
func ParseOrigins(spec string) ([]string, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}

	specs := strings.Split(spec, ",")
	origins := make([]string, 0, len(specs))

	for _, origin := range specs {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			origins = append(origins, origin)
			continue
		}

		u, err := url.Parse(origin)
		if err != nil {
			return nil, fmt.Errorf("invalid origin '%s': %w", origin, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("invalid origin '%s': expected http or https scheme", origin)
		}
		if u.Host == "" || (u.Path != "" && u.Path != "/") || u.RawQuery != "" {
			return nil, fmt.Errorf("invalid origin '%s': expected scheme://host[:port]", origin)
		}

		origins = append(origins, u.Scheme+"://"+u.Host)
	}

	return origins, nil
}
