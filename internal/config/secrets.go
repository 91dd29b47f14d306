package config

import (
	"net/url"
	"sort"
	"strings"
)

const redacted = "***"

// RedactedConfig returns a copy of cfg with secrets replaced by "***", for
// logging the active configuration.
func RedactedConfig(cfg *Config) Config {
	out := *cfg

	redact(&out.API.APIKey)
	redact(&out.Storage.PostgresDSN)
	redact(&out.Storage.ClickhouseDSN)

	// endpoints may carry provider keys in the query string
	out.RPC.Endpoints = make([]string, len(cfg.RPC.Endpoints))
	for i, e := range cfg.RPC.Endpoints {
		out.RPC.Endpoints[i] = RedactURL(e)
	}
	out.RPC.WSEndpoint = RedactURL(cfg.RPC.WSEndpoint)

	if cfg.Rotation.Keywords != nil {
		out.Rotation.Keywords = append([]string(nil), cfg.Rotation.Keywords...)
	}

	return out
}

// RedactURL masks query values and userinfo passwords in raw.
// Unparseable input is returned unchanged.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	if u.RawQuery != "" {
		q := u.Query()
		keys := make([]string, 0, len(q))
		for k := range q {
			keys = append(keys, url.QueryEscape(k)+"="+redacted)
		}
		sort.Strings(keys)
		u.RawQuery = strings.Join(keys, "&")
	}
	return u.Redacted()
}

func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
