package config

import (
	"github.com/plumemail/netkit/httpclient"
	"github.com/plumemail/netkit/logger"
)

// RestClientConfig converts the loaded configuration into the HTTP client's
// config. Callback and transport fields stay zero; the application wires
// those at construction time.
func (c *Config) RestClientConfig() httpclient.Config {
	return httpclient.Config{
		BaseURL:            c.Client.BaseURL,
		Timeout:            c.Client.Timeout,
		MaxRetries:         c.Client.MaxRetries,
		RetryBaseDelay:     c.Client.RetryBaseDelay,
		RetryMaxDelay:      c.Client.RetryMaxDelay,
		CacheTTL:           c.Cache.TTL,
		CacheMaxEntries:    c.Cache.MaxEntries,
		CachePathTTLs:      c.Cache.PathTTLs,
		RefreshPath:        c.Auth.RefreshPath,
		SkipAuthPaths:      c.Auth.SkipPaths,
		OrganizationHeader: c.Auth.OrganizationHeader,
	}
}

// NewLogger builds the logger selected by the log section.
func (c *Config) NewLogger() logger.Logger {
	return logger.New(c.Log.Level, c.Log.Pretty)
}
