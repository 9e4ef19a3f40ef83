package config

import (
	"fmt"

	"github.com/unkn0wn-root/pylon"
	"github.com/unkn0wn-root/pylon/client"
)

// ClientOptions configures a client acting as the named identity. An empty
// identity gives an open-access-only client.
func (cfg *Config) ClientOptions(identity string, log pylon.Logger) (client.Options, error) {
	opts := client.Options{
		Config: client.Config{
			BaseURL:    cfg.Client.BaseURL,
			Timeout:    cfg.Client.Timeout,
			RetryCount: cfg.Client.RetryCount,
			Logger:     log,
		},
		OpenAccessToken: cfg.Client.OpenAccessToken,
	}
	if identity == "" {
		return opts, nil
	}
	id, ok := cfg.Identities[identity]
	if !ok {
		return client.Options{}, fmt.Errorf("unknown identity %q", identity)
	}
	opts.IdentityName = identity
	opts.IdentityToken = id.Token
	return opts, nil
}
