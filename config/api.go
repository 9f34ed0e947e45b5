package config

import "fmt"

// APIConfig enables the HTTP inspection API.
type APIConfig struct {
	// Addr is the listen address; empty disables the API.
	Addr string `json:"addr"`
	// Token is the bearer token required by /api/ticks when set.
	Token string `json:"token"`
}

// Validate checks that a token is only given together with an address.
func (c APIConfig) Validate() error {
	if c.Token != "" && c.Addr == "" {
		return fmt.Errorf("token set without addr")
	}
	return nil
}
