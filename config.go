package demiurge

import (
	"os"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultEndpoint is the RPC address of a locally running node.
	DefaultEndpoint = "http://127.0.0.1:8545/rpc"

	// EnvEndpoint overrides the endpoint at startup when set.
	EnvEndpoint = "DEMIURGE_RPC_URL"
)

// Config carries the client configuration. The endpoint is the only
// required setting.
type Config struct {
	Endpoint string `validate:"required,url"`
}

var validate = validator.New()

// Validate checks the configuration.
func (c Config) Validate() error {
	return validate.Struct(c)
}

// ConfigFromEnv builds a Config from the DEMIURGE_RPC_URL environment
// variable, falling back to DefaultEndpoint.
func ConfigFromEnv() Config {
	endpoint := os.Getenv(EnvEndpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return Config{Endpoint: endpoint}
}
