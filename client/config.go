package client

// Config selects and tunes a provider transport.
type Config struct {
	// Endpoint is the node address. When empty, the Network's endpoint
	// for the chosen protocol is used.
	Endpoint string

	// Protocol selects the transport.
	Protocol Protocol

	// Network identifies the chain (endpoints, chain id). Defaults to
	// TestNet.
	Network *Network

	// Timeout is the per-request timeout in seconds.
	Timeout int

	// Retry configures retry/backoff for transient transport failures.
	// Nil selects DefaultRetryConfig; to disable retries entirely set
	// MaxRetries to 0.
	Retry *RetryConfig

	// Debug enables request/response logging through Logger.
	Debug bool

	// Logger receives transport diagnostics. Nil means silent.
	Logger Logger
}

// Protocol is a provider transport selector.
type Protocol string

const (
	ProtocolHTTP      Protocol = "http"
	ProtocolGRPC      Protocol = "grpc"
	ProtocolWebSocket Protocol = "websocket"
)

// DefaultConfig returns an HTTP configuration against the public testnet.
func DefaultConfig() *Config {
	return &Config{
		Protocol: ProtocolHTTP,
		Network:  &TestNet,
		Timeout:  30,
	}
}

// endpoint resolves the effective endpoint for the configured protocol.
func (c *Config) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	n := c.Network
	if n == nil {
		n = &TestNet
	}
	switch c.Protocol {
	case ProtocolGRPC:
		return n.GRPC
	case ProtocolWebSocket:
		return n.WS
	default:
		return n.API
	}
}

// chainID resolves the configured chain id.
func (c *Config) chainID() string {
	if c.Network != nil {
		return c.Network.ChainID
	}
	return TestNet.ChainID
}
