package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadNetworks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "networks.yaml")
	content := `devnet:
  chain_id: "421"
  api: http://devnet.example.com:8080
  ws: ws://devnet.example.com:8080/ws
staging:
  name: staging-eu
  chain_id: "422"
  api: http://staging.example.com:8080
  grpc: staging.example.com:7080
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write networks file: %v", err)
	}

	nets, err := LoadNetworks(path)
	if err != nil {
		t.Fatalf("LoadNetworks: %v", err)
	}
	if len(nets) != 2 {
		t.Fatalf("networks = %d, want 2", len(nets))
	}

	dev := nets["devnet"]
	if dev.Name != "devnet" {
		t.Errorf("missing name defaulted to %q, want map key devnet", dev.Name)
	}
	if dev.ChainID != "421" || dev.API != "http://devnet.example.com:8080" {
		t.Errorf("devnet = %+v", dev)
	}

	staging := nets["staging"]
	if staging.Name != "staging-eu" {
		t.Errorf("explicit name overridden: %q", staging.Name)
	}
	if staging.GRPC != "staging.example.com:7080" {
		t.Errorf("staging grpc = %q", staging.GRPC)
	}
}

func TestLoadNetworksRequiresChainID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "networks.yaml")
	if err := os.WriteFile(path, []byte("devnet:\n  api: http://x\n"), 0o600); err != nil {
		t.Fatalf("write networks file: %v", err)
	}
	if _, err := LoadNetworks(path); err == nil {
		t.Error("accepted a network without chain_id")
	}
}

func TestLoadNetworksMissingFile(t *testing.T) {
	if _, err := LoadNetworks(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("accepted a missing file")
	}
}

func TestConfigEndpointResolution(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   string
	}{
		{"explicit endpoint wins", Config{Endpoint: "http://node:1234", Protocol: ProtocolHTTP, Network: &MainNet}, "http://node:1234"},
		{"http from network", Config{Protocol: ProtocolHTTP, Network: &MainNet}, MainNet.API},
		{"grpc from network", Config{Protocol: ProtocolGRPC, Network: &MainNet}, MainNet.GRPC},
		{"websocket from network", Config{Protocol: ProtocolWebSocket, Network: &LocalNet}, LocalNet.WS},
		{"nil network defaults to testnet", Config{Protocol: ProtocolHTTP}, TestNet.API},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.config.endpoint(); got != tt.want {
				t.Errorf("endpoint() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBackoffDelay(t *testing.T) {
	config := &RetryConfig{InitialDelay: 100, MaxDelay: 350, BackoffMultiplier: 2.0}
	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		350 * time.Millisecond, // capped
		350 * time.Millisecond,
	}
	for attempt, w := range want {
		if got := backoffDelay(attempt, config); got != w {
			t.Errorf("backoffDelay(%d) = %v, want %v", attempt, got, w)
		}
	}
}
