package client

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Network names a chain and the public endpoints of a node serving it. The
// chain id doubles as the replay-protection discriminator carried inside
// every transaction.
type Network struct {
	Name    string `yaml:"name" json:"name"`
	ChainID string `yaml:"chain_id" json:"chainId"`
	API     string `yaml:"api" json:"api"`
	WS      string `yaml:"ws" json:"ws,omitempty"`
	GRPC    string `yaml:"grpc" json:"grpc,omitempty"`
}

// Built-in networks.
var (
	MainNet = Network{
		Name:    "mainnet",
		ChainID: "108",
		API:     "https://api.mainnet.klever.finance",
		WS:      "wss://api.mainnet.klever.finance/ws",
		GRPC:    "node.mainnet.klever.finance:8080",
	}

	TestNet = Network{
		Name:    "testnet",
		ChainID: "109",
		API:     "https://api.testnet.klever.finance",
		WS:      "wss://api.testnet.klever.finance/ws",
		GRPC:    "node.testnet.klever.finance:8080",
	}

	LocalNet = Network{
		Name:    "local",
		ChainID: "420",
		API:     "http://localhost:8080",
		WS:      "ws://localhost:8080/ws",
		GRPC:    "localhost:7080",
	}
)

// LoadNetworks reads custom network definitions from a YAML file keyed by
// network name:
//
//	devnet:
//	  chain_id: "421"
//	  api: http://devnet.example.com:8080
func LoadNetworks(path string) (map[string]Network, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read networks file: %w", err)
	}
	nets := make(map[string]Network)
	if err := yaml.Unmarshal(raw, &nets); err != nil {
		return nil, fmt.Errorf("parse networks file: %w", err)
	}
	for name, n := range nets {
		if n.Name == "" {
			n.Name = name
			nets[name] = n
		}
		if n.ChainID == "" {
			return nil, fmt.Errorf("network %q: chain_id is required", name)
		}
	}
	return nets, nil
}
