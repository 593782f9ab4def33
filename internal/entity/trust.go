// Package entity consolidates normalized provider records into one unified
// record using a configurable trust order.
package entity

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// DefaultTrustOrder ranks providers by data fidelity: the paid government
// source first, community mirrors of the federal dump after, the
// rate-limited free tier last.
var DefaultTrustOrder = []string{"serpro", "cnpjws", "minhareceita", "brasilapi", "receitaws"}

// TrustConfig is the on-disk resolve configuration.
type TrustConfig struct {
	Order []string `yaml:"trust_order"`
}

// LoadTrustConfig reads a YAML trust-order file. A missing or empty file
// yields the default order.
func LoadTrustConfig(path string) (TrustConfig, error) {
	cfg := TrustConfig{Order: DefaultTrustOrder}
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, eris.Wrapf(err, "entity: reading trust config %s", path)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, eris.Wrapf(err, "entity: parsing trust config %s", path)
	}
	if len(cfg.Order) == 0 {
		cfg.Order = DefaultTrustOrder
	}
	return cfg, nil
}
