package booking

import "strings"

// Pricing is the flat per-booking price table. Duration never changes the charge.
type Pricing struct {
	Default  float64
	Services map[string]float64
}

// ChargeFor returns the configured price for the service label, matched case-insensitively.
func (p Pricing) ChargeFor(service string) float64 {
	if service == "" {
		return p.Default
	}
	if price, ok := p.Services[service]; ok {
		return price
	}
	for label, price := range p.Services {
		if strings.EqualFold(label, service) {
			return price
		}
	}
	return p.Default
}
