package health

import (
	"context"
	"errors"
)

// Probe checks one tracked item.
type Probe struct {
	Category HealthCategory
	ID       string
	Name     string
	Check    func(ctx context.Context) error
}

// Checker runs a fixed set of probes and records their outcome.
type Checker struct {
	svc    *Service
	probes []Probe
}

// NewChecker registers every probe's item with svc.
func NewChecker(svc *Service, probes ...Probe) *Checker {
	for _, p := range probes {
		svc.RegisterItem(p.Category, p.ID, p.Name)
	}
	return &Checker{svc: svc, probes: probes}
}

// Run executes all probes. Probe failures are recorded, and returned joined
// so a scheduled run shows up as failed.
func (c *Checker) Run(ctx context.Context) error {
	var errs []error
	for _, p := range c.probes {
		err := p.Check(ctx)
		c.svc.Report(p.Category, p.ID, err)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
