// Package warehouse builds on store types, so its getters read fields
// declared in another package.
package warehouse

import (
	"time"

	"layout-inspector/store"
)

// Shipment delivers the lines of a store order to an address.
type Shipment struct {
	id          uint
	destination store.Address
	lines       []store.OrderItem
	carrier     *Carrier
	shippedAt   *time.Time
}

func (s *Shipment) ID() uint { return s.id }

// City reads a field of store.Address through a local field.
func (s *Shipment) City() string { return s.destination.City }

// FirstProduct indexes into the lines slice.
func (s *Shipment) FirstProduct() int64 {
	if len(s.lines) == 0 {
		return 0
	}
	return s.lines[0].ProductID
}

// Shipped calls a method on a foreign type.
func (s *Shipment) Shipped() bool {
	return s.shippedAt != nil && !s.shippedAt.IsZero()
}

func (s *Shipment) CarrierName() string { return s.carrier.Name }

// Carrier transports shipments.
type Carrier struct {
	Name      string
	Shipments []Shipment
	Depot     Depot
}

// Depot is where a carrier picks shipments up.
type Depot struct {
	Code    string
	Address store.Address
	Carrier *Carrier
}

// Pallet carries the audit trail of the store, so CreatedBy is promoted
// from another package.
type Pallet struct {
	*store.Audit

	label string
}

func (p *Pallet) Label() string { return p.label }

// Describe reads label only inside a function literal.
func (p *Pallet) Describe() string {
	describe := func() string { return p.label }
	return describe()
}
