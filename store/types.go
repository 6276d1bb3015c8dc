// Package store holds a small domain model used to exercise the inspector
// end to end: its types keep state in unexported fields behind getters.
package store

import (
	"time"
)

// Person is the smallest reference type with two getters.
type Person struct {
	name string
	age  int
}

// NewPerson creates a Person.
func NewPerson(name string, age int) *Person {
	return &Person{name: name, age: age}
}

func (p *Person) Name() string { return p.name }

func (p *Person) Age() int { return p.age }

// Product is an item available for sale. Prices are in cents.
type Product struct {
	id         int64
	sku        string
	name       string
	priceCents int64
	inventory  int
	createdAt  time.Time
}

func (p *Product) ID() int64 { return p.id }

func (p *Product) SKU() string { return p.sku }

func (p *Product) Name() string { return p.name }

func (p *Product) PriceCents() int64 { return p.priceCents }

// InStock compares against a constant and reads one field.
func (p *Product) InStock() bool { return p.inventory > 0 }

// Label reads two fields.
func (p *Product) Label() string {
	return p.sku + " " + p.name
}

func (p *Product) CreatedAt() time.Time { return p.createdAt }

// Address is reached from Customer through a pointer.
type Address struct {
	Street string
	City   string
}

// Customer places orders.
type Customer struct {
	id       int64
	email    string
	fullName string
	address  *Address
	active   bool
}

func (c *Customer) ID() int64 { return c.id }

func (c *Customer) Email() string { return c.email }

func (c *Customer) FullName() string { return c.fullName }

// City guards against a missing address.
func (c *Customer) City() string {
	if c.address == nil {
		return ""
	}
	return c.address.City
}

// isActive is unexported and still a getter.
func (c *Customer) isActive() bool { return c.active }

// SetEmail takes a parameter and is not a getter.
func (c *Customer) SetEmail(email string) { c.email = email }

// Audit is embedded into Order.
type Audit struct {
	createdBy string
	version   int
}

func (a *Audit) CreatedBy() string { return a.createdBy }

// Order is a transaction made by a customer.
type Order struct {
	Audit

	id        int64
	customer  *Customer
	status    OrderStatus
	items     []OrderItem
	orderedAt time.Time
}

func (o *Order) ID() int64 { return o.id }

// Version reads a field promoted from the embedded Audit.
func (o *Order) Version() int { return o.version }

// CustomerName calls a getter of another type.
func (o *Order) CustomerName() string {
	return o.customer.FullName()
}

// TotalCents sums the order lines.
func (o *Order) TotalCents() int64 {
	var total int64
	for _, it := range o.items {
		total += it.UnitPrice * int64(it.Quantity)
	}
	return total
}

// Status maps the cancelled state onto pending for display.
func (o *Order) Status() OrderStatus {
	switch o.status {
	case StatusCancelled:
		return StatusPending
	default:
		return o.status
	}
}

func (o *Order) OrderedAt() time.Time { return o.orderedAt }

// OrderItem is a product line within an order. It snapshots the price at
// the time of purchase.
type OrderItem struct {
	ProductID int64
	Name      string
	Quantity  int
	UnitPrice int64
}

// OrderStatus is the lifecycle state of an Order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPaid      OrderStatus = "PAID"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// Point is a value type; only *Point can be inspected.
type Point struct {
	X, Y int
}
