package warehouse

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"layout-inspector/constants"
)

// Carrier and Depot refer to each other; the walk visits each once and does
// not descend into the Shipments slice.
func TestCarrierNames(t *testing.T) {
	names := constants.Names(reflect.TypeFor[*Carrier]())

	assert.Equal(t, []string{
		"Name", "Shipments", "Depot",
		"Code", "Address", "Street", "City", "Carrier",
	}, names)
}
