package domain

import "github.com/shopspring/decimal"

// Item is a stock-keeping unit whose on-hand quantity is reserved during scheduling.
type Item struct {
	ID            int64
	Name          string
	SKU           string
	Description   string
	Quantity      int
	UnitPrice     decimal.Decimal
	PackageVolume float64
}

// Truck is a fleet vehicle that serves at most one delivery per date.
type Truck struct {
	ID              int64
	ChassisNumber   string
	LicensePlate    string
	ContainerVolume float64
	Available       bool
	DriverName      string
	Notes           string
}

// Capacity sums the container volume of trucks.
func Capacity(trucks []Truck) float64 {
	var total float64
	for _, t := range trucks {
		total += t.ContainerVolume
	}
	return total
}
