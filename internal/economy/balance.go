package economy

// Pressure bounds. Demand never reads as less than a quarter of supply or
// more than four times it.
const (
	pressureFloor   = 0.25
	pressureCeiling = 4.0
	minSupply       = 1.0
)

// Balance is a point-in-time summary of one commodity.
type Balance struct {
	Commodity string `json:"commodity"`
	Required  uint64 `json:"required"`
	Available uint64 `json:"available"`
	InTransit uint64 `json:"in_transit"`
	Used      uint64 `json:"used"`
	Lost      uint64 `json:"lost"`
	Producers int    `json:"producers"`
	Consumers int    `json:"consumers"`
}

// Balance summarizes commodity from live entries only.
func (x *Exchange) Balance(commodity string) Balance {
	return Balance{
		Commodity: commodity,
		Required:  x.AmountRequiredOf(commodity),
		Available: x.AmountAvailableOf(commodity),
		InTransit: x.AmountInTransitOf(commodity),
		Used:      x.AmountUsedOf(commodity),
		Lost:      x.AmountLostOf(commodity),
		Producers: len(x.ProducersOf(commodity)),
		Consumers: len(x.ConsumersOf(commodity)),
	}
}

// Balances summarizes every known commodity, sorted by name.
func (x *Exchange) Balances() []Balance {
	names := x.Commodities()
	result := make([]Balance, 0, len(names))
	for _, name := range names {
		result = append(result, x.Balance(name))
	}
	return result
}

// Pressure is the ratio of demand to supply, where supply counts stock and
// goods in transit. Bounded by a floor and a ceiling so that an empty market
// does not read as infinite demand.
func (b Balance) Pressure() float64 {
	supply := float64(b.Available + b.InTransit)
	if supply < minSupply {
		supply = minSupply // prevent division by zero
	}

	p := float64(b.Required) / supply
	if p < pressureFloor {
		p = pressureFloor
	}
	if p > pressureCeiling {
		p = pressureCeiling
	}
	return p
}

// Shortfall is the demand not covered by stock or goods in transit.
func (b Balance) Shortfall() uint64 {
	supply := b.Available + b.InTransit
	if b.Required <= supply {
		return 0
	}
	return b.Required - supply
}
