package entities

// ResourceProperties are the immutable attributes of a deposit.
type ResourceProperties struct {
	Name      string `json:"name"`
	MaxAmount uint32 `json:"max_amount"`
	// Replenish is added back after every production; 0 means the deposit never recovers.
	Replenish uint32 `json:"replenish_amount"`
}

// ResourceState is the mutable part of a deposit.
type ResourceState struct {
	CurrentAmount uint32 `json:"current_amount"`
}

// Resource is a harvestable deposit. It may own a Producer.
type Resource struct {
	Props    ResourceProperties `json:"props"`
	State    ResourceState      `json:"state"`
	Producer Producer           `json:"-"`
}

func (*Resource) Kind() Kind { return KindResource }

func (r *Resource) Clone() Entity {
	c := *r
	if r.Producer != nil {
		c.Producer = r.Producer.Clone()
	}
	return &c
}

// Extract removes up to amount from the stock and then replenishes,
// never exceeding MaxAmount.
func (r *Resource) Extract(amount uint32) {
	if r.State.CurrentAmount >= amount {
		r.State.CurrentAmount -= amount
	} else {
		r.State.CurrentAmount = 0
	}

	if r.Props.Replenish > 0 {
		if r.State.CurrentAmount >= r.Props.MaxAmount ||
			r.Props.Replenish >= r.Props.MaxAmount-r.State.CurrentAmount {
			r.State.CurrentAmount = r.Props.MaxAmount
		} else {
			r.State.CurrentAmount += r.Props.Replenish
		}
	}
}
