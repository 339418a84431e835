package entities

// StructureType classifies what a building is for.
type StructureType uint8

const (
	TypeHousing StructureType = iota
	TypeEntertainment
	TypeMilitary
	TypeIndustry
	TypeMonument
	TypeReligion
	TypeEducation
	TypeHealthCare
	TypeCivilService
)

// Size is a structure footprint in cells.
type Size struct {
	Width  uint8 `json:"width"`
	Height uint8 `json:"height"`
}

// Cells returns the number of cells covered by the footprint.
func (s Size) Cells() int {
	return int(s.Width) * int(s.Height)
}

// Desirability holds the structure's influence on six concentric rings
// around its footprint, innermost first.
type Desirability [6]int8

// StructureProperties are the immutable attributes of a building.
type StructureProperties struct {
	Name          string        `json:"name"`
	Size          Size          `json:"size"`
	MaxEmployees  uint8         `json:"max_employees"`
	Cost          uint32        `json:"cost"`
	Desirability  Desirability  `json:"desirability"`
	StructureType StructureType `json:"structure_type"`
}

// Risk tracks accumulated hazards of a building.
type Risk struct {
	Fire   uint8 `json:"fire"`
	Damage uint8 `json:"damage"`
}

// StructureState is the mutable part of a building.
type StructureState struct {
	CurrentEmployees uint8             `json:"current_employees"`
	Commodities      map[string]uint32 `json:"commodities"`
	Risk             Risk              `json:"risk"`
}

// Structure is a building. It may own a Producer.
type Structure struct {
	Props    StructureProperties `json:"props"`
	State    StructureState      `json:"state"`
	Producer Producer            `json:"-"`
}

func (*Structure) Kind() Kind { return KindStructure }

func (s *Structure) Clone() Entity {
	c := *s
	c.State.Commodities = cloneCommodities(s.State.Commodities)
	if s.Producer != nil {
		c.Producer = s.Producer.Clone()
	}
	return &c
}

// Footprint returns the structure size, treating a zero dimension as one cell.
func (s *Structure) Footprint() Size {
	size := s.Props.Size
	if size.Width == 0 {
		size.Width = 1
	}
	if size.Height == 0 {
		size.Height = 1
	}
	return size
}

// Staffed reports whether every position in the building is filled.
func (s *Structure) Staffed() bool {
	return s.State.CurrentEmployees >= s.Props.MaxEmployees
}
