package model

// Flag is a category tag from the static catalog. Tasks reference flags
// through a membership set; the catalog itself is loaded once per process.
type Flag struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Label      string `gorm:"not null" json:"label"`
	Color      string `gorm:"not null" json:"color"`
	Background string `gorm:"not null" json:"background"`
}

// FlagCatalog is the process-wide flag lookup table.
type FlagCatalog struct {
	byID map[uint]Flag
	all  []Flag
}

func NewFlagCatalog(flags []Flag) *FlagCatalog {
	c := &FlagCatalog{byID: make(map[uint]Flag, len(flags)), all: flags}
	for _, f := range flags {
		c.byID[f.ID] = f
	}
	return c
}

// Get returns the catalog entry for id, or a neutral "unknown" entry for
// ids absent from the catalog.
func (c *FlagCatalog) Get(id uint) Flag {
	if f, ok := c.byID[id]; ok {
		return f
	}
	return Flag{ID: id, Label: "unknown", Color: "#ffffff", Background: "#9e9e9e"}
}

func (c *FlagCatalog) All() []Flag {
	return c.all
}
