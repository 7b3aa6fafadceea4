package model

// Resource is an assignable person from the directory.
type Resource struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`
	Role string `json:"role"`
}
