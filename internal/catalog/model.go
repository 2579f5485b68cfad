package catalog

import "github.com/google/uuid"

type Tag struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Color     string    `json:"color"`
	ColorName string    `json:"color_name"`
}

type Activity struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
}

type Location struct {
	ID           uuid.UUID `json:"id"`
	Country      string    `json:"country"`
	City         string    `json:"city"`
	Street       string    `json:"street"`
	HouseNumber  int       `json:"house_number"`
	Building     *string   `json:"building"`
	OfficeNumber *int      `json:"office_number"`
}

// LocationInput is a new address submitted with a service.
type LocationInput struct {
	Country      string  `json:"country" validate:"required,max=50"`
	City         string  `json:"city" validate:"required,max=50"`
	Street       string  `json:"street" validate:"required,max=100"`
	HouseNumber  int     `json:"house_number" validate:"min=1"`
	Building     *string `json:"building" validate:"omitnil,max=1"`
	OfficeNumber *int    `json:"office_number" validate:"omitnil,min=1"`
}

type ActivityFilter struct {
	NamePrefix string
	Slugs      []string
}
