package catalog

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DefaultLanguage = "en"

type MenuItem struct {
	ID           uuid.UUID         `json:"id" bson:"_id"`
	RestaurantID uuid.UUID         `json:"restaurant_id" bson:"restaurant_id"`
	Names        map[string]string `json:"names" bson:"names"`
	Price        decimal.Decimal   `json:"price" bson:"price"`
	Available    bool              `json:"available" bson:"available"`
	Recipe       []RecipeLine      `json:"recipe,omitempty" bson:"recipe,omitempty"`
	CreatedAt    time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at" bson:"updated_at"`
}

// RecipeLine is the amount of one ingredient consumed per unit sold.
type RecipeLine struct {
	IngredientID uuid.UUID `json:"ingredient_id" bson:"ingredient_id"`
	Quantity     float64   `json:"quantity" bson:"quantity"`
}

func NewMenuItem(restaurantID uuid.UUID, name string, price decimal.Decimal) *MenuItem {
	return &MenuItem{
		ID:           apt.GenerateNewID(),
		RestaurantID: restaurantID,
		Names:        map[string]string{DefaultLanguage: name},
		Price:        price,
		Available:    true,
	}
}

func (m *MenuItem) GetID() uuid.UUID {
	return m.ID
}

func (m *MenuItem) ResourceType() string {
	return "menu-item"
}

func (m *MenuItem) BeforeCreate() {
	if m.ID == uuid.Nil {
		m.ID = apt.GenerateNewID()
	}
	m.CreatedAt = time.Now()
	m.UpdatedAt = time.Now()
}

// DisplayName returns the name in lang, then the default language, then any name.
func (m *MenuItem) DisplayName(lang string) string {
	if n, ok := m.Names[lang]; ok && n != "" {
		return n
	}
	if n, ok := m.Names[DefaultLanguage]; ok && n != "" {
		return n
	}
	for _, n := range m.Names {
		if n != "" {
			return n
		}
	}
	return ""
}

type Ingredient struct {
	ID           uuid.UUID `json:"id" bson:"_id"`
	RestaurantID uuid.UUID `json:"restaurant_id" bson:"restaurant_id"`
	Name         string    `json:"name" bson:"name"`
	Unit         string    `json:"unit" bson:"unit"`
	Stock        float64   `json:"stock" bson:"stock"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

func NewIngredient(restaurantID uuid.UUID, name, unit string, stock float64) *Ingredient {
	return &Ingredient{
		ID:           apt.GenerateNewID(),
		RestaurantID: restaurantID,
		Name:         name,
		Unit:         unit,
		Stock:        stock,
		UpdatedAt:    time.Now(),
	}
}
