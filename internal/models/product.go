package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VariantCombination holds the stock for one specific (size, color) pairing,
// distinct from the product-level stock count.
type VariantCombination struct {
	Size  string `bson:"size" json:"size"`
	Color string `bson:"color" json:"color"`
	Stock int    `bson:"stock" json:"stock"`
}

type Product struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Slug          string               `bson:"slug" json:"slug"`
	Name          string               `bson:"name" json:"name"`
	NameAr        string               `bson:"nameAr" json:"nameAr"`
	Description   string               `bson:"description,omitempty" json:"description,omitempty"`
	DescriptionAr string               `bson:"descriptionAr,omitempty" json:"descriptionAr,omitempty"`
	Price         float64              `bson:"price" json:"price"`
	SaleEnabled   bool                 `bson:"saleEnabled" json:"saleEnabled"`
	SalePrice     float64              `bson:"salePrice" json:"salePrice"`
	IsOnSale      bool                 `bson:"-" json:"isOnSale"`
	Category      StringList           `bson:"category" json:"category"`
	Sizes         []string             `bson:"sizes,omitempty" json:"sizes,omitempty"`
	Colors        []string             `bson:"colors,omitempty" json:"colors,omitempty"`
	Variants      []VariantCombination `bson:"variants,omitempty" json:"variants,omitempty"`
	ImagePath     string               `bson:"imagePath,omitempty" json:"imagePath,omitempty"`
	Stock         int                  `bson:"stock" json:"stock"`
	InStock       bool                 `bson:"-" json:"inStock"`
	IsActive      bool                 `bson:"isActive" json:"isActive"`
	IsFeatured    bool                 `bson:"isFeatured" json:"isFeatured"`
	IsDeleted     bool                 `bson:"isDeleted" json:"isDeleted,omitempty"`
	DeletedAt     *time.Time           `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
}

// VariantStock returns the stock for the given size/color pair and whether a
// matching variant combination exists. Empty size and color never match.
func (p Product) VariantStock(size, color string) (int, bool) {
	if size == "" && color == "" {
		return 0, false
	}
	for _, v := range p.Variants {
		if v.Size == size && v.Color == color {
			return v.Stock, true
		}
	}
	return 0, false
}
