package display

import (
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"golang.org/x/text/language"
)

const (
	LangEnglish   = "en"
	LangNorwegian = "no"
)

// Normalize maps a requested language onto one the catalog carries. Bokmål, Nynorsk and regional
// Norwegian tags collapse to "no"; anything else, including garbage, is English.
func Normalize(lang string) string {
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		return LangEnglish
	}
	base, _ := tag.Base()
	switch base.String() {
	case "no", "nb", "nn":
		return LangNorwegian
	default:
		return LangEnglish
	}
}

// Resolve picks the requested language when it is non-blank, otherwise the English value as stored.
func Resolve(text types.LocalizedText, lang string) string {
	if Normalize(lang) == LangNorwegian && strings.TrimSpace(text.No) != "" {
		return text.No
	}
	return text.En
}

// LineItem maps a catalog product to the cart's line item shape. Name and description fall back
// independently. Quantity is left for the cart to set.
func LineItem(p catalog.Product, lang string) cart.LineItem {
	return cart.LineItem{
		ID:          cart.ProductID(p.ID),
		Name:        Resolve(p.Name, lang),
		Description: Resolve(p.Description, lang),
		Price:       p.Price.InexactFloat64(),
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
	}
}

// ProductView is a catalog product rendered in one language.
type ProductView struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       string  `json:"price"`
	Stock       *int    `json:"stock,omitempty"`
	ImageURL    *string `json:"image_url"`
	Lang        string  `json:"lang"`
}

func Product(p catalog.Product, lang string) ProductView {
	return ProductView{
		ID:          p.ID,
		Name:        Resolve(p.Name, lang),
		Description: Resolve(p.Description, lang),
		Price:       p.Price.StringFixed(2),
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		Lang:        Normalize(lang),
	}
}
