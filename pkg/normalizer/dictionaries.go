package normalizer

import (
	"encoding/json"
	"os"
)

// Sentinel values used when a source record carries no usable brand or
// category, so downstream matching always has a comparable value.
const (
	BrandUnknown          = "unknown"
	CategoryUncategorized = "uncategorized"
)

// Dictionaries is the immutable cleaning configuration injected into a
// Normalizer at construction. It is loaded once; nothing mutates it afterwards.
type Dictionaries struct {
	// Typos maps known misspellings to their correction (whole words only)
	Typos map[string]string `json:"typos"`
	// Units maps unit spellings/abbreviations to a canonical suffix
	Units map[string]string `json:"units"`
	// PromoPhrases are boilerplate marketing fragments stripped from names
	PromoPhrases []string `json:"promo_phrases"`
	// BrandAliases maps alternate brand spellings (incl. transliterations)
	// to the canonical brand, keyed lowercase
	BrandAliases map[string]string `json:"brand_aliases"`
	// CategoryKeywords maps a canonical category to keywords that imply it
	CategoryKeywords map[string][]string `json:"category_keywords"`
	// CategoryAliases maps alternate category spellings to the canonical one
	CategoryAliases map[string]string `json:"category_aliases"`

	MaxDescriptionLength    int     `json:"max_description_length"`
	MaxAttributeValueLength int     `json:"max_attribute_value_length"`
	SuspiciousPrice         float64 `json:"suspicious_price"`
}

// DefaultDictionaries returns the built-in cleaning tables.
func DefaultDictionaries() Dictionaries {
	return Dictionaries{
		Typos: map[string]string{
			"shampo":     "shampoo",
			"conditoner": "conditioner",
			"wirless":    "wireless",
			"bluetooh":   "bluetooth",
			"stainles":   "stainless",
			"origional":  "original",
			"chocolat":   "chocolate",
			"accesories": "accessories",
		},
		Units: map[string]string{
			"kilogram":    "kg",
			"kilograms":   "kg",
			"kgs":         "kg",
			"kg":          "kg",
			"gram":        "g",
			"grams":       "g",
			"gr":          "g",
			"g":           "g",
			"milligram":   "mg",
			"milligrams":  "mg",
			"mg":          "mg",
			"liter":       "l",
			"liters":      "l",
			"litre":       "l",
			"litres":      "l",
			"ltr":         "l",
			"l":           "l",
			"milliliter":  "ml",
			"milliliters": "ml",
			"mls":         "ml",
			"ml":          "ml",
			"centimeter":  "cm",
			"centimeters": "cm",
			"cm":          "cm",
			"millimeter":  "mm",
			"millimeters": "mm",
			"mm":          "mm",
			"inch":        "in",
			"inches":      "in",
			"ounce":       "oz",
			"ounces":      "oz",
			"oz":          "oz",
			"pound":       "lb",
			"pounds":      "lb",
			"lbs":         "lb",
			"lb":          "lb",
		},
		PromoPhrases: []string{
			"free shipping",
			"best price",
			"hot sale",
			"big sale",
			"limited offer",
			"new arrival",
			"100% original",
			"best seller",
			"ready stock",
			"fast delivery",
		},
		BrandAliases: map[string]string{
			"adidas originals": "Adidas",
			"addidas":          "Adidas",
			"nike inc":         "Nike",
			"samsung elec":     "Samsung",
			"samsung electronics": "Samsung",
			"xiaomi corp":      "Xiaomi",
			"mi":               "Xiaomi",
			"loreal":           "L'Oreal",
			"l oreal":          "L'Oreal",
			"p&g":              "Procter & Gamble",
		},
		CategoryKeywords: map[string][]string{
			"electronics": {"phone", "laptop", "headphone", "earbud", "charger", "tablet", "camera", "speaker"},
			"beauty":      {"shampoo", "conditioner", "serum", "moisturizer", "lipstick", "mascara", "cleanser"},
			"grocery":     {"coffee", "tea", "chocolate", "snack", "cereal", "pasta", "sauce"},
			"apparel":     {"shirt", "jacket", "sneaker", "dress", "jeans", "hoodie", "sock"},
			"home":        {"pillow", "blanket", "cookware", "lamp", "curtain", "towel", "mattress"},
		},
		CategoryAliases: map[string]string{
			"consumer electronics": "electronics",
			"gadgets":              "electronics",
			"health & beauty":      "beauty",
			"cosmetics":            "beauty",
			"food":                 "grocery",
			"food & beverage":      "grocery",
			"clothing":             "apparel",
			"fashion":              "apparel",
			"home & living":        "home",
		},
		MaxDescriptionLength:    2000,
		MaxAttributeValueLength: 255,
		SuspiciousPrice:         1_000_000,
	}
}

// LoadDictionaries reads dictionary overrides from a JSON file and merges them
// over the defaults. Missing sections keep their default tables.
func LoadDictionaries(path string) (Dictionaries, error) {
	dicts := DefaultDictionaries()
	if path == "" {
		return dicts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return dicts, err
	}

	var overrides Dictionaries
	if err := json.Unmarshal(data, &overrides); err != nil {
		return dicts, err
	}

	if len(overrides.Typos) > 0 {
		dicts.Typos = overrides.Typos
	}
	if len(overrides.Units) > 0 {
		dicts.Units = overrides.Units
	}
	if len(overrides.PromoPhrases) > 0 {
		dicts.PromoPhrases = overrides.PromoPhrases
	}
	if len(overrides.BrandAliases) > 0 {
		dicts.BrandAliases = overrides.BrandAliases
	}
	if len(overrides.CategoryKeywords) > 0 {
		dicts.CategoryKeywords = overrides.CategoryKeywords
	}
	if len(overrides.CategoryAliases) > 0 {
		dicts.CategoryAliases = overrides.CategoryAliases
	}
	if overrides.MaxDescriptionLength > 0 {
		dicts.MaxDescriptionLength = overrides.MaxDescriptionLength
	}
	if overrides.MaxAttributeValueLength > 0 {
		dicts.MaxAttributeValueLength = overrides.MaxAttributeValueLength
	}
	if overrides.SuspiciousPrice > 0 {
		dicts.SuspiciousPrice = overrides.SuspiciousPrice
	}

	return dicts, nil
}
