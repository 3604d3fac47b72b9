package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/kreedentials/store/internal/domain"
)

const unsplash = "https://images.unsplash.com/"

func img(id string) string {
	return unsplash + id + "?auto=format&fit=crop&w=800&q=80"
}

// Seed returns the launch catalog.
func Seed() *Catalog {
	return MustNew(SeedProducts())
}

// SeedProducts returns the launch product list.
func SeedProducts() []domain.Product {
	return []domain.Product{
		{
			ID:       1,
			Name:     "HyperSprint Carbon V2 Shoes",
			Category: domain.CategoryShoes,
			Price:    decimal.RequireFromString("149.99"),
			Rating:   5,
			Image:    img("photo-1600185365222-149af0a915cb"),
			Gallery: []string{
				img("photo-1600185365222-149af0a915cb"),
				img("photo-1542291026-7eec264c27ff"),
				img("photo-1600185364515-eb66f64e5681"),
			},
			SoldCount:   312,
			Views:       1402,
			ETADays:     3,
			InStock:     true,
			Description: "Explosive acceleration carbon plate midsole. Micro-weave upper for insane breathability. Zero energy leak on push-off. Born for 0.00–4.00 seconds.",
			Specs: []string{
				"Carbon plate propulsion core",
				"Energy return: 94%",
				"Stability wrap heel-lock",
				"Surface: Track / Court",
				"Weight: 210g",
			},
			Badges: []string{"PRO GRADE", "TOP SPEED"},
			Sizes:  []string{"US 7", "US 8", "US 9", "US 10", "US 11", "US 12"},
		},
		{
			ID:       2,
			Name:     "Impact Elite Training Gloves",
			Category: domain.CategoryGear,
			Price:    decimal.RequireFromString("59.99"),
			Rating:   4,
			Image:    img("photo-1595974732837-22e1e6a7455a"),
			Gallery: []string{
				img("photo-1595974732837-22e1e6a7455a"),
				img("photo-1599058917212-d750089bc07e"),
			},
			SoldCount:   188,
			Views:       756,
			ETADays:     2,
			InStock:     true,
			Description: "ShockGuard palm padding + wrist stabilization band. Built for combat drills, heavy bag, and controlled contact.",
			Specs: []string{
				"ShockGuard™ knuckle damping",
				"WristLock support strap",
				"Anti-slip intelligent palm texture",
			},
			Badges: []string{"COACH APPROVED"},
		},
		{
			ID:       3,
			Name:     "Recovery Compression Sleeve Kit",
			Category: domain.CategoryRecovery,
			Price:    decimal.RequireFromString("39.99"),
			Rating:   4,
			Image:    img("photo-1599058917212-d750089bc07e"),
			Gallery: []string{
				img("photo-1599058917212-d750089bc07e"),
				img("photo-1605296867304-46d5465a13f1"),
			},
			SoldCount:   592,
			Views:       2044,
			ETADays:     4,
			InStock:     true,
			Description: "Reduce inflammation, boost circulation, stay fresh between sessions. Used by elite sprinters and pro footballers.",
			Specs:       []string{"Targeted gradient compression", "Moisture control fabric"},
			Badges:      []string{"RECOVERY", "LIMITED DROP"},
			Sizes:       []string{"S", "M", "L", "XL"},
		},
		{
			ID:          4,
			Name:        "ThermoFuel Performance Drink (12 pack)",
			Category:    domain.CategoryNutrition,
			Price:       decimal.RequireFromString("29.99"),
			Rating:      5,
			Image:       img("photo-1605296867304-46d5465a13f1"),
			Gallery:     []string{img("photo-1605296867304-46d5465a13f1")},
			SoldCount:   903,
			Views:       4112,
			ETADays:     2,
			InStock:     true,
			Description: "Electrolyte + clean stim. Zero crash. Keeps output high deep into 4th quarter, 4th set, OT, whatever.",
			Specs: []string{
				"Electrolyte lock blend",
				"No added sugar",
				"Approved for competition",
			},
			Badges: []string{"GAME DAY", "BEST SELLER"},
		},
	}
}
