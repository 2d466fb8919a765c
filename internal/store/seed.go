package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sgprime/sgprime/internal/model"
)

// DefaultAdminUsername is the account the seed creates when no admin exists.
const DefaultAdminUsername = "admin"

var seedCategories = []model.Category{
	{
		Name:        "Erosion Control",
		Slug:        "erosion-control",
		Description: "Engineered solutions for soil erosion, riverbanks, slopes, and construction areas.",
	},
	{
		Name:        "Greenhouse Products",
		Slug:        "greenhouse",
		Description: "Coir-based growing media for controlled environments.",
	},
	{
		Name:        "Indoor and Outdoor Gardening",
		Slug:        "gardening",
		Description: "Sustainable coir products for home and professional growers.",
	},
}

type seedProduct struct {
	name         string
	categorySlug string
	description  string
	specs        map[string]string
	featured     bool
	displayOrder int
}

var seedProducts = []seedProduct{
	{
		name:         "Coir Geo Textile",
		categorySlug: "erosion-control",
		description:  "100% natural coconut coir fiber yarn woven to various sizes ideal for soil stabilization. Eco-friendly, biodegradable, and easy to install.",
		specs: map[string]string{
			"Weight":     "400gsm / 700gsm / 900gsm (customizable)",
			"Dimensions": "1m – 4m width, up to 50m length",
			"Material":   "100% natural coir fiber",
		},
		featured:     true,
		displayOrder: 1,
	},
	{
		name:         "Coir Geotextile Bale",
		categorySlug: "erosion-control",
		description:  "100% natural knitted coir yarn tightly compressed to bales. Protects riverbanks and shorelines from high water currents.",
		specs: map[string]string{
			"Dimensions": "2m x 50m",
			"Weight":     "125 kg – 140 kg",
		},
		displayOrder: 2,
	},
	{
		name:         "Coir Logs / Water Logs",
		categorySlug: "erosion-control",
		description:  "Cylindrical structures made of coir fiber encased in coir netting. Ideal for shoreline protection and sediment control.",
		specs: map[string]string{
			"Diameter": "Standard 30cm (customizable)",
			"Length":   "Standard 3m (customizable)",
		},
		featured:     true,
		displayOrder: 3,
	},
	{
		name:         "Coir Stitched Blanket",
		categorySlug: "erosion-control",
		description:  "Middle Coir fiber with outside PP / Jute netting. Used as a blanket on slopes and hills to counteract soil erosion.",
		specs: map[string]string{
			"Length":   "10m to 50m",
			"Width":    "1m to 2m",
			"Material": "Coir fiber with PP/Jute netting",
		},
		displayOrder: 4,
	},
	{
		name:         "Open Top Bag",
		categorySlug: "greenhouse",
		description:  "Coco peat and chip combination depending on plant type. Compressed blocks with integrated drainage holes. UV-treated plastic bag.",
		specs: map[string]string{
			"Features": "Pre-filled, Reusable, Integrated drainage",
			"Usage":    "Hydroponic vegetable and fruit cultivation",
		},
		featured:     true,
		displayOrder: 5,
	},
	{
		name:         "Grow Cubes",
		categorySlug: "greenhouse",
		description:  "Compressed coir cubes for seed propagation and young plants.",
		specs: map[string]string{
			"Material": "100% Coir pith",
		},
		displayOrder: 6,
	},
	{
		name:         "Starter Plugs",
		categorySlug: "greenhouse",
		description:  "Small coir plugs designed for seamless transplanting and root development.",
		specs: map[string]string{
			"Usage": "Seed starting, cloning",
		},
		displayOrder: 7,
	},
}

// SeedAdmin creates the default admin account with the given password hash
// unless an account with that username already exists. Returns true when an
// account was created.
func (s *Store) SeedAdmin(ctx context.Context, passwordHash string) (bool, error) {
	_, err := s.GetActiveAdminByUsername(ctx, DefaultAdminUsername)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}

	admin := &model.Admin{
		Username:     DefaultAdminUsername,
		Email:        "admin@sgprimeenterprises.com",
		PasswordHash: passwordHash,
		Role:         model.RoleAdmin,
		IsActive:     true,
	}
	if err := s.CreateAdmin(ctx, admin); err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	return true, nil
}

// SeedCatalog inserts the production category and product dataset. Existing
// rows (matched by slug for categories, by name for products) are updated in
// place, so the seed is safe to run repeatedly.
func (s *Store) SeedCatalog(ctx context.Context) (categories, products int, err error) {
	categoryIDs := make(map[string]int64, len(seedCategories))

	for _, c := range seedCategories {
		existing, err := s.GetCategoryBySlug(ctx, c.Slug)
		switch {
		case err == nil:
			existing.Name = c.Name
			existing.Description = c.Description
			if err := s.UpdateCategory(ctx, existing); err != nil {
				return 0, 0, err
			}
			categoryIDs[c.Slug] = existing.ID
		case errors.Is(err, ErrNotFound):
			cat := c
			if err := s.CreateCategory(ctx, &cat); err != nil {
				return 0, 0, err
			}
			categoryIDs[c.Slug] = cat.ID
			categories++
		default:
			return 0, 0, err
		}
	}

	for _, p := range seedProducts {
		categoryID, ok := categoryIDs[p.categorySlug]
		if !ok {
			return 0, 0, fmt.Errorf("seed product %q: unknown category slug %q", p.name, p.categorySlug)
		}

		existing, err := s.findProductByName(ctx, p.name)
		switch {
		case err == nil:
			existing.CategoryID = categoryID
			existing.Description = p.description
			existing.Specs = p.specs
			existing.IsFeatured = p.featured
			existing.DisplayOrder = p.displayOrder
			if err := s.UpdateProduct(ctx, existing); err != nil {
				return 0, 0, err
			}
		case errors.Is(err, ErrNotFound):
			product := &model.Product{
				CategoryID:   categoryID,
				Name:         p.name,
				Description:  p.description,
				Specs:        p.specs,
				IsFeatured:   p.featured,
				DisplayOrder: p.displayOrder,
				Status:       model.ProductStatusActive,
			}
			if err := s.CreateProduct(ctx, product); err != nil {
				return 0, 0, err
			}
			products++
		default:
			return 0, 0, err
		}
	}

	return categories, products, nil
}

func (s *Store) findProductByName(ctx context.Context, name string) (*model.Product, error) {
	var id int64
	err := s.db.GetContext(ctx, &id, s.rebind("SELECT id FROM products WHERE name = ?"), name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find product by name: %w", err)
	}
	return s.GetProduct(ctx, id)
}
