package store

import (
	"context"
	"errors"
	"testing"

	"github.com/sgprime/sgprime/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustCreateCategory(t *testing.T, s *Store, name, slug string) *model.Category {
	t.Helper()

	cat := &model.Category{Name: name, Slug: slug, Description: name + " products"}
	if err := s.CreateCategory(context.Background(), cat); err != nil {
		t.Fatalf("CreateCategory(%q): %v", slug, err)
	}
	return cat
}

func mustCreateProduct(t *testing.T, s *Store, p *model.Product) *model.Product {
	t.Helper()

	if p.Status == "" {
		p.Status = model.ProductStatusActive
	}
	if err := s.CreateProduct(context.Background(), p); err != nil {
		t.Fatalf("CreateProduct(%q): %v", p.Name, err)
	}
	return p
}

// ---------------------------------------------------------------------------
// Admins
// ---------------------------------------------------------------------------

func TestAdminLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	has, err := s.HasAnyAdmin(ctx)
	if err != nil {
		t.Fatalf("HasAnyAdmin: %v", err)
	}
	if has {
		t.Fatal("HasAnyAdmin = true on empty store")
	}

	admin := &model.Admin{
		Username:     "admin",
		Email:        "admin@example.com",
		PasswordHash: "$2a$12$fakehashfakehashfakehash",
		IsActive:     true,
	}
	if err := s.CreateAdmin(ctx, admin); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	if admin.ID == 0 {
		t.Fatal("CreateAdmin did not set ID")
	}
	if admin.Role != model.RoleAdmin {
		t.Fatalf("default role = %q, want %q", admin.Role, model.RoleAdmin)
	}

	got, err := s.GetActiveAdminByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("GetActiveAdminByUsername: %v", err)
	}
	if got.ID != admin.ID || got.Email != admin.Email {
		t.Fatalf("got admin %+v, want id=%d email=%s", got, admin.ID, admin.Email)
	}
	if got.LastLoginAt != nil {
		t.Fatalf("LastLoginAt = %v before any login, want nil", got.LastLoginAt)
	}

	if _, err := s.GetActiveAdminByUsername(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown username: err = %v, want ErrNotFound", err)
	}

	if err := s.UpdateAdminLastLogin(ctx, admin.ID); err != nil {
		t.Fatalf("UpdateAdminLastLogin: %v", err)
	}
	got, err = s.GetActiveAdmin(ctx, admin.ID)
	if err != nil {
		t.Fatalf("GetActiveAdmin: %v", err)
	}
	if got.LastLoginAt == nil {
		t.Fatal("LastLoginAt not set after UpdateAdminLastLogin")
	}

	if err := s.UpdateAdminPassword(ctx, admin.ID, "$2a$12$anotherfakehash"); err != nil {
		t.Fatalf("UpdateAdminPassword: %v", err)
	}
	got, err = s.GetActiveAdmin(ctx, admin.ID)
	if err != nil {
		t.Fatalf("GetActiveAdmin after password change: %v", err)
	}
	if got.PasswordHash != "$2a$12$anotherfakehash" {
		t.Fatal("password hash not updated")
	}

	if err := s.UpdateAdminPassword(ctx, 9999, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdateAdminPassword(missing): err = %v, want ErrNotFound", err)
	}

	admins, err := s.ListAdmins(ctx)
	if err != nil {
		t.Fatalf("ListAdmins: %v", err)
	}
	if len(admins) != 1 {
		t.Fatalf("ListAdmins returned %d rows, want 1", len(admins))
	}
}

// ---------------------------------------------------------------------------
// Categories
// ---------------------------------------------------------------------------

func TestCategoryCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cat := mustCreateCategory(t, s, "Erosion Control", "erosion-control")
	mustCreateCategory(t, s, "Greenhouse Products", "greenhouse")

	got, err := s.GetCategoryBySlug(ctx, "erosion-control")
	if err != nil {
		t.Fatalf("GetCategoryBySlug: %v", err)
	}
	if got.ID != cat.ID {
		t.Fatalf("GetCategoryBySlug ID = %d, want %d", got.ID, cat.ID)
	}

	if _, err := s.GetCategoryBySlug(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing slug: err = %v, want ErrNotFound", err)
	}

	cats, err := s.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(cats) != 2 {
		t.Fatalf("ListCategories returned %d rows, want 2", len(cats))
	}
	// Ordered by name.
	if cats[0].Slug != "erosion-control" || cats[1].Slug != "greenhouse" {
		t.Fatalf("unexpected order: %s, %s", cats[0].Slug, cats[1].Slug)
	}

	cat.Description = "updated"
	if err := s.UpdateCategory(ctx, cat); err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}
	got, _ = s.GetCategory(ctx, cat.ID)
	if got.Description != "updated" {
		t.Fatalf("description = %q after update", got.Description)
	}

	if err := s.DeleteCategory(ctx, cat.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	if _, err := s.GetCategory(ctx, cat.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted category: err = %v, want ErrNotFound", err)
	}
}

func TestDeleteCategoryWithProducts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cat := mustCreateCategory(t, s, "Greenhouse Products", "greenhouse")
	mustCreateProduct(t, s, &model.Product{CategoryID: cat.ID, Name: "Open Top Bag"})
	mustCreateProduct(t, s, &model.Product{CategoryID: cat.ID, Name: "Grow Cubes"})

	err := s.DeleteCategory(ctx, cat.ID)
	var inUse *CategoryInUseError
	if !errors.As(err, &inUse) {
		t.Fatalf("DeleteCategory with products: err = %v, want CategoryInUseError", err)
	}
	if inUse.Products != 2 {
		t.Fatalf("CategoryInUseError.Products = %d, want 2", inUse.Products)
	}

	// Category must still exist.
	if _, err := s.GetCategory(ctx, cat.ID); err != nil {
		t.Fatalf("category disappeared after blocked delete: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

func TestProductSpecsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cat := mustCreateCategory(t, s, "Erosion Control", "erosion-control")
	p := mustCreateProduct(t, s, &model.Product{
		CategoryID:  cat.ID,
		Name:        "Coir Geo Textile",
		Description: "Woven coir fabric",
		Specs: map[string]string{
			"Weight": "700gsm",
			"Width":  "2m",
		},
	})

	got, err := s.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if got.Specs["Weight"] != "700gsm" || got.Specs["Width"] != "2m" {
		t.Fatalf("specs = %v", got.Specs)
	}
	if got.CategoryName != "Erosion Control" || got.CategorySlug != "erosion-control" {
		t.Fatalf("joined category = %q/%q", got.CategoryName, got.CategorySlug)
	}

	// Empty specs come back as an empty map, not nil.
	p2 := mustCreateProduct(t, s, &model.Product{CategoryID: cat.ID, Name: "Coir Logs"})
	got, err = s.GetProduct(ctx, p2.ID)
	if err != nil {
		t.Fatalf("GetProduct(no specs): %v", err)
	}
	if got.Specs == nil || len(got.Specs) != 0 {
		t.Fatalf("empty specs = %v, want empty map", got.Specs)
	}
}

func TestListProductsFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	erosion := mustCreateCategory(t, s, "Erosion Control", "erosion-control")
	greenhouse := mustCreateCategory(t, s, "Greenhouse Products", "greenhouse")

	mustCreateProduct(t, s, &model.Product{CategoryID: erosion.ID, Name: "Coir Geo Textile", IsFeatured: true, DisplayOrder: 1})
	mustCreateProduct(t, s, &model.Product{CategoryID: erosion.ID, Name: "Coir Logs", DisplayOrder: 2})
	mustCreateProduct(t, s, &model.Product{CategoryID: greenhouse.ID, Name: "Open Top Bag", IsFeatured: true, DisplayOrder: 3})
	mustCreateProduct(t, s, &model.Product{
		CategoryID:   greenhouse.ID,
		Name:         "Retired Plug",
		Status:       model.ProductStatusInactive,
		DisplayOrder: 4,
	})

	tests := []struct {
		name   string
		filter ProductFilter
		want   []string
	}{
		{"default hides inactive", ProductFilter{}, []string{"Coir Geo Textile", "Coir Logs", "Open Top Bag"}},
		{"status all", ProductFilter{Status: "all"}, []string{"Coir Geo Textile", "Coir Logs", "Open Top Bag", "Retired Plug"}},
		{"status inactive", ProductFilter{Status: model.ProductStatusInactive}, []string{"Retired Plug"}},
		{"by category", ProductFilter{CategorySlug: "erosion-control"}, []string{"Coir Geo Textile", "Coir Logs"}},
		{"featured only", ProductFilter{FeaturedOnly: true}, []string{"Coir Geo Textile", "Open Top Bag"}},
		{"featured in category", ProductFilter{CategorySlug: "greenhouse", FeaturedOnly: true}, []string{"Open Top Bag"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListProducts(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListProducts: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d products, want %d", len(got), len(tt.want))
			}
			for i, name := range tt.want {
				if got[i].Name != name {
					t.Errorf("product[%d] = %q, want %q", i, got[i].Name, name)
				}
			}
		})
	}
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cat := mustCreateCategory(t, s, "Greenhouse Products", "greenhouse")
	p := mustCreateProduct(t, s, &model.Product{CategoryID: cat.ID, Name: "Starter Plugs"})

	p.Description = "Small coir plugs"
	p.IsFeatured = true
	p.Specs = map[string]string{"Usage": "Cloning"}
	if err := s.UpdateProduct(ctx, p); err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}

	got, err := s.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if !got.IsFeatured || got.Description != "Small coir plugs" || got.Specs["Usage"] != "Cloning" {
		t.Fatalf("update not persisted: %+v", got)
	}

	name, err := s.GetProductName(ctx, p.ID)
	if err != nil || name != "Starter Plugs" {
		t.Fatalf("GetProductName = %q, %v", name, err)
	}

	if err := s.DeleteProduct(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if _, err := s.GetProduct(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted product: err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteProduct(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: err = %v, want ErrNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// Enquiries
// ---------------------------------------------------------------------------

func TestEnquiryWorkflow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cat := mustCreateCategory(t, s, "Erosion Control", "erosion-control")
	p := mustCreateProduct(t, s, &model.Product{CategoryID: cat.ID, Name: "Coir Logs"})

	e := &model.Enquiry{
		Name:      "Jordan Silva",
		Email:     "jordan@example.com",
		Company:   "Silva Landscaping",
		Message:   "Looking for pricing on coir logs.",
		ProductID: &p.ID,
		Status:    "resolved", // must be ignored on create
	}
	if err := s.CreateEnquiry(ctx, e); err != nil {
		t.Fatalf("CreateEnquiry: %v", err)
	}
	if e.Status != model.EnquiryStatusNew {
		t.Fatalf("status on create = %q, want %q", e.Status, model.EnquiryStatusNew)
	}

	got, err := s.GetEnquiry(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetEnquiry: %v", err)
	}
	if got.ProductName == nil || *got.ProductName != "Coir Logs" {
		t.Fatalf("joined product name = %v", got.ProductName)
	}

	if err := s.UpdateEnquiryStatus(ctx, e.ID, model.EnquiryStatusContacted, "called back"); err != nil {
		t.Fatalf("UpdateEnquiryStatus: %v", err)
	}
	got, _ = s.GetEnquiry(ctx, e.ID)
	if got.Status != model.EnquiryStatusContacted || got.Notes != "called back" {
		t.Fatalf("after update: status=%q notes=%q", got.Status, got.Notes)
	}

	// Second enquiry without a product, then filter listing.
	e2 := &model.Enquiry{Name: "Ana", Email: "ana@example.com", Message: "General question"}
	if err := s.CreateEnquiry(ctx, e2); err != nil {
		t.Fatalf("CreateEnquiry(second): %v", err)
	}

	all, err := s.ListEnquiries(ctx, "")
	if err != nil {
		t.Fatalf("ListEnquiries: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListEnquiries returned %d rows, want 2", len(all))
	}

	contacted, err := s.ListEnquiries(ctx, model.EnquiryStatusContacted)
	if err != nil {
		t.Fatalf("ListEnquiries(contacted): %v", err)
	}
	if len(contacted) != 1 || contacted[0].ID != e.ID {
		t.Fatalf("contacted filter returned %d rows", len(contacted))
	}

	if err := s.DeleteEnquiry(ctx, e2.ID); err != nil {
		t.Fatalf("DeleteEnquiry: %v", err)
	}
	if _, err := s.GetEnquiry(ctx, e2.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted enquiry: err = %v, want ErrNotFound", err)
	}
	if err := s.UpdateEnquiryStatus(ctx, e2.ID, model.EnquiryStatusResolved, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update deleted enquiry: err = %v, want ErrNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// Seed
// ---------------------------------------------------------------------------

func TestSeedIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.SeedAdmin(ctx, "$2a$12$fakehash")
	if err != nil {
		t.Fatalf("SeedAdmin: %v", err)
	}
	if !created {
		t.Fatal("first SeedAdmin did not create the account")
	}
	created, err = s.SeedAdmin(ctx, "$2a$12$differenthash")
	if err != nil {
		t.Fatalf("SeedAdmin(second): %v", err)
	}
	if created {
		t.Fatal("second SeedAdmin created a duplicate account")
	}
	admin, err := s.GetActiveAdminByUsername(ctx, DefaultAdminUsername)
	if err != nil {
		t.Fatalf("GetActiveAdminByUsername: %v", err)
	}
	if admin.PasswordHash != "$2a$12$fakehash" {
		t.Fatal("second SeedAdmin overwrote the password hash")
	}

	cats, prods, err := s.SeedCatalog(ctx)
	if err != nil {
		t.Fatalf("SeedCatalog: %v", err)
	}
	if cats != 3 || prods != 7 {
		t.Fatalf("SeedCatalog created %d categories, %d products; want 3, 7", cats, prods)
	}

	cats, prods, err = s.SeedCatalog(ctx)
	if err != nil {
		t.Fatalf("SeedCatalog(second): %v", err)
	}
	if cats != 0 || prods != 0 {
		t.Fatalf("second SeedCatalog created %d categories, %d products; want 0, 0", cats, prods)
	}

	total, err := s.CountProducts(ctx)
	if err != nil {
		t.Fatalf("CountProducts: %v", err)
	}
	if total != 7 {
		t.Fatalf("CountProducts = %d after reseed, want 7", total)
	}

	featured, err := s.ListProducts(ctx, ProductFilter{FeaturedOnly: true})
	if err != nil {
		t.Fatalf("ListProducts(featured): %v", err)
	}
	if len(featured) != 3 {
		t.Fatalf("featured products = %d, want 3", len(featured))
	}
}
