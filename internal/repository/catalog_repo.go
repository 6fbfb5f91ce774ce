package repository

import (
	"context"

	"go-inventory-pos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogRepository reads catalog rows for the core and writes them for seeding.
// Lookups take the handle of the caller's transaction.
type CatalogRepository interface {
	FindProduct(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	FindProducts(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]model.Product, error)
	FindStore(tx *gorm.DB, id uuid.UUID) (*model.Store, error)
	FindProvider(tx *gorm.DB, id uuid.UUID) (*model.Provider, error)
	FindClient(tx *gorm.DB, id uuid.UUID) (*model.Client, error)
	FindCategory(tx *gorm.DB, id uuid.UUID) (*model.Category, error)

	CreateStore(ctx context.Context, store *model.Store) error
	CreateProduct(ctx context.Context, product *model.Product) error
	CreateCategory(ctx context.Context, category *model.Category) error
	CreateProvider(ctx context.Context, provider *model.Provider) error
	CreateClient(ctx context.Context, client *model.Client) error
	CreatePos(ctx context.Context, pos *model.Pos) error
	LinkCategory(ctx context.Context, productID, categoryID uuid.UUID) error
	LinkProvider(ctx context.Context, productID, providerID uuid.UUID) error
	FindProductBySKU(ctx context.Context, sku string) (*model.Product, error)
}

type catalogRepo struct {
	db *gorm.DB
}

func NewCatalogRepo(db *gorm.DB) CatalogRepository {
	return &catalogRepo{db}
}

func (r *catalogRepo) FindProduct(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := tx.First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *catalogRepo) FindProducts(tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]model.Product, error) {
	out := make(map[uuid.UUID]model.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var products []model.Product
	if err := tx.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (r *catalogRepo) FindStore(tx *gorm.DB, id uuid.UUID) (*model.Store, error) {
	var store model.Store
	if err := tx.First(&store, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *catalogRepo) FindProvider(tx *gorm.DB, id uuid.UUID) (*model.Provider, error) {
	var provider model.Provider
	if err := tx.First(&provider, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &provider, nil
}

func (r *catalogRepo) FindClient(tx *gorm.DB, id uuid.UUID) (*model.Client, error) {
	var client model.Client
	if err := tx.First(&client, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *catalogRepo) FindCategory(tx *gorm.DB, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	if err := tx.First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *catalogRepo) CreateStore(ctx context.Context, store *model.Store) error {
	return r.createOnce(ctx, store)
}

func (r *catalogRepo) CreateProduct(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *catalogRepo) CreateCategory(ctx context.Context, category *model.Category) error {
	return r.createOnce(ctx, category)
}

func (r *catalogRepo) CreateProvider(ctx context.Context, provider *model.Provider) error {
	return r.createOnce(ctx, provider)
}

func (r *catalogRepo) CreateClient(ctx context.Context, client *model.Client) error {
	return r.createOnce(ctx, client)
}

func (r *catalogRepo) CreatePos(ctx context.Context, pos *model.Pos) error {
	if pos.Status == "" {
		pos.Status = model.PosOffline
	}
	return r.createOnce(ctx, pos)
}

// createOnce inserts row unless a row with the same key already exists,
// so seeding with fixed ids can be repeated.
func (r *catalogRepo) createOnce(ctx context.Context, row interface{}) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
}

func (r *catalogRepo) LinkCategory(ctx context.Context, productID, categoryID uuid.UUID) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.ProductCategory{ProductID: productID, CategoryID: categoryID}).Error
}

func (r *catalogRepo) LinkProvider(ctx context.Context, productID, providerID uuid.UUID) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.ProductProvider{ProductID: productID, ProviderID: providerID}).Error
}

func (r *catalogRepo) FindProductBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "sku = ?", sku).Error; err != nil {
		return nil, err
	}
	return &product, nil
}
