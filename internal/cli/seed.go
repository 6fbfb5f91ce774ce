package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go-inventory-pos/internal/app"
	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// CatalogFile is the YAML layout read by seed. Rows carry fixed ids so a file
// can be applied repeatedly; products are matched by SKU.
type CatalogFile struct {
	Stores     []StoreEntry   `yaml:"stores"`
	Categories []NamedEntry   `yaml:"categories"`
	Providers  []ContactEntry `yaml:"providers"`
	Clients    []ContactEntry `yaml:"clients"`
	Products   []ProductEntry `yaml:"products"`
}

type NamedEntry struct {
	ID   uuid.UUID `yaml:"id"`
	Name string    `yaml:"name"`
}

type ContactEntry struct {
	ID    uuid.UUID `yaml:"id"`
	Name  string    `yaml:"name"`
	Email string    `yaml:"email"`
	Phone string    `yaml:"phone"`
}

type StoreEntry struct {
	ID      uuid.UUID    `yaml:"id"`
	Name    string       `yaml:"name"`
	Address string       `yaml:"address"`
	Pos     []NamedEntry `yaml:"pos"`
}

type ProductEntry struct {
	SKU         string      `yaml:"sku"`
	Name        string      `yaml:"name"`
	Price       string      `yaml:"price"`
	Brand       string      `yaml:"brand"`
	Barcode     string      `yaml:"barcode"`
	Description string      `yaml:"description"`
	Categories  []uuid.UUID `yaml:"categories"`
	Providers   []uuid.UUID `yaml:"providers"`

	// Initial quantity per store id. Existing stock rows are left alone.
	Stock map[string]string `yaml:"stock"`
}

// SeedReport counts what one seed run touched.
type SeedReport struct {
	Stores     int `json:"stores"`
	Pos        int `json:"pos"`
	Categories int `json:"categories"`
	Providers  int `json:"providers"`
	Clients    int `json:"clients"`
	Products   int `json:"products"`
	NewStock   int `json:"new_stock"`
}

func (r SeedReport) String() string {
	return fmt.Sprintf("seeded %d stores, %d pos, %d categories, %d providers, %d clients, %d products, %d new stock rows",
		r.Stores, r.Pos, r.Categories, r.Providers, r.Clients, r.Products, r.NewStock)
}

func NewSeedCommand(opts *RootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load catalog rows and initial stock from a YAML file",
		Long: `Load stores, POS, categories, providers, clients and products from a YAML file.

Running the same file twice changes nothing. Initial stock is only written
for product/store pairs that have no stock row yet.

Example:
  inventoryctl seed --file catalog.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := LoadCatalogFile(file)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read catalog", err)
			}
			out := opts.output(cmd)
			return opts.withCore(func(core *app.Core) error {
				report, err := Seed(cmd.Context(), core, catalog)
				if err != nil {
					return out.fail(err)
				}
				return out.Success(report, report.String())
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "catalog YAML file (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func LoadCatalogFile(path string) (*CatalogFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var catalog CatalogFile
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := catalog.check(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &catalog, nil
}

func (f *CatalogFile) check() error {
	missing := func(kind, name string) error {
		return fmt.Errorf("%s %q has no id", kind, name)
	}
	for _, s := range f.Stores {
		if s.ID == uuid.Nil {
			return missing("store", s.Name)
		}
		for _, p := range s.Pos {
			if p.ID == uuid.Nil {
				return missing("pos", p.Name)
			}
		}
	}
	for _, c := range f.Categories {
		if c.ID == uuid.Nil {
			return missing("category", c.Name)
		}
	}
	for _, p := range f.Providers {
		if p.ID == uuid.Nil {
			return missing("provider", p.Name)
		}
	}
	for _, c := range f.Clients {
		if c.ID == uuid.Nil {
			return missing("client", c.Name)
		}
	}
	for _, p := range f.Products {
		if p.SKU == "" {
			return fmt.Errorf("product %q has no sku", p.Name)
		}
	}
	return nil
}

// Seed applies the catalog through the catalog repository and the stock service.
func Seed(ctx context.Context, core *app.Core, f *CatalogFile) (SeedReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var report SeedReport
	for _, s := range f.Stores {
		store := model.Store{Name: s.Name, Address: s.Address}
		store.ID = s.ID
		if err := core.Catalog.CreateStore(ctx, &store); err != nil {
			return report, fmt.Errorf("store %s: %w", s.Name, err)
		}
		report.Stores++
		for _, p := range s.Pos {
			pos := model.Pos{StoreID: s.ID, Name: p.Name, CashAmount: decimal.Zero}
			pos.ID = p.ID
			if err := core.Catalog.CreatePos(ctx, &pos); err != nil {
				return report, fmt.Errorf("pos %s: %w", p.Name, err)
			}
			report.Pos++
		}
	}
	for _, c := range f.Categories {
		category := model.Category{Name: c.Name}
		category.ID = c.ID
		if err := core.Catalog.CreateCategory(ctx, &category); err != nil {
			return report, fmt.Errorf("category %s: %w", c.Name, err)
		}
		report.Categories++
	}
	for _, p := range f.Providers {
		provider := model.Provider{Name: p.Name, Email: p.Email, Phone: p.Phone}
		provider.ID = p.ID
		if err := core.Catalog.CreateProvider(ctx, &provider); err != nil {
			return report, fmt.Errorf("provider %s: %w", p.Name, err)
		}
		report.Providers++
	}
	for _, c := range f.Clients {
		client := model.Client{Name: c.Name, Email: c.Email, Phone: c.Phone}
		client.ID = c.ID
		if err := core.Catalog.CreateClient(ctx, &client); err != nil {
			return report, fmt.Errorf("client %s: %w", c.Name, err)
		}
		report.Clients++
	}

	for _, p := range f.Products {
		product, err := seedProduct(ctx, core, p)
		if err != nil {
			return report, fmt.Errorf("product %s: %w", p.SKU, err)
		}
		report.Products++

		for storeKey, qty := range p.Stock {
			storeID, err := uuid.Parse(storeKey)
			if err != nil {
				return report, fmt.Errorf("product %s: invalid store id %q", p.SKU, storeKey)
			}
			q, err := decimal.NewFromString(qty)
			if err != nil {
				return report, fmt.Errorf("product %s: invalid quantity %q", p.SKU, qty)
			}
			_, err = core.Stock.AddStock(ctx, service.StockRequest{ProductID: product.ID, StoreID: storeID, Quantity: q})
			switch {
			case err == nil:
				report.NewStock++
			case errors.Is(err, service.ErrConflict):
			default:
				return report, err
			}
		}
	}
	return report, nil
}

func seedProduct(ctx context.Context, core *app.Core, p ProductEntry) (*model.Product, error) {
	product, err := core.Catalog.FindProductBySKU(ctx, p.SKU)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		price, perr := decimal.NewFromString(p.Price)
		if perr != nil {
			return nil, fmt.Errorf("invalid price %q", p.Price)
		}
		product = &model.Product{
			Name:        p.Name,
			Price:       price,
			SKU:         p.SKU,
			Brand:       p.Brand,
			Barcode:     p.Barcode,
			Description: p.Description,
		}
		err = core.Catalog.CreateProduct(ctx, product)
	}
	if err != nil {
		return nil, err
	}
	for _, id := range p.Categories {
		if err := core.Catalog.LinkCategory(ctx, product.ID, id); err != nil {
			return nil, err
		}
	}
	for _, id := range p.Providers {
		if err := core.Catalog.LinkProvider(ctx, product.ID, id); err != nil {
			return nil, err
		}
	}
	return product, nil
}
