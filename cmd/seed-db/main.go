package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.uber.org/zap"

	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/db"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/money"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/product"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/storage/postgres"
)

// seedCoupon is the launch campaign code.
const seedCoupon = "TTN2024TTT001"

// seedProduct is one catalogue entry. Categories are referenced by title and
// created on first sight.
type seedProduct struct {
	product.Product
}

func (p *seedProduct) Decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "id":
			p.ID, err = d.Int64()
		case "title":
			p.Title, err = d.Str()
		case "description":
			p.Description, err = d.Str()
		case "price":
			p.Price, err = money.Decode(d)
		case "stock_quantity":
			p.StockQuantity, err = d.Int()
		case "origin":
			p.Origin, err = d.Str()
		case "roast_level":
			p.RoastLevel, err = d.Str()
		case "category_title":
			p.CategoryTitle, err = d.Str()
		case "flavor_notes":
			p.FlavorNotes = []string{}
			err = d.Arr(func(d *jx.Decoder) error {
				s, err := d.Str()
				if err != nil {
					return err
				}
				p.FlavorNotes = append(p.FlavorNotes, s)
				return nil
			})
		default:
			err = d.Skip()
		}
		return errors.Wrapf(err, "decode %q", key)
	})
}

func main() {
	var (
		databaseURL  string
		productsFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "", "path to products JSON file (embedded catalogue if empty)")
	flag.Parse()

	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, databaseURL, productsFile); err != nil {
		lg.Fatal("Seed failed", zap.Error(err))
	}
	lg.Info("Seed completed")
}

func run(ctx context.Context, lg *zap.Logger, databaseURL, productsFile string) error {
	data := db.Products
	if productsFile != "" {
		b, err := os.ReadFile(productsFile)
		if err != nil {
			return errors.Wrap(err, "read products file")
		}
		data = b
	}

	products, err := parseProducts(data)
	if err != nil {
		return errors.Wrap(err, "parse products")
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	tx := postgres.NewTransactor(pool)
	categories := postgres.NewCategoryRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	coupons := postgres.NewCouponRepository(pool)

	err = tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, c := range assignCategories(products) {
			if err := categories.Upsert(ctx, &c); err != nil {
				return err
			}
			lg.Info("Upserted category", zap.Int64("id", c.ID), zap.String("title", c.Title))
		}
		for _, p := range products {
			if err := productRepo.Upsert(ctx, &p); err != nil {
				return err
			}
			lg.Info("Upserted product", zap.Int64("id", p.ID), zap.String("title", p.Title))
		}
		_, err := coupons.UpsertCodes(ctx, []string{seedCoupon}, true)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "seed")
	}
	lg.Info("Upserted coupon", zap.String("code", seedCoupon))

	return errors.Wrap(postgres.ResetSequences(ctx, pool), "reset sequences")
}

func parseProducts(data []byte) ([]product.Product, error) {
	var out []product.Product
	err := jx.DecodeBytes(data).Arr(func(d *jx.Decoder) error {
		var p seedProduct
		if err := p.Decode(d); err != nil {
			return err
		}
		if p.ID <= 0 {
			return errors.Errorf("product %q has no id", p.Title)
		}
		out = append(out, p.Product)
		return nil
	})
	return out, err
}

// assignCategories numbers category titles in order of first appearance and
// sets CategoryID on every product.
func assignCategories(products []product.Product) []product.Category {
	var (
		out  []product.Category
		byID = map[string]int64{}
	)
	for i := range products {
		title := products[i].CategoryTitle
		id, ok := byID[title]
		if !ok {
			id = int64(len(out) + 1)
			byID[title] = id
			out = append(out, product.Category{ID: id, Title: title})
		}
		products[i].CategoryID = id
	}
	return out
}
