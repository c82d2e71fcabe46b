// Command coupon-ingest imports coupon codes from gzipped partner lists.
//
// A code is imported when it is well formed and listed by at least
// --min-sources of the given files. Each file is first reduced to a bloom
// filter; a second pass re-reads every file and keeps the codes that other
// filters claim to contain, so only the candidates are ever held in memory.
package main

import (
	"bufio"
	"context"
	"flag"
	"math/bits"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/cache"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/coupon"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/storage/postgres"
)

const (
	maxSources    = 64
	progressEvery = 1_000_000
)

type options struct {
	MinSources int
	Capacity   uint
	FPR        float64
}

func main() {
	var (
		dataDir     string
		databaseURL string
		redisURL    string
		batchSize   int
		opts        options
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory with *.gz coupon lists, used when no files are given")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&redisURL, "redis-url", "", "Redis URL of the API cache to evict (or REDIS_URL env)")
	flag.IntVar(&opts.MinSources, "min-sources", 2, "number of files a code must appear in")
	flag.UintVar(&opts.Capacity, "capacity", 1_000_000, "expected codes per file")
	flag.Float64Var(&opts.FPR, "fpr", 0.001, "bloom filter false positive rate")
	flag.IntVar(&batchSize, "batch-size", 1000, "codes per database batch")
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
	if redisURL == "" {
		redisURL = os.Getenv("REDIS_URL")
	}

	files := flag.Args()
	if len(files) == 0 {
		if files, err = filepath.Glob(filepath.Join(dataDir, "*.gz")); err != nil {
			lg.Fatal("List data dir", zap.Error(err))
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	codes, err := collect(ctx, lg, files, opts)
	if err != nil {
		lg.Fatal("Collect codes", zap.Error(err))
	}
	lg.Info("Codes accepted", zap.Int("count", len(codes)))
	if len(codes) == 0 {
		return
	}

	ids, err := write(ctx, lg, databaseURL, codes, batchSize)
	if err != nil {
		lg.Fatal("Write coupons", zap.Error(err))
	}
	if redisURL != "" {
		evict(ctx, lg, redisURL, ids)
	}
	lg.Info("Coupon ingest completed")
}

// collect returns the sorted codes found in at least opts.MinSources files.
func collect(ctx context.Context, lg *zap.Logger, files []string, opts options) ([]string, error) {
	switch {
	case len(files) == 0:
		return nil, errors.New("no input files")
	case len(files) > maxSources:
		return nil, errors.Errorf("at most %d files are supported, got %d", maxSources, len(files))
	case opts.MinSources < 1 || opts.MinSources > len(files):
		return nil, errors.Errorf("min-sources must be within [1, %d], got %d", len(files), opts.MinSources)
	}

	lg.Info("Pass 1: building bloom filters", zap.Int("files", len(files)))
	filters, err := buildFilters(ctx, lg, files, opts)
	if err != nil {
		return nil, errors.Wrap(err, "build filters")
	}

	lg.Info("Pass 2: matching codes across files")
	masks, err := matchCodes(ctx, lg, files, filters, opts.MinSources)
	if err != nil {
		return nil, errors.Wrap(err, "match codes")
	}

	// Filters may report false positives; the exact file masks do not.
	var out []string
	for code, mask := range masks {
		if bits.OnesCount64(mask) >= opts.MinSources {
			out = append(out, code)
		}
	}
	slices.Sort(out)
	return out, nil
}

func buildFilters(ctx context.Context, lg *zap.Logger, files []string, opts options) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(opts.Capacity, opts.FPR)
			n, err := scan(ctx, path, func(code string) {
				filter.AddString(code)
			})
			if err != nil {
				return err
			}
			lg.Info("Filter built", zap.String("file", path), zap.Uint64("codes", n))
			filters[i] = filter
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

// matchCodes maps every code that could reach the quorum to the set of
// files it was read from.
func matchCodes(ctx context.Context, lg *zap.Logger, files []string, filters []*bloom.BloomFilter, minSources int) (map[string]uint64, error) {
	found := make([]map[string]struct{}, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			candidates := map[string]struct{}{}
			_, err := scan(ctx, path, func(code string) {
				seen := 1
				for j, f := range filters {
					if j != i && f.TestString(code) {
						seen++
					}
				}
				if seen >= minSources {
					candidates[code] = struct{}{}
				}
			})
			if err != nil {
				return err
			}
			lg.Info("File matched", zap.String("file", path), zap.Int("candidates", len(candidates)))
			found[i] = candidates
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	masks := map[string]uint64{}
	for i, candidates := range found {
		for code := range candidates {
			masks[code] |= 1 << uint(i)
		}
	}
	return masks, nil
}

// scan streams the gzip file at path and calls fn for every well-formed
// code. It returns the number of codes passed to fn.
func scan(ctx context.Context, path string, fn func(code string)) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "open")
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return 0, errors.Wrapf(err, "gzip %s", path)
	}
	defer func() { _ = gz.Close() }()

	var n uint64
	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if n%progressEvery == 0 {
			if err := ctx.Err(); err != nil {
				return n, err
			}
		}
		code := strings.TrimSpace(scanner.Text())
		if !coupon.ValidFormat(code) {
			continue
		}
		fn(code)
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, errors.Wrapf(err, "scan %s", path)
	}
	return n, nil
}

// write upserts codes as active coupons in one transaction.
func write(ctx context.Context, lg *zap.Logger, databaseURL string, codes []string, batchSize int) ([]int64, error) {
	if batchSize <= 0 {
		batchSize = len(codes)
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	repo := postgres.NewCouponRepository(pool)
	ids := make([]int64, 0, len(codes))
	err = postgres.NewTransactor(pool).WithinTx(ctx, func(ctx context.Context) error {
		for chunk := range slices.Chunk(codes, batchSize) {
			got, err := repo.UpsertCodes(ctx, chunk, true)
			if err != nil {
				return err
			}
			ids = append(ids, got...)
			lg.Info("Batch written", zap.Int("written", len(ids)), zap.Int("total", len(codes)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// evict drops the cached coupon list and every touched coupon from the API
// cache. Failures are logged: entries expire on their own.
func evict(ctx context.Context, lg *zap.Logger, redisURL string, ids []int64) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		lg.Warn("Skip cache eviction", zap.Error(err))
		return
	}
	client := redis.NewClient(opts)
	defer func() { _ = client.Close() }()

	keys := make([]string, 0, len(ids)+1)
	keys = append(keys, cache.CouponsKey)
	for _, id := range ids {
		keys = append(keys, cache.CouponKey(id))
	}

	store := cache.NewRedisStore(client, 0)
	for chunk := range slices.Chunk(keys, 1000) {
		if err := store.Delete(ctx, chunk...); err != nil {
			lg.Warn("Cache eviction failed", zap.Error(err))
			return
		}
	}
	lg.Info("Cache evicted", zap.Int("keys", len(keys)))
}
