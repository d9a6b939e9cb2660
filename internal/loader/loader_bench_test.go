package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"ecommerce-loader/internal/database"
	"ecommerce-loader/internal/ecommerce"
)

const benchmarkEvents = 10000

func benchmarkEventsCSV() string {
	var b strings.Builder
	b.WriteString(eventsHeader + "\n")
	for i := 0; i < benchmarkEvents; i++ {
		fmt.Fprintf(&b, "%d.5,%d,%d,%d.99,Search,0.%d,Banner,%d,%d,2023-%d-%d,%d\n",
			i%60, i%20, i%2, i%300, i%10, (i+1)%2, i, i%12+1, i%28+1, i%3+1)
	}
	return b.String()
}

func BenchmarkRun(b *testing.B) {
	f := newFixture(b, defaultPlatforms, benchmarkEventsCSV())
	catalog := f.catalog(b, ecommerce.VariantLegacy)

	backends := map[string]func() database.Backend{
		"duckdb": func() database.Backend { return database.NewDuckDBDriver(filepath.Join(f.dir, "bench.duckdb")) },
		"sqlite": func() database.Backend { return database.NewSQLiteDriver(filepath.Join(f.dir, "bench.sqlite")) },
	}

	for name, newBackend := range backends {
		for _, batchSize := range []int{100, 1000} {
			b.Run(fmt.Sprintf("%s/batch=%d", name, batchSize), func(b *testing.B) {
				opts := defaultOptions()
				opts.BatchSize = batchSize
				opts.Verify = false

				for i := 0; i < b.N; i++ {
					summary, err := New(newBackend(), catalog, opts, nil).Run(context.Background())
					if err != nil {
						b.Fatalf("Load failed: %v", err)
					}
					if i == 0 {
						b.Logf("Result: %d rows, %+v", summary.RowsLoaded(), summary.BatchLatency)
					}
				}
			})
		}
	}
}
