package memory

import (
	"fmt"
	"runtime"
	"strconv"
	"testing"

	"github.com/yndnr/memkv-go/internal/core/domain"
)

// keyCounts are the keyspace sizes the benchmarks preload.
var keyCounts = []int{1000, 10000, 100000}

func prefill(db *Database, n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = "key:" + strconv.Itoa(i)
		db.Set(keys[i], domain.NewString([]byte("value")))
	}
	return keys
}

func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
}

func BenchmarkDatabase_Set(b *testing.B) {
	for _, preload := range keyCounts {
		b.Run(fmt.Sprintf("preload_%d", preload), func(b *testing.B) {
			db := NewDatabase(0)
			prefill(db, preload)
			v := domain.NewString([]byte("value"))

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				db.Set("bench:"+strconv.Itoa(i), v)
			}
			b.StopTimer()
			reportMemory(b, "mem")
		})
	}
}

func BenchmarkDatabase_Get(b *testing.B) {
	for _, count := range keyCounts {
		b.Run(fmt.Sprintf("keys_%d", count), func(b *testing.B) {
			db := NewDatabase(0)
			keys := prefill(db, count)

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, ok := db.Get(keys[i%len(keys)]); !ok {
					b.Fatal("missing key")
				}
			}
		})
	}
}

func BenchmarkDatabase_GetParallel(b *testing.B) {
	db := NewDatabase(0)
	keys := prefill(db, 10000)

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			db.Get(keys[i%len(keys)])
			i++
		}
	})
}

func BenchmarkDatabase_Keys(b *testing.B) {
	db := NewDatabase(0)
	prefill(db, 10000)

	for _, pattern := range []string{"*", "key:1*", "key:?", "nomatch*"} {
		b.Run(pattern, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				db.Keys(pattern)
			}
		})
	}
}
