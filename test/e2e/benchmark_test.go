package e2e_test

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/mcncl/yapigen/internal/analyzer"
	"github.com/mcncl/yapigen/internal/generator"
	"github.com/mcncl/yapigen/internal/mock"
	"github.com/mcncl/yapigen/internal/parser"
	"github.com/mcncl/yapigen/internal/projector"
	"github.com/mcncl/yapigen/internal/table"
)

// generateNestedJSON creates a nested sample document
func generateNestedJSON(depth, width int) string {
	if depth <= 0 {
		return `{"leaf_value": "data", "timestamp": "2024-01-02T03:04:05Z", "count": 7, "enabled": true}`
	}
	parts := make([]string, width)
	for i := 0; i < width; i++ {
		parts[i] = fmt.Sprintf("%q: %s", fmt.Sprintf("nested_%d_%d", depth, i), generateNestedJSON(depth-1, width))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// generateWideJSON creates a sample with many fields at the same level
func generateWideJSON(fieldCount int) string {
	parts := make([]string, fieldCount)
	for i := 0; i < fieldCount; i++ {
		var v string
		switch i % 5 {
		case 0:
			v = fmt.Sprintf("%q", fmt.Sprintf("value_%d", i))
		case 1:
			v = fmt.Sprint(i)
		case 2:
			v = fmt.Sprint(i%2 == 0)
		case 3:
			v = fmt.Sprintf("%d.5", i)
		case 4:
			v = fmt.Sprintf(`{"id": %d, "name": "Object %d", "tags": ["a", "b"]}`, i, i)
		}
		parts[i] = fmt.Sprintf(`"field_%d": %s`, i, v)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// generateArrayJSON creates a list of records
func generateArrayJSON(itemCount int) string {
	rng := rand.New(rand.NewSource(42))
	items := make([]string, itemCount)
	for i := 0; i < itemCount; i++ {
		items[i] = fmt.Sprintf(`{"id": %d, "price": %.2f, "active": %t, "lines": [{"sku": "s%d", "qty": %d}]}`,
			i+1, rng.Float64()*1000, rng.Intn(2) == 1, i, rng.Intn(100))
	}
	return "[" + strings.Join(items, ", ") + "]"
}

// pipeline runs every transformation over one sample.
func pipeline(b *testing.B, doc string) {
	b.Helper()
	ir, err := parser.ParseString(doc)
	if err != nil {
		b.Fatal(err)
	}
	node, err := analyzer.NewAnalyzer().Infer(ir.Root)
	if err != nil {
		b.Fatal(err)
	}
	rows, err := table.NewBuilder(nil, nil).Normalize(node)
	if err != nil {
		b.Fatal(err)
	}
	_ = projector.Project(rows, projector.Options{ArrayComments: true})
	typeNode, err := generator.FromSchema(node, 0)
	if err != nil {
		b.Fatal(err)
	}
	_ = generator.Declaration("Root", typeNode)
	if _, err := mock.Directives(ir.Root); err != nil {
		b.Fatal(err)
	}
}

// BenchmarkDeepNesting benchmarks deeply nested samples
func BenchmarkDeepNesting(b *testing.B) {
	for _, depth := range []int{3, 5, 7} {
		doc := generateNestedJSON(depth, 2)
		b.Run(fmt.Sprintf("depth_%d", depth), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				pipeline(b, doc)
			}
		})
	}
}

// BenchmarkWideStructures benchmarks samples with many fields
func BenchmarkWideStructures(b *testing.B) {
	for _, fields := range []int{50, 200, 1000} {
		doc := generateWideJSON(fields)
		b.Run(fmt.Sprintf("fields_%d", fields), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				pipeline(b, doc)
			}
		})
	}
}

// BenchmarkArrayProcessing benchmarks long arrays. Only the first element
// shapes the output, so parsing dominates.
func BenchmarkArrayProcessing(b *testing.B) {
	for _, items := range []int{10, 1000, 10000} {
		doc := generateArrayJSON(items)
		b.Run(fmt.Sprintf("items_%d", items), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				pipeline(b, doc)
			}
		})
	}
}

// BenchmarkSharedBuilder benchmarks concurrent normalization through one
// Builder.
func BenchmarkSharedBuilder(b *testing.B) {
	ir, err := parser.ParseString(generateArrayJSON(1))
	if err != nil {
		b.Fatal(err)
	}
	node, err := analyzer.NewAnalyzer().Infer(ir.Root)
	if err != nil {
		b.Fatal(err)
	}
	builder := table.NewBuilder(nil, nil)
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := builder.Normalize(node); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
