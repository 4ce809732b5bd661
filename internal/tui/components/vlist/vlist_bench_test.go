package vlist

import (
	"fmt"
	"testing"
)

type benchRow struct {
	id   string
	text string
}

func (r benchRow) Key() string {
	return r.id
}

func createBenchRows(n int) []benchRow {
	rows := make([]benchRow, n)
	for i := range rows {
		rows[i] = benchRow{
			id:   fmt.Sprintf("row-%d", i),
			text: fmt.Sprintf("AAPL %8.2f x %5d trade %d", 187.0+float64(i%100)/100, i%900+100, i),
		}
	}
	return rows
}

func newBenchList(b *testing.B, n int) *List[benchRow] {
	b.Helper()
	l, err := New(createBenchRows(n),
		WithSize[benchRow](80, 30),
		WithRenderFunc(func(r benchRow, index, width int) string {
			return r.text
		}),
	)
	if err != nil {
		b.Fatal(err)
	}
	l.ctrl.Invalidate()
	l.ctrl.Step(l.items)
	return l
}

// BenchmarkWindowRecompute measures one full recompute pipeline. The
// cost must track the window size, not the collection size.
func BenchmarkWindowRecompute(b *testing.B) {
	sizes := []int{100, 500, 1000, 5000, 10000}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("Items_%d", size), func(b *testing.B) {
			l := newBenchList(b, size)
			maxScroll := l.ctrl.Geometry().MaxScroll(size)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				l.ctrl.Sample((i*7)%(maxScroll+1), l.items)
				l.ctrl.Step(l.items)
			}
		})
	}
}

// BenchmarkView measures rendering the committed window with a warm
// cache.
func BenchmarkView(b *testing.B) {
	sizes := []int{100, 500, 1000, 5000, 10000}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("Items_%d", size), func(b *testing.B) {
			l := newBenchList(b, size)
			_ = l.View()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = l.View()
			}
		})
	}
}

// BenchmarkScrollThrough scrolls across the whole collection, stepping
// every frame, with a render per committed window.
func BenchmarkScrollThrough(b *testing.B) {
	l := newBenchList(b, 10000)
	maxScroll := l.ctrl.Geometry().MaxScroll(10000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for top := 0; top <= maxScroll; top += maxScroll / 100 {
			l.ctrl.Sample(top, l.items)
			l.ctrl.Step(l.items)
			_ = l.View()
		}
	}
}

// BenchmarkDiffVisible isolates the visibility diff for adjacent
// windows.
func BenchmarkDiffVisible(b *testing.B) {
	rows := Rows(createBenchRows(10000))
	prev := visibleSetOf[benchRow](nil, rows, Window{Start: 100, End: 140})
	cur := visibleSetOf[benchRow](nil, rows, Window{Start: 102, End: 142})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		diffVisible(prev, cur)
	}
}

// BenchmarkMemory tracks allocations for build, commit and first render.
func BenchmarkMemory(b *testing.B) {
	sizes := []int{100, 1000, 10000}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("Items_%d", size), func(b *testing.B) {
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				l := newBenchList(b, size)
				_ = l.View()
			}
		})
	}
}
