package buffer

import (
	"fmt"
	"testing"
)

// BenchmarkBufferWrite benchmarks Write operations across policies and sizes.
func BenchmarkBufferWrite(b *testing.B) {
	benchmarks := []struct {
		name     string
		capacity int
		policy   OverflowPolicy
	}{
		{"Circular_100_DropOldest", 100, DropOldest},
		{"Circular_100_DropNewest", 100, DropNewest},
		{"Circular_1000_DropOldest", 1000, DropOldest},
		{"Circular_1000_DropNewest", 1000, DropNewest},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			buf, err := NewCircularBuffer[int](bm.capacity, WithOverflowPolicy[int](bm.policy))
			if err != nil {
				b.Fatal(err)
			}
			defer buf.Close()

			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				i := 0
				for pb.Next() {
					_ = buf.Write(i)
					i++
				}
			})
		})
	}
}

// BenchmarkBufferReadBatch benchmarks the tick-drain pattern used by consumers.
func BenchmarkBufferReadBatch(b *testing.B) {
	for _, batchSize := range []int{1, 10, 100} {
		b.Run(fmt.Sprintf("Batch_%d", batchSize), func(b *testing.B) {
			buf, err := NewCircularBuffer[int](1000)
			if err != nil {
				b.Fatal(err)
			}
			defer buf.Close()

			for i := 0; i < 1000; i++ {
				_ = buf.Write(i)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				items := buf.ReadBatch(batchSize)
				for _, item := range items {
					_ = buf.Write(item)
				}
			}
		})
	}
}

// BenchmarkBufferMixed simulates concurrent producers and one draining consumer.
func BenchmarkBufferMixed(b *testing.B) {
	buf, err := NewCircularBuffer[int](1000)
	if err != nil {
		b.Fatal(err)
	}
	defer buf.Close()

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if i%10 == 0 {
				buf.ReadBatch(10)
			} else {
				_ = buf.Write(i)
			}
			i++
		}
	})
}
