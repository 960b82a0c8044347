package zphy

import "golang.org/x/sync/errgroup"

// task runs fn over data split into one contiguous chunk per worker.
// With a single worker it runs inline, in order.
func task[T any](workersCount int, data []T, fn func(i int, data T)) {
	if workersCount <= 1 || len(data) <= 1 {
		for i, d := range data {
			fn(i, d)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(workersCount)

	dataSize := len(data)
	chunkSize := (dataSize + workersCount - 1) / workersCount

	for start := 0; start < dataSize; start += chunkSize {
		start := start
		end := min(start+chunkSize, dataSize)
		g.Go(func() error {
			for i := start; i < end; i++ {
				fn(i, data[i])
			}
			return nil
		})
	}
	_ = g.Wait()
}
