// Package stats periodically logs the runtime statistics of the daemon and
// dumps the default prometheus metrics to file on exit.
package stats

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const (
	BYTE = 1 << (10 * iota)
	KILOBYTE
	MEGABYTE
	GIGABYTE

	dumpFilename = "metrics.dump"
)

// EnableMemoryStatistics starts a goroutine that logs the memory usage and
// the number of goroutines of the process every interval. Once the context
// is done, the default prometheus metrics are appended to a file in dir.
func EnableMemoryStatistics(ctx context.Context, interval time.Duration, dir string) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				logMemoryStatistics()
			case <-ctx.Done():
				if err := DumpPrometheusDefaults(filepath.Join(dir, dumpFilename)); err != nil {
					log.WithError(err).Warn("failed to dump prometheus metrics")
				}
				return
			}
		}
	}()
}

func toMegabytes(bytes uint64) float64 {
	return float64(bytes) / MEGABYTE
}

func logMemoryStatistics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	log.WithFields(log.Fields{
		"total_alloc_mb": fmt.Sprintf("%.3f", toMegabytes(memStats.TotalAlloc)),
		"heap_alloc_mb":  fmt.Sprintf("%.3f", toMegabytes(memStats.HeapAlloc)),
		"mallocs":        memStats.Mallocs,
		"frees":          memStats.Frees,
		"goroutines":     runtime.NumGoroutine(),
	}).Info("runtime statistics")
}

// DumpPrometheusDefaults appends the metrics of the default prometheus
// gatherer to the given file.
func DumpPrometheusDefaults(path string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	metricFamilies, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}

	writer := bufio.NewWriter(file)
	fmt.Fprintf(writer, "# %s\n", time.Now().UTC().Format(time.RFC3339))
	for _, mf := range metricFamilies {
		if _, err := writer.WriteString(mf.String() + "\n"); err != nil {
			return err
		}
	}
	return writer.Flush()
}
