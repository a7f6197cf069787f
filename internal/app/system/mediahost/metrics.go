package mediahost

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "splereg_media_uploads_total",
			Help: "Media host uploads by backend, folder and result.",
		},
		[]string{"backend", "folder", "result"},
	)

	uploadBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "splereg_media_upload_bytes_total",
			Help: "Bytes accepted by the media host.",
		},
		[]string{"backend"},
	)

	uploadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "splereg_media_upload_duration_seconds",
			Help:    "Media host upload latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)
)

type instrumented struct {
	next    Uploader
	backend string
}

// Instrument wraps u so every call is counted and timed.
func Instrument(u Uploader, backend string) Uploader {
	return &instrumented{next: u, backend: backend}
}

func (i *instrumented) Upload(ctx context.Context, p Payload, folder string) (Reference, error) {
	start := time.Now()
	ref, err := i.next.Upload(ctx, p, folder)
	uploadDuration.WithLabelValues(i.backend).Observe(time.Since(start).Seconds())

	result := "ok"
	if err != nil {
		result = "error"
	} else {
		uploadBytesTotal.WithLabelValues(i.backend).Add(float64(ref.Bytes))
	}
	uploadsTotal.WithLabelValues(i.backend, folder, result).Inc()
	return ref, err
}
