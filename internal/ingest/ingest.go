// Package ingest wires the stream decoder to the series store: one raw
// transport chunk in, zero or more samples applied.
package ingest

import (
	"github.com/luki/weighplot/internal/decoder"
	"github.com/luki/weighplot/internal/series"
)

// Pipeline owns a decoder and the store it feeds.
type Pipeline struct {
	Decoder *decoder.Decoder
	Store   *series.Store
}

// New builds a pipeline from its two halves.
func New(d *decoder.Decoder, s *series.Store) *Pipeline {
	return &Pipeline{Decoder: d, Store: s}
}

// Ingest decodes chunk and appends each value in arrival order. It returns
// the values applied.
func (p *Pipeline) Ingest(chunk []byte) []float64 {
	values := p.Decoder.FeedBytes(chunk)
	for _, v := range values {
		p.Store.Append(v)
	}
	return values
}

// IngestEach is Ingest with a callback after every append, while the
// store still reflects that sample as Last.
func (p *Pipeline) IngestEach(chunk []byte, each func(series.Sample)) int {
	values := p.Decoder.FeedBytes(chunk)
	for _, v := range values {
		p.Store.Append(v)
		each(series.Sample{Index: p.Store.Total() - 1, Value: v})
	}
	return len(values)
}
