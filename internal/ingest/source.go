package ingest

import (
	"context"
	"errors"

	"github.com/sony/gobreaker"
)

// ErrNoSlateSource is returned when neither a slate URL nor a file is configured
var ErrNoSlateSource = errors.New("no slate source configured")

// ErrSlateCircuitOpen is reported by Ready while the remote source is tripped
var ErrSlateCircuitOpen = errors.New("slate source circuit is open")

// Source resolves the configured slate, preferring URL over File
type Source struct {
	Fetcher *Fetcher
	URL     string
	File    string
}

// NewSource creates a slate source
func NewSource(fetcher *Fetcher, url, file string) *Source {
	return &Source{Fetcher: fetcher, URL: url, File: file}
}

// Load reads the current slate. Every call yields a fresh snapshot.
func (s *Source) Load(ctx context.Context) (*Slate, error) {
	switch {
	case s.URL != "":
		return s.Fetcher.Fetch(ctx, s.URL)
	case s.File != "":
		return s.Fetcher.Load(s.File)
	default:
		return nil, ErrNoSlateSource
	}
}

// Ready reports whether Load can be expected to succeed
func (s *Source) Ready() error {
	if s.URL == "" && s.File == "" {
		return ErrNoSlateSource
	}
	if s.URL != "" && s.Fetcher.State() == gobreaker.StateOpen {
		return ErrSlateCircuitOpen
	}
	return nil
}
