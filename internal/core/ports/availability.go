package ports

import "context"

// HealthProber checks whether a backend base URL answers its health endpoint.
// A nil return means healthy; any error is a failed probe, never propagated
// to the request that triggered it.
type HealthProber interface {
	Probe(ctx context.Context, target string) error
}
