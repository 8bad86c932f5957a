// Package endpoints defines the HTTP API surface. Each endpoint pairs a
// route with a CLI command that calls it, so the HTTP and command surfaces
// cannot drift apart.
package endpoints

import "github.com/pastq-dev/pastq/internal/api"

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},

		// Extraction job endpoints
		&StartEndpoint{},
		&StopEndpoint{},
		&ContinueEndpoint{},
		&StatusEndpoint{},
		&LogsEndpoint{},
		&StatisticsEndpoint{},
	}
}
