package core

import (
	"context"
	"time"
)

// Source is a configured grocery provider. Sources are long lived and hold
// only configuration: every search opens its own Adapter session.
//
// Key concepts:
// - Type vs Name: Type is the provider kind (e.g., "zepto"), Name is the configured instance (e.g., "zepto_blr")
// - Platform: the display name every record from this source is tagged with
// - Sessions: Open returns an Adapter that exclusively owns its browser or HTTP resources
//
// Registration pattern:
//
//	func init() {
//		core.RegisterSourcePrototype("zepto", &Source{})
//	}
type Source interface {
	// Type returns the provider identifier used in configuration files.
	Type() string

	// Name returns the instance name.
	Name() string

	// Platform returns the display name used to tag product records.
	Platform() string

	// RequiresLocation reports whether the provider can't search without a
	// delivery location. Such sources are skipped when the query has none.
	RequiresLocation() bool

	// Timeout bounds one search against this source.
	Timeout() time.Duration

	// ConfigType returns a pointer to an empty configuration struct.
	// Should return the same type that SetConfig() expects.
	ConfigType() any

	// SetConfig updates the source configuration.
	SetConfig(config any) error

	// GetConfig returns the current configuration.
	GetConfig() any

	// Factory creates a new instance of this source type.
	// config may be nil, in which case defaults are used.
	Factory(instanceName string, config any) (Source, error)

	// Open starts a session for a single search. The caller must Close the
	// returned Adapter.
	Open(ctx context.Context) (Adapter, error)
}

// Adapter is a single search session against a provider.
type Adapter interface {
	// Search returns the product cards found for q. Records don't carry a
	// platform or provenance; the aggregator and search service add those.
	// Implementations must honour ctx cancellation.
	Search(ctx context.Context, q Query) ([]ProductRecord, error)

	// Close releases the session resources. It is always called, including
	// after a failed or panicking search.
	Close() error
}

// LocationConfigurer is implemented by adapters that need the delivery
// location applied before searching.
type LocationConfigurer interface {
	ConfigureLocation(ctx context.Context, location, pincode string) error
}

// TimeoutSetter is implemented by sources whose timeout comes from the
// per-source configuration entry rather than the provider config.
type TimeoutSetter interface {
	SetTimeout(d time.Duration)
}
