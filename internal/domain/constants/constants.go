// Package constants defines shared domain-level constants.
package constants

const (
	// PubSubProviderLocal selects the HTTP push simulator for development.
	PubSubProviderLocal = "local"
	// PubSubProviderGoogle selects Google Cloud Pub/Sub.
	PubSubProviderGoogle = "google"
)

const (
	// EnvDevelop marks a local development deployment.
	EnvDevelop = "develop"
	// EnvProduction marks a production deployment.
	EnvProduction = "production"
)
