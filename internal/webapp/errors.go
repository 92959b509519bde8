package webapp

import "errors"

// Domain-specific errors for the web app environment.
var (
	// ErrRootMissing is returned when the web app directory does not exist.
	ErrRootMissing = errors.New("web app directory not found")

	// ErrManifestMissing is returned when package.json is absent.
	ErrManifestMissing = errors.New("manifest not found")

	// ErrInvalidManifest is returned when package.json is not valid JSON.
	ErrInvalidManifest = errors.New("invalid manifest")

	// ErrNodeNotFound is returned when no Node.js executable can be resolved.
	ErrNodeNotFound = errors.New("node executable not found")
)
