package catalog

import "errors"

var (
	ErrPluginNotFound      = errors.New("plugin not found")
	ErrPluginUnavailable   = errors.New("plugin is not available for purchase")
	ErrInvalidCatalog      = errors.New("invalid plugin catalog")
	ErrFailedToLoadCatalog = errors.New("failed to load plugin catalog")
	ErrCatalogFileNotFound = errors.New("plugin catalog file not found")
)
