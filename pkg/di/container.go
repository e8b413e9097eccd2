// Package di provides dependency injection container
package di

import (
	"github.com/ssargent/wpilogviewer/pkg/api" //nolint:depguard
	"github.com/ssargent/wpilogviewer/pkg/storage"
)

// StorageOpener opens the snapshot store in a directory.
type StorageOpener func(dir string) (*storage.Storage, error)

// Container holds all the dependencies for the application
type Container struct {
	serverFactory api.ServerFactory
	storageOpener StorageOpener
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		serverFactory: api.NewServerFactory(),
		storageOpener: storage.Open,
	}
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}

// GetStorageOpener returns the snapshot store opener
func (c *Container) GetStorageOpener() StorageOpener {
	return c.storageOpener
}

// SetStorageOpener allows overriding the snapshot store opener (for testing)
func (c *Container) SetStorageOpener(opener StorageOpener) {
	c.storageOpener = opener
}
