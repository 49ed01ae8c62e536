package quire

import (
	"fmt"

	"log/slog"

	"github.com/aretw0/quire/pkg/adapters/process"
	"github.com/aretw0/quire/pkg/document"
	"github.com/aretw0/quire/pkg/kernel"
	"github.com/aretw0/quire/pkg/ports"
)

// config collects the pieces needed to assemble a document with its
// kernel session.
type config struct {
	kernelName   string
	registryPath string
	registry     kernel.Registry
	transport    ports.KernelTransport
	kernelOpts   []kernel.Option
	docOpts      []document.Option
	logger       *slog.Logger
}

// Option defines a functional option for configuring document assembly.
type Option func(*config)

// WithKernel selects a kernel by name from the registry. An empty name
// selects the registry default.
func WithKernel(name string) Option {
	return func(c *config) {
		c.kernelName = name
	}
}

// WithRegistryFile loads the kernel registry from the given YAML file,
// bypassing the default lookup.
func WithRegistryFile(path string) Option {
	return func(c *config) {
		c.registryPath = path
	}
}

// WithRegistry injects an already-loaded kernel registry.
func WithRegistry(r kernel.Registry) Option {
	return func(c *config) {
		c.registry = r
	}
}

// WithTransport injects a custom kernel transport, bypassing the default
// child-process transport.
func WithTransport(t ports.KernelTransport) Option {
	return func(c *config) {
		c.transport = t
	}
}

// WithKernelOptions passes session options through to the kernel session.
func WithKernelOptions(opts ...kernel.Option) Option {
	return func(c *config) {
		c.kernelOpts = append(c.kernelOpts, opts...)
	}
}

// WithDocumentOptions passes document options through to the document.
func WithDocumentOptions(opts ...document.Option) Option {
	return func(c *config) {
		c.docOpts = append(c.docOpts, opts...)
	}
}

// WithLogger sets a structured logger for the session and document.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// DefaultRegistryFile is where kernels are looked up when no registry is
// injected.
const DefaultRegistryFile = "kernels.yaml"

func assemble(path string, opts ...Option) (*document.Document, error) {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}

	if c.registry == nil {
		registryPath := c.registryPath
		if registryPath == "" {
			registryPath = DefaultRegistryFile
		}
		registry, err := kernel.LoadRegistry(registryPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load kernel registry: %w", err)
		}
		c.registry = registry
	}

	spec, ok := c.registry.Lookup(c.kernelName)
	if !ok {
		return nil, fmt.Errorf("unknown kernel %q", c.kernelName)
	}

	if c.transport == nil {
		var processOpts []process.Option
		if c.logger != nil {
			processOpts = append(processOpts, process.WithLogger(c.logger))
		}
		c.transport = process.NewTransport(processOpts...)
	}

	kernelOpts := c.kernelOpts
	docOpts := c.docOpts
	if c.logger != nil {
		kernelOpts = append(kernelOpts, kernel.WithLogger(c.logger))
		docOpts = append(docOpts, document.WithLogger(c.logger))
	}

	session := kernel.NewSession(c.transport, spec, kernelOpts...)
	doc := document.New(path, session, docOpts...)
	if err := doc.Load(); err != nil {
		doc.Close()
		return nil, err
	}
	return doc, nil
}

// Open opens the notebook file at path with a kernel session attached.
// The file's content is loaded into the document; an unreadable or corrupt
// file is reported as an error.
func Open(path string, opts ...Option) (*document.Document, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required, use New for unsaved documents")
	}
	return assemble(path, opts...)
}

// New creates an empty unsaved document with a kernel session attached.
// The document has no bound path until the first save.
func New(opts ...Option) (*document.Document, error) {
	return assemble(document.UnsavedPath, opts...)
}
