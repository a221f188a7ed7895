package common

import "errors"

var (
	// ErrZeroCascades is returned when a shadow pass is configured without any cascades.
	ErrZeroCascades = errors.New("shadow pass requires at least one cascade")
	// ErrShaderNotFound is returned when a named shader stage cannot be located in the shader file system.
	ErrShaderNotFound = errors.New("shader not found")
	// ErrShaderCompile is returned when WGSL source fails to parse or the device rejects it.
	ErrShaderCompile = errors.New("shader compilation failed")
	// ErrObjectExists is returned when registering an object id that is already registered.
	ErrObjectExists = errors.New("object already registered")
	// ErrObjectNotFound is returned when unregistering an object id that was never registered.
	ErrObjectNotFound = errors.New("object not registered")
	// ErrInvalidDescriptor is returned when a resource descriptor has zero or inconsistent dimensions.
	ErrInvalidDescriptor = errors.New("invalid resource descriptor")
	// ErrUnsupportedFormat is returned when a texture format cannot be used for the requested purpose.
	ErrUnsupportedFormat = errors.New("unsupported texture format")
	// ErrCascadeOutOfRange is returned when a cascade index falls outside the configured cascade count.
	ErrCascadeOutOfRange = errors.New("cascade index out of range")
)
