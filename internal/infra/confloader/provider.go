package confloader

import (
	"errors"

	"github.com/knadh/koanf/maps"
)

// ErrReadBytesNotSupported is returned when ReadBytes is called on a flag provider.
var ErrReadBytesNotSupported = errors.New("confloader: ReadBytes not supported by flag provider, use Read() instead")

// flagProvider is a koanf provider over flag values keyed by dotted path.
type flagProvider map[string]any

// newFlagProvider drops nil values.
func newFlagProvider(flags map[string]any) flagProvider {
	p := make(flagProvider, len(flags))
	for k, v := range flags {
		if v != nil {
			p[k] = v
		}
	}
	return p
}

// ReadBytes is not supported; koanf uses Read.
func (p flagProvider) ReadBytes() ([]byte, error) {
	return nil, ErrReadBytesNotSupported
}

// Read returns the flag values as a nested map.
func (p flagProvider) Read() (map[string]any, error) {
	return maps.Unflatten(p, "."), nil
}
