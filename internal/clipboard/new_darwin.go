//go:build darwin

package clipboard

// New returns the pasteboard backend.
func New() (Backend, error) {
	return NewDarwin(), nil
}
