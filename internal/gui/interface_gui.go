//go:build !nogui

package gui

var _ Interface = (*App)(nil)

// Create returns a new GUI instance
func (f *Factory) Create() (Interface, error) {
	return NewApp(f.config), nil
}
