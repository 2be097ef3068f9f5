package organize

// RelocatorFactory creates a Relocator for a source folder
// This allows for dependency injection in tests
type RelocatorFactory func(sourceDir string) Relocator

// Default factory that creates a real relocator
var DefaultRelocatorFactory RelocatorFactory = func(sourceDir string) Relocator {
	return New(sourceDir)
}

// CurrentRelocatorFactory is the currently active factory
// This can be swapped in tests
var CurrentRelocatorFactory = DefaultRelocatorFactory

// SetRelocatorFactory sets a custom relocator factory for dependency injection
func SetRelocatorFactory(factory RelocatorFactory) {
	CurrentRelocatorFactory = factory
}

// ResetRelocatorFactory resets to the default relocator factory
func ResetRelocatorFactory() {
	CurrentRelocatorFactory = DefaultRelocatorFactory
}
