package assets

import "github.com/ChrisPortokalis/EngineBase/internal/scene"

// Placeholder is a Loader that never fails. Meshes and textures carry the
// requested name with zero GL handles, programs are 0 and sounds are empty.
// It stands in for real assets in headless runs and when a load fails.
type Placeholder struct{}

var _ Loader = Placeholder{}

func (Placeholder) Mesh(file string) (*scene.Mesh, error) {
	return &scene.Mesh{Name: file}, nil
}

func (Placeholder) Texture(file string) (*scene.Texture, error) {
	return &scene.Texture{Name: file}, nil
}

func (Placeholder) Program(vertex, fragment string) (uint32, error) {
	return 0, nil
}

func (Placeholder) Sound(file string) ([]byte, error) {
	return nil, nil
}

// Sounds is a Loader that reads sounds from a Store and leaves every GPU
// resource a placeholder.
type Sounds struct {
	Placeholder
	Store *Store
}

var _ Loader = Sounds{}

// Sound returns the file's bytes.
func (s Sounds) Sound(file string) ([]byte, error) {
	return s.Store.Load(file)
}
