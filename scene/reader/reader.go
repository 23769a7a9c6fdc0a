package reader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/skyloutyr/vtt-raycast/asset"
	"github.com/skyloutyr/vtt-raycast/bvh"
	"github.com/skyloutyr/vtt-raycast/scene"
)

var (
	ErrUnsupportedFormat = errors.New("reader: unsupported file format")
)

// The Reader interface is implemented by all scene readers.
type Reader interface {
	// Read scene definition from a resource.
	Read(*asset.Resource) (*scene.Scene, error)
}

// Read scene from file. The supplied options are passed to the BVH builder
// for each mesh in the scene.
func ReadScene(filename string, opts ...bvh.Option) (*scene.Scene, error) {
	// Select reader based on file extension
	var reader Reader
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".obj":
		reader = NewWavefrontReader(opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
	}

	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return reader.Read(res)
}
