package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/go-artile/artile"
)

type yamlManifest struct {
	Dask     *bool       `yaml:"dask"`
	LinkData *bool       `yaml:"link_data"`
	Images   []yamlImage `yaml:"images"`
}

type yamlImage struct {
	Path     string `yaml:"path"`
	Dask     *bool  `yaml:"dask"`
	LinkData *bool  `yaml:"link_data"`
}

// Manifest lists the images of a batch run.
type Manifest struct {
	Path   string
	Images []ManifestImage
}

// ManifestImage is one image with its resolved load flags.
type ManifestImage struct {
	Path     string
	Dask     bool
	LinkData bool
}

// Options returns the load options for the image.
func (m ManifestImage) Options() []artile.LoadOption {
	return []artile.LoadOption{artile.WithDask(m.Dask), artile.WithLinkData(m.LinkData)}
}

// ManifestError reports a manifest that could not be read or is invalid.
type ManifestError struct {
	Path string
	Err  error
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("manifest %s: %v", e.Path, e.Err)
}

func (e *ManifestError) Unwrap() error {
	return e.Err
}

var errNoImages = errors.New("no images listed")

// LoadManifest reads a YAML manifest. Image paths are resolved relative to
// the manifest's directory; flags default to the manifest-level values,
// which default to true.
func LoadManifest(path string) (Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, &ManifestError{Path: path, Err: err}
	}

	var dto yamlManifest
	if err := yaml.Unmarshal(b, &dto); err != nil {
		return Manifest{}, &ManifestError{Path: path, Err: err}
	}
	return mapManifest(path, dto)
}

func mapManifest(path string, dto yamlManifest) (Manifest, error) {
	if len(dto.Images) == 0 {
		return Manifest{}, &ManifestError{Path: path, Err: errNoImages}
	}

	dask := boolOr(dto.Dask, true)
	link := boolOr(dto.LinkData, true)
	base := filepath.Dir(path)

	m := Manifest{Path: path, Images: make([]ManifestImage, 0, len(dto.Images))}
	for i, img := range dto.Images {
		if img.Path == "" {
			return Manifest{}, &ManifestError{Path: path, Err: fmt.Errorf("images[%d]: path is required", i)}
		}
		p := img.Path
		if !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		m.Images = append(m.Images, ManifestImage{
			Path:     p,
			Dask:     boolOr(img.Dask, dask),
			LinkData: boolOr(img.LinkData, link),
		})
	}
	return m, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
