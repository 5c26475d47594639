package cli

import (
	"bytes"
	stdbinary "encoding/binary"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/robert-malhotra/go-artile/artile"
	"github.com/robert-malhotra/go-artile/internal/sources/nd2/nd2test"
	"github.com/robert-malhotra/go-artile/internal/sources/tiff/tifftest"
	"github.com/robert-malhotra/go-artile/ndarray"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeTIFF(t *testing.T, path string) {
	t.Helper()
	page, err := ndarray.FromSlice([]uint8{1, 2, 3, 4, 5, 6}, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if err := tifftest.WriteFile(path, stdbinary.LittleEndian, page); err != nil {
		t.Fatal(err)
	}
}

func writeND2(t *testing.T, path string) {
	t.Helper()
	spec := nd2test.Spec{Width: 8, Height: 4, Loops: []nd2test.Loop{{Type: 4, Count: 3}}}
	if err := nd2test.WriteFile(path, spec); err != nil {
		t.Fatal(err)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { artile.SetLogger(nil) })

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// --- manifest ---

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.yaml")
	writeFile(t, path, `
dask: false
images:
  - path: a.tif
  - path: /abs/b.nd2
    link_data: false
  - path: c.tiff
    dask: true
`)

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	want := []ManifestImage{
		{Path: filepath.Join(dir, "a.tif"), Dask: false, LinkData: true},
		{Path: "/abs/b.nd2", Dask: false, LinkData: false},
		{Path: filepath.Join(dir, "c.tiff"), Dask: true, LinkData: true},
	}
	if diff := cmp.Diff(want, m.Images); diff != "" {
		t.Errorf("images mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadManifestErrors(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"empty.yaml":   "images: []\n",
		"nopath.yaml":  "images:\n  - dask: true\n",
		"broken.yaml":  "images: [\n",
		"missing.yaml": "",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if name != "missing.yaml" {
				writeFile(t, path, content)
			}
			_, err := LoadManifest(path)
			var merr *ManifestError
			if !errors.As(err, &merr) {
				t.Fatalf("error = %v, want *ManifestError", err)
			}
			if merr.Path != path {
				t.Errorf("Path = %q, want %q", merr.Path, path)
			}
		})
	}
}

func TestLoadManifestMissingUnwraps(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "none.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want os.ErrNotExist", err)
	}
}

// --- info ---

func TestInfoTIFF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plane.tif")
	writeTIFF(t, path)

	out, err := run(t, "info", path, "--dask=false", "--format", "json")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	var payload struct {
		Tiles []tileSummary `json:"tiles"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	want := []tileSummary{{
		Path: path, Kind: "array", Shape: []int{2, 3}, DType: "uint8", Pages: 1,
		Dask: false, LinkData: true,
	}}
	if diff := cmp.Diff(want, payload.Tiles); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestInfoTIFFStackPages(t *testing.T) {
	var pages []*ndarray.Dense
	for i := range 3 {
		p, err := ndarray.FromSlice([]uint8{uint8(i), 1, 2, 3}, 2, 2)
		if err != nil {
			t.Fatal(err)
		}
		pages = append(pages, p)
	}
	path := filepath.Join(t.TempDir(), "stack.tiff")
	if err := tifftest.WriteFile(path, stdbinary.BigEndian, pages...); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "info", path)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	for _, want := range []string{"pages:     3", "shape:     [3 2 2]"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInfoND2Chunks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stack.nd2")
	writeND2(t, path)

	out, err := run(t, "info", path, "--chunks")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	for _, want := range []string{"kind:      nd2", "axes:      ZYX", "ImageAttributesLV!", "frames:    3"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInfoUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.csv")
	writeFile(t, path, "a,b\n")

	if _, err := run(t, "info", path); !errors.Is(err, artile.ErrUnsupportedFileType) {
		t.Errorf("error = %v, want ErrUnsupportedFileType", err)
	}
}

func TestInfoBadFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plane.tif")
	writeTIFF(t, path)
	if _, err := run(t, "info", path, "--format", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

// --- batch ---

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	writeTIFF(t, filepath.Join(dir, "a.tif"))
	writeND2(t, filepath.Join(dir, "b.nd2"))
	manifest := filepath.Join(dir, "batch.yaml")
	writeFile(t, manifest, "link_data: false\nimages:\n  - path: a.tif\n  - path: b.nd2\n")

	out, err := run(t, "batch", manifest, "--format", "json")
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	var payload struct {
		RunID string        `json:"run_id"`
		Tiles []tileSummary `json:"tiles"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(payload.RunID) != 36 {
		t.Errorf("run_id = %q, want a UUID", payload.RunID)
	}
	if len(payload.Tiles) != 2 {
		t.Fatalf("got %d tiles, want 2", len(payload.Tiles))
	}
	if payload.Tiles[0].Kind != "array" || !payload.Tiles[0].Dask {
		t.Errorf("tile 0 = %+v, want lazy array", payload.Tiles[0])
	}
	if payload.Tiles[1].Kind != "nd2" || payload.Tiles[1].Sizes["Z"] != 3 {
		t.Errorf("tile 1 = %+v, want nd2 with Z=3", payload.Tiles[1])
	}
	for i, s := range payload.Tiles {
		if s.LinkData {
			t.Errorf("tile %d LinkData = true, want false", i)
		}
	}
}

func TestBatchLoadError(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "batch.yaml")
	writeFile(t, manifest, "images:\n  - path: missing.tif\n")

	_, err := run(t, "batch", manifest)
	if !errors.Is(err, artile.ErrInvalidImage) {
		t.Errorf("error = %v, want ErrInvalidImage", err)
	}
}
