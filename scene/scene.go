package scene

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/skyloutyr/vtt-raycast/bvh"
	"github.com/skyloutyr/vtt-raycast/log"
	"github.com/skyloutyr/vtt-raycast/types"
)

var (
	ErrMeshNotFound      = errors.New("scene: mesh not found")
	ErrDuplicateMesh     = errors.New("scene: duplicate mesh name")
	ErrSingularTransform = errors.New("scene: instance transform is not invertible")
	ErrZeroLengthSegment = errors.New("scene: line of sight segment has zero length")
	ErrSceneClosed       = errors.New("scene: scene is closed")
)

// Hits closer than this to the line of sight target are attributed to the
// target itself.
const losEpsilon float32 = 1e-4

// A Scene holds a set of meshes and the instances that place them in the
// world. Queries may run concurrently with each other; mutations take an
// exclusive lock.
type Scene struct {
	logger log.Logger

	mu         sync.RWMutex
	closed     bool
	meshes     []*Mesh
	meshByName map[string]*Mesh
	instances  []*Instance

	// Options passed to the BVH builder for each added mesh.
	buildOpts []bvh.Option
}

// Create an empty scene. The supplied options are used when building the
// BVH of each mesh added to the scene.
func New(buildOpts ...bvh.Option) *Scene {
	return &Scene{
		logger:     log.New("scene"),
		meshByName: make(map[string]*Mesh),
		buildOpts:  buildOpts,
	}
}

// Build a mesh from a triangle soup and add it to the scene.
func (sc *Scene) AddMesh(name string, vertices []types.Vec3) (*Mesh, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.closed {
		return nil, ErrSceneClosed
	}
	if _, exists := sc.meshByName[name]; exists {
		return nil, fmt.Errorf("%w '%s'", ErrDuplicateMesh, name)
	}

	sc.logger.Infof(`building BVH for mesh "%s" (%d triangles)`, name, len(vertices)/3)
	mesh, err := NewMesh(name, vertices, sc.buildOpts...)
	if err != nil {
		return nil, fmt.Errorf("scene: could not build mesh '%s': %w", name, err)
	}

	sc.meshes = append(sc.meshes, mesh)
	sc.meshByName[name] = mesh
	return mesh, nil
}

// Lookup a mesh by name.
func (sc *Scene) Mesh(name string) (*Mesh, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	mesh, exists := sc.meshByName[name]
	if !exists {
		return nil, fmt.Errorf("%w '%s'", ErrMeshNotFound, name)
	}
	return mesh, nil
}

// Place an instance of a named mesh in the world using the supplied
// local-to-world transformation.
func (sc *Scene) AddInstance(meshName string, transform types.Mat4) (*Instance, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.closed {
		return nil, ErrSceneClosed
	}
	mesh, exists := sc.meshByName[meshName]
	if !exists {
		return nil, fmt.Errorf("%w '%s'", ErrMeshNotFound, meshName)
	}
	if !transform.Invertible() {
		return nil, fmt.Errorf("%w (mesh '%s')", ErrSingularTransform, meshName)
	}

	inst := &Instance{
		ID:           len(sc.instances),
		Mesh:         mesh,
		transform:    transform,
		invTransform: transform.Inv(),
		bounds:       mesh.Bounds().Transform(transform),
	}
	sc.instances = append(sc.instances, inst)
	return inst, nil
}

// Get the scene meshes.
func (sc *Scene) Meshes() []*Mesh {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return append([]*Mesh(nil), sc.meshes...)
}

// Get the scene instances.
func (sc *Scene) Instances() []*Instance {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return append([]*Instance(nil), sc.instances...)
}

// Get the world space bounds of all instances.
func (sc *Scene) Bounds() types.AABox {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	bounds := types.EmptyAABox()
	for _, inst := range sc.instances {
		bounds = bounds.Union(inst.bounds)
	}
	return bounds
}

// Cast a ray through the scene and return all hits sorted by their world
// space distance to the ray origin.
func (sc *Scene) Raycast(ray types.Ray) []SceneHit {
	return sc.raycast(ray, bvh.NewQueryState(ray), nil)
}

// Cast a ray reusing the supplied query state and hit buffer.
func (sc *Scene) raycast(ray types.Ray, qs *bvh.QueryState, out []SceneHit) []SceneHit {
	sc.mu.RLock()
	for _, inst := range sc.instances {
		out = inst.raycast(ray, qs, out)
	}
	sc.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Distance < out[j].Distance
	})
	return out
}

// Find the nearest hit along the ray.
func (sc *Scene) Pick(ray types.Ray) (SceneHit, bool) {
	hits := sc.Raycast(ray)
	if len(hits) == 0 {
		return SceneHit{}, false
	}
	return hits[0], true
}

// Get the world space distance from the ray origin to the nearest surface
// along the ray.
func (sc *Scene) Measure(ray types.Ray) (float32, bool) {
	hit, ok := sc.Pick(ray)
	if !ok {
		return 0, false
	}
	return hit.Distance, true
}

// Check whether the straight segment between two world space points is
// unobstructed. Surfaces touching the target point do not block it.
func (sc *Scene) LineOfSight(from, to types.Vec3) (bool, error) {
	segLen := from.Distance(to)
	if segLen == 0 {
		return false, ErrZeroLengthSegment
	}

	hits := sc.Raycast(types.RayThrough(from, to))
	if len(hits) != 0 && hits[0].Distance < segLen-losEpsilon {
		return false, nil
	}
	return true, nil
}

// Release all mesh BVHs. Queries against a closed scene report no hits.
func (sc *Scene) Close() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	for _, mesh := range sc.meshes {
		mesh.Close()
	}
	sc.meshes = nil
	sc.meshByName = make(map[string]*Mesh)
	sc.instances = nil
	sc.closed = true
}
