package bvh

import (
	"math"
	"sync"
	"testing"

	"github.com/skyloutyr/vtt-raycast/types"
)

// A Moller-Trumbore test over a triangle soup.
func soupTester(soup []types.Vec3) TriangleTester {
	return TriangleTesterFunc(func(ray types.Ray, tri uint32) (types.Vec3, bool) {
		v0, v1, v2 := soup[3*tri], soup[3*tri+1], soup[3*tri+2]
		e1, e2 := v1.Sub(v0), v2.Sub(v0)
		p := ray.Dir.Cross(e2)
		det := e1.Dot(p)
		if det > -1e-7 && det < 1e-7 {
			return types.Vec3{}, false
		}
		inv := 1.0 / det
		s := ray.Origin.Sub(v0)
		u := s.Dot(p) * inv
		if u < 0 || u > 1 {
			return types.Vec3{}, false
		}
		q := s.Cross(e1)
		v := ray.Dir.Dot(q) * inv
		if v < 0 || u+v > 1 {
			return types.Vec3{}, false
		}
		t := e2.Dot(q) * inv
		if t <= 1e-7 {
			return types.Vec3{}, false
		}
		return ray.At(t), true
	})
}

// Unit triangles stacked along +z at z = 0, 1, 2, ...
func triangleStack(count int) []types.Vec3 {
	soup := make([]types.Vec3, 0, 3*count)
	for k := 0; k < count; k++ {
		z := float32(k)
		soup = append(soup, types.Vec3{0, 0, z}, types.Vec3{1, 0, z}, types.Vec3{0, 1, z})
	}
	return soup
}

func TestIntersectSingleTriangle(t *testing.T) {
	soup := []types.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	tree, err := Build(soup)
	if err != nil {
		t.Fatal(err)
	}
	tester := soupTester(soup)

	hits := tree.Query(types.NewRay(types.Vec3{0.2, 0.2, -5}, types.Vec3{0, 0, 1}), tester)
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit; got %d", len(hits))
	}
	expPoint := types.Vec3{0.2, 0.2, 0}
	if !hits[0].Point.ApproxEqual(expPoint, 1e-5) {
		t.Fatalf("expected hit point %v; got %v", expPoint, hits[0].Point)
	}
	if math.Abs(float64(hits[0].Distance-5)) > 1e-5 {
		t.Fatalf("expected hit distance 5; got %f", hits[0].Distance)
	}

	qs := NewQueryState(types.NewRay(types.Vec3{2, 2, -5}, types.Vec3{0, 0, 1}))
	tree.Intersect(qs, tester)
	if len(qs.Hits) != 0 {
		t.Fatalf("expected no hits; got %d", len(qs.Hits))
	}
	if qs.LeafsVisited != 0 {
		t.Fatalf("expected ray outside the bounds to visit 0 leafs; got %d", qs.LeafsVisited)
	}
}

func TestIntersectMissVisitsNothing(t *testing.T) {
	soup := randomSoup(10, 400)
	tree, err := Build(soup)
	if err != nil {
		t.Fatal(err)
	}

	rays := []types.Ray{
		types.NewRay(types.Vec3{-10, -10, -10}, types.Vec3{-1, 0, 0}),
		types.NewRay(types.Vec3{500, 500, 500}, types.Vec3{1, 1, 1}),
		types.NewRay(types.Vec3{50, 200, 10}, types.Vec3{1, 0, 0}),
	}

	for index, ray := range rays {
		qs := NewQueryState(ray)
		tree.Intersect(qs, soupTester(soup))
		if len(qs.Hits) != 0 || qs.NodesVisited != 0 || qs.LeafsVisited != 0 || qs.TrianglesTested != 0 {
			t.Fatalf("[ray %d] expected no visits and no hits; got %d hits, %d nodes, %d leafs", index, len(qs.Hits), qs.NodesVisited, qs.LeafsVisited)
		}
	}
}

func TestIntersectEmptyTree(t *testing.T) {
	tree, err := Build([]types.Vec3{})
	if err != nil {
		t.Fatal(err)
	}

	tester := TriangleTesterFunc(func(types.Ray, uint32) (types.Vec3, bool) {
		t.Fatal("expected tester not to be invoked for an empty tree")
		return types.Vec3{}, false
	})

	qs := NewQueryState(types.NewRay(types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1}))
	tree.Intersect(qs, tester)
	if len(qs.Hits) != 0 || qs.LeafsVisited != 0 {
		t.Fatalf("expected empty tree to report nothing; got %d hits, %d leafs", len(qs.Hits), qs.LeafsVisited)
	}
}

func TestIntersectCollectsAllHitsInLeaf(t *testing.T) {
	soup := triangleStack(2)
	tree, err := Build(soup)
	if err != nil {
		t.Fatal(err)
	}

	qs := NewQueryState(types.NewRay(types.Vec3{0.2, 0.2, -5}, types.Vec3{0, 0, 1}))
	tree.Intersect(qs, soupTester(soup))

	if len(qs.Hits) != 2 {
		t.Fatalf("expected 2 hits; got %d", len(qs.Hits))
	}
	if qs.Closest != 5 {
		t.Fatalf("expected closest distance 5; got %f", qs.Closest)
	}
}

func TestIntersectPrunesFartherBoxes(t *testing.T) {
	soup := triangleStack(8)
	tree, err := Build(soup)
	if err != nil {
		t.Fatal(err)
	}

	qs := NewQueryState(types.NewRay(types.Vec3{0.2, 0.2, -5}, types.Vec3{0, 0, 1}))
	tree.Intersect(qs, soupTester(soup))

	// The leaf holding the two nearest triangles is visited first; every
	// other box starts beyond the closest hit.
	if len(qs.Hits) != 2 {
		t.Fatalf("expected 2 hits; got %d", len(qs.Hits))
	}
	for _, hit := range qs.Hits {
		if hit.Triangle > 1 {
			t.Fatalf("expected hits only for triangles 0 and 1; got triangle %d", hit.Triangle)
		}
	}
	if qs.LeafsVisited != 1 {
		t.Fatalf("expected 1 visited leaf; got %d", qs.LeafsVisited)
	}
	if qs.TrianglesTested != 2 {
		t.Fatalf("expected 2 triangle tests; got %d", qs.TrianglesTested)
	}

	// Casting from the other end reaches the far triangles first
	qs.Reset(types.NewRay(types.Vec3{0.2, 0.2, 20}, types.Vec3{0, 0, -1}))
	tree.Intersect(qs, soupTester(soup))
	if len(qs.Hits) == 0 || qs.Closest != 13 {
		t.Fatalf("expected closest hit at distance 13; got %f (%d hits)", qs.Closest, len(qs.Hits))
	}
}

func TestIntersectFindsNearestInRandomSoup(t *testing.T) {
	soup := randomSoup(11, 2000)
	tree, err := Build(soup)
	if err != nil {
		t.Fatal(err)
	}
	tester := soupTester(soup)

	// Brute force every ray against every triangle. The tree may skip hits
	// beyond the nearest one but must never report hits that don't exist.
	origins := randomSoup(12, 50)
	for index := 0; index < len(origins); index++ {
		origin := origins[index].Mul(1.2).Sub(types.Vec3{10, 5, 30})
		ray := types.NewRay(origin, types.Vec3{0, 0, 1})

		bruteForce := 0
		for tri := uint32(0); tri < uint32(len(soup)/3); tri++ {
			if _, hit := tester.IntersectTriangle(ray, tri); hit {
				bruteForce++
			}
		}

		hits := tree.Query(ray, tester)
		if len(hits) > bruteForce {
			t.Fatalf("[ray %d] expected at most %d hits; got %d", index, bruteForce, len(hits))
		}
		if bruteForce > 0 && len(hits) == 0 {
			t.Fatalf("[ray %d] expected at least one hit", index)
		}
	}
}

func TestIntersectDisposedTree(t *testing.T) {
	soup := triangleRow(10)
	tree, err := Build(soup)
	if err != nil {
		t.Fatal(err)
	}
	tree.Dispose()

	hits := tree.Query(types.NewRay(types.Vec3{0.1, 0.1, -1}, types.Vec3{0, 0, 1}), soupTester(soup))
	if len(hits) != 0 {
		t.Fatalf("expected disposed tree to report no hits; got %d", len(hits))
	}
	if tree.NodeCount() != 0 {
		t.Fatalf("expected disposed tree to release its nodes; got %d", tree.NodeCount())
	}

	var nilTree *Tree
	nilTree.Intersect(NewQueryState(types.Ray{}), soupTester(soup))
}

func TestConcurrentQueries(t *testing.T) {
	soup := randomSoup(13, 3000)
	tree, err := Build(soup)
	if err != nil {
		t.Fatal(err)
	}
	tester := soupTester(soup)

	ray := types.NewRay(types.Vec3{50, 25, -10}, types.Vec3{0, 0, 1})
	expHits := len(tree.Query(ray, tester))

	var wg sync.WaitGroup
	errCh := make(chan int, 8)
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			qs := NewQueryState(ray)
			for iter := 0; iter < 50; iter++ {
				qs.Reset(ray)
				tree.Intersect(qs, tester)
				if len(qs.Hits) != expHits {
					errCh <- len(qs.Hits)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errCh)

	for got := range errCh {
		t.Fatalf("expected %d hits from concurrent query; got %d", expHits, got)
	}
}
