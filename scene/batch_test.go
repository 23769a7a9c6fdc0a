package scene

import (
	"context"
	"math/rand"
	"testing"

	"github.com/skyloutyr/vtt-raycast/types"
)

// Build a scene with a grid of tiles stacked at different depths.
func tileGrid(t *testing.T) *Scene {
	sc := New()
	mustAddMesh(t, sc, "tile", quad())
	for x := -2; x <= 2; x++ {
		for y := -2; y <= 2; y++ {
			depth := float32(-3 - (x+y+4)%3)
			mustAddInstance(t, sc, "tile", types.Translate4(types.Vec3{float32(x) * 2, float32(y) * 2, depth}))
		}
	}
	return sc
}

func randomRays(seed int64, count int) []types.Ray {
	rng := rand.New(rand.NewSource(seed))
	rays := make([]types.Ray, count)
	for i := range rays {
		origin := types.Vec3{rng.Float32()*10 - 5, rng.Float32()*10 - 5, 2}
		dir := types.Vec3{rng.Float32() - 0.5, rng.Float32() - 0.5, -1}
		rays[i] = types.NewRay(origin, dir)
	}
	return rays
}

func TestBatchRaycastMatchesSequential(t *testing.T) {
	sc := tileGrid(t)
	defer sc.Close()

	br := NewBatchRaycaster(sc, 4)
	defer br.Close()

	rays := randomRays(7, 500)
	// Run a few batches so the scheduler switches to throughput based splits
	for batch := 0; batch < 3; batch++ {
		results, err := br.Raycast(context.Background(), rays)
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != len(rays) {
			t.Fatalf("[batch %d] expected %d results; got %d", batch, len(rays), len(results))
		}

		for rayIndex, ray := range rays {
			expHits := sc.Raycast(ray)
			if len(results[rayIndex]) != len(expHits) {
				t.Fatalf("[batch %d, ray %d] expected %d hits; got %d", batch, rayIndex, len(expHits), len(results[rayIndex]))
			}
			for hitIndex, hit := range results[rayIndex] {
				exp := expHits[hitIndex]
				if hit.Instance != exp.Instance || hit.Triangle != exp.Triangle || hit.Distance != exp.Distance {
					t.Fatalf("[batch %d, ray %d] expected hit %d to be %+v; got %+v", batch, rayIndex, hitIndex, exp, hit)
				}
			}
		}
	}
}

func TestBatchRaycastMoreWorkersThanRays(t *testing.T) {
	sc := tileGrid(t)
	defer sc.Close()

	br := NewBatchRaycaster(sc, 8)
	defer br.Close()

	rays := []types.Ray{types.NewRay(types.Vec3{0.5, -0.25, 2}, types.Vec3{0, 0, -1})}
	results, err := br.Raycast(context.Background(), rays)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || len(results[0]) != 1 {
		t.Fatalf("expected a single hit for a single ray; got %v", results)
	}

	results, err = br.Raycast(context.Background(), nil)
	if err != nil || len(results) != 0 {
		t.Fatalf("expected empty batch to yield no results; got %v, %v", results, err)
	}
}

func TestBatchRaycastCancelled(t *testing.T) {
	sc := tileGrid(t)
	defer sc.Close()

	br := NewBatchRaycaster(sc, 2)
	defer br.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := br.Raycast(ctx, randomRays(1, 100))
	if err != context.Canceled {
		t.Fatalf("expected to get context.Canceled; got %v", err)
	}

	// Workers remain usable after a cancelled batch
	results, err := br.Raycast(context.Background(), randomRays(1, 10))
	if err != nil || len(results) != 10 {
		t.Fatalf("expected batch to succeed after cancellation; got %d results, %v", len(results), err)
	}
}

func TestBatchRaycasterClosed(t *testing.T) {
	sc := tileGrid(t)
	defer sc.Close()

	br := NewBatchRaycaster(sc, 0)
	br.Close()
	br.Close()

	if _, err := br.Raycast(context.Background(), randomRays(1, 1)); err != ErrRaycasterClosed {
		t.Fatalf("expected to get ErrRaycasterClosed; got %v", err)
	}
}
