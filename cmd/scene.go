package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/skyloutyr/vtt-raycast/bvh"
	"github.com/skyloutyr/vtt-raycast/scene"
	"github.com/skyloutyr/vtt-raycast/scene/reader"
	"github.com/skyloutyr/vtt-raycast/types"
	"github.com/urfave/cli"
)

// Load the scene file passed as the command argument.
func loadScene(ctx *cli.Context) (*scene.Scene, error) {
	if ctx.NArg() != 1 {
		return nil, errors.New("missing scene file argument")
	}

	var opts []bvh.Option
	if minTriangles := ctx.Int("parallel"); minTriangles > 0 {
		opts = append(opts, bvh.WithParallel(minTriangles))
	}

	sceneFile := ctx.Args().First()
	logger.Noticef("loading scene: %s", sceneFile)
	return reader.ReadScene(sceneFile, opts...)
}

// Parse a vector flag value in "x,y,z" format.
func vec3Flag(ctx *cli.Context, name string) (types.Vec3, error) {
	if !ctx.IsSet(name) {
		return types.Vec3{}, fmt.Errorf("missing required flag --%s", name)
	}
	v, err := parseVec3(ctx.String(name))
	if err != nil {
		return v, fmt.Errorf("invalid value for --%s: %s", name, err.Error())
	}
	return v, nil
}

func parseVec3(value string) (types.Vec3, error) {
	tokens := strings.Split(value, ",")
	if len(tokens) != 3 {
		return types.Vec3{}, fmt.Errorf(`expected 3 comma-separated components; got %q`, value)
	}

	v := types.Vec3{}
	for index, token := range tokens {
		coord, err := strconv.ParseFloat(strings.TrimSpace(token), 32)
		if err != nil {
			return v, err
		}
		v[index] = float32(coord)
	}
	return v, nil
}

// Display scene BVH info.
func ShowSceneStats(ctx *cli.Context) error {
	setupLogging(ctx)

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}
	defer sc.Close()

	bounds := sc.Bounds()
	logger.Noticef("scene bounds: %v - %v", bounds.Min, bounds.Max)
	logger.Noticef("scene information:\n%s", sc.Stats())
	return nil
}
