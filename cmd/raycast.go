package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/skyloutyr/vtt-raycast/scene"
	"github.com/skyloutyr/vtt-raycast/types"
	"github.com/urfave/cli"
)

// Cast one or more rays from a common origin and list every hit.
func Raycast(ctx *cli.Context) error {
	setupLogging(ctx)

	origin, err := vec3Flag(ctx, "origin")
	if err != nil {
		return err
	}
	dirList := ctx.StringSlice("dir")
	if len(dirList) == 0 {
		return errors.New("missing required flag --dir")
	}
	rays := make([]types.Ray, len(dirList))
	for index, dirValue := range dirList {
		dir, err := parseVec3(dirValue)
		if err != nil {
			return fmt.Errorf("invalid value for --dir: %s", err.Error())
		}
		rays[index] = types.NewRay(origin, dir)
	}

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}
	defer sc.Close()

	br := scene.NewBatchRaycaster(sc, ctx.Int("workers"))
	defer br.Close()

	results, err := br.Raycast(context.Background(), rays)
	if err != nil {
		return err
	}

	logger.Noticef("raycast results:\n%s", fmtHits(rays, results))
	return nil
}

// Cast a ray and report the nearest hit.
func Pick(ctx *cli.Context) error {
	setupLogging(ctx)

	origin, err := vec3Flag(ctx, "origin")
	if err != nil {
		return err
	}
	dirList := ctx.StringSlice("dir")
	if len(dirList) != 1 {
		return errors.New("pick expects exactly one --dir flag")
	}
	dir, err := parseVec3(dirList[0])
	if err != nil {
		return fmt.Errorf("invalid value for --dir: %s", err.Error())
	}

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}
	defer sc.Close()

	ray := types.NewRay(origin, dir)
	hit, ok := sc.Pick(ray)
	if !ok {
		logger.Notice("ray did not hit any object")
		return nil
	}

	logger.Noticef("picked object:\n%s", fmtHits([]types.Ray{ray}, [][]scene.SceneHit{{hit}}))
	return nil
}

// Check whether two points can see each other.
func LineOfSight(ctx *cli.Context) error {
	setupLogging(ctx)

	from, err := vec3Flag(ctx, "from")
	if err != nil {
		return err
	}
	to, err := vec3Flag(ctx, "to")
	if err != nil {
		return err
	}

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}
	defer sc.Close()

	visible, err := sc.LineOfSight(from, to)
	if err != nil {
		return err
	}

	if visible {
		logger.Noticef("%v is visible from %v (distance: %.3f)", to, from, from.Distance(to))
	} else {
		logger.Noticef("line of sight from %v to %v is blocked", from, to)
	}
	return nil
}

// Render a table with the hits of each ray.
func fmtHits(rays []types.Ray, results [][]scene.SceneHit) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Ray", "Direction", "Instance", "Mesh", "Triangle", "Hit point", "Distance"})

	totalHits := 0
	for rayIndex, hits := range results {
		if len(hits) == 0 {
			table.Append([]string{fmt.Sprint(rayIndex), fmtVec3(rays[rayIndex].Dir), "-", "-", "-", "-", "-"})
			continue
		}
		for _, hit := range hits {
			table.Append([]string{
				fmt.Sprint(rayIndex),
				fmtVec3(rays[rayIndex].Dir),
				fmt.Sprint(hit.Instance.ID),
				hit.Instance.Mesh.Name,
				fmt.Sprint(hit.Triangle),
				fmtVec3(hit.Point),
				fmt.Sprintf("%.3f", hit.Distance),
			})
		}
		totalHits += len(hits)
	}
	table.SetFooter([]string{"", "", "", "", "", "TOTAL HITS", fmt.Sprint(totalHits)})

	table.Render()
	return buf.String()
}

func fmtVec3(v types.Vec3) string {
	return fmt.Sprintf("%.3f, %.3f, %.3f", v[0], v[1], v[2])
}
