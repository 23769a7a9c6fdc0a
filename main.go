package main

import (
	"fmt"
	"os"

	"github.com/skyloutyr/vtt-raycast/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	sceneFlags := []cli.Flag{
		cli.IntFlag{
			Name:  "parallel",
			Value: 0,
			Usage: "build sibling BVH subtrees concurrently when both hold at least this many triangles (0 disables)",
		},
	}

	rayFlags := append([]cli.Flag{
		cli.StringFlag{
			Name:  "origin, o",
			Usage: "ray origin in x,y,z format",
		},
		cli.StringSliceFlag{
			Name:  "dir, d",
			Value: &cli.StringSlice{},
			Usage: "ray direction in x,y,z format",
		},
	}, sceneFlags...)

	app := cli.NewApp()
	app.Name = "vtt-raycast"
	app.Usage = "query tabletop scenes using BVH accelerated ray casting"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "raycast",
			Usage: "list all objects hit by one or more rays",
			Description: `
Parse a scene definition from a wavefront obj file, build a BVH tree for each
mesh and cast a ray for each --dir flag starting at --origin. Rays are traced
concurrently by a pool of workers.`,
			ArgsUsage: "scene_file.obj",
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "workers",
					Value: 0,
					Usage: "number of raycast workers (0 uses one worker per cpu)",
				},
			}, rayFlags...),
			Action: cmd.Raycast,
		},
		{
			Name:      "pick",
			Usage:     "report the nearest object hit by a ray",
			ArgsUsage: "scene_file.obj",
			Flags:     rayFlags,
			Action:    cmd.Pick,
		},
		{
			Name:      "los",
			Usage:     "check line of sight between two points",
			ArgsUsage: "scene_file.obj",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "from",
					Usage: "viewer position in x,y,z format",
				},
				cli.StringFlag{
					Name:  "to",
					Usage: "target position in x,y,z format",
				},
			}, sceneFlags...),
			Action: cmd.LineOfSight,
		},
		{
			Name:      "stats",
			Usage:     "display BVH statistics for each scene mesh",
			ArgsUsage: "scene_file.obj",
			Flags:     sceneFlags,
			Action:    cmd.ShowSceneStats,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
}
