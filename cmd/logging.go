package cmd

import (
	"github.com/skyloutyr/vtt-raycast/log"
	"github.com/urfave/cli"
)

var logger = log.New("vtt-raycast")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}
