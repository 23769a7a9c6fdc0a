package scene

import (
	"bytes"
	"fmt"
	"strings"
	"time"
	"unsafe"

	"github.com/olekukonko/tablewriter"
	"github.com/skyloutyr/vtt-raycast/bvh"
)

// Render a table with the BVH statistics of each mesh in the scene.
func (sc *Scene) Stats() string {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	instanceCount := make(map[*Mesh]int)
	for _, inst := range sc.instances {
		instanceCount[inst.Mesh]++
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Mesh", "Instances", "Triangles", "Nodes", "Leafs", "Max depth", "Max leaf", "BVH size", "Build time"})

	var total bvh.Stats
	var totalBytes int
	for _, mesh := range sc.meshes {
		stats := mesh.Tree().Stats()
		size := bvhSize(stats)
		table.Append([]string{
			mesh.Name,
			fmt.Sprint(instanceCount[mesh]),
			fmt.Sprint(stats.Triangles),
			fmt.Sprint(stats.Nodes),
			fmt.Sprint(stats.Leafs),
			fmt.Sprint(stats.MaxDepth),
			fmt.Sprint(stats.MaxLeafSize),
			fmtSize(size),
			fmtDuration(stats.BuildTime),
		})

		total.Triangles += stats.Triangles
		total.Nodes += stats.Nodes
		total.Leafs += stats.Leafs
		total.BuildTime += stats.BuildTime
		totalBytes += size
	}
	table.SetFooter([]string{
		"Total",
		fmt.Sprint(len(sc.instances)),
		fmt.Sprint(total.Triangles),
		fmt.Sprint(total.Nodes),
		fmt.Sprint(total.Leafs),
		" ",
		" ",
		strings.TrimLeft(fmtSize(totalBytes), " "),
		fmtDuration(total.BuildTime),
	})

	table.Render()
	return buf.String()
}

// Get the memory used by the node arena and the triangle index permutation.
func bvhSize(stats bvh.Stats) int {
	return stats.Nodes*int(unsafe.Sizeof(bvh.Node{})) + stats.Triangles*int(unsafe.Sizeof(uint32(0)))
}

// Format a byte count with the appropriate byte/kb/mb unit.
func fmtSize(totalBytes int) string {
	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", totalBytes)
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", float32(totalBytes)/1e3)
	}
	return fmt.Sprintf("%5.1f mb", float32(totalBytes)/1e6)
}

func fmtDuration(d time.Duration) string {
	return fmt.Sprintf("%.3f ms", float64(d)/float64(time.Millisecond))
}
