// modeltool is a CLI utility for inspecting models without opening a window.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Faultbox/glscene/internal/engine/importer"
	_ "github.com/Faultbox/glscene/internal/engine/importer/gltf"
	_ "github.com/Faultbox/glscene/internal/engine/importer/obj"
	"github.com/Faultbox/glscene/internal/engine/texture"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "tree":
		cmdTree(args)
	case "textures", "tex":
		cmdTextures(args)
	case "formats":
		cmdFormats()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`modeltool - model import inspector

Usage:
  modeltool <command> [options]

Commands:
  info [-raw] <model>      Show mesh and material summary
  tree <model>             Print the node hierarchy
  textures <model>         List referenced textures and check they decode
  formats                  List supported file extensions

Examples:
  modeltool info assets/backpack/backpack.obj
  modeltool tree scene.gltf
  modeltool textures assets/backpack/backpack.obj`)
}

// readScene imports path with the viewer's post-processing unless raw is set.
func readScene(path string, raw bool) *importer.Scene {
	steps := importer.DefaultPostProcess
	if raw {
		steps = 0
	}
	scene, err := importer.ReadFile(path, steps)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return scene
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	raw := fs.Bool("raw", false, "skip post-processing")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: modeltool info [-raw] <model>")
		os.Exit(1)
	}

	scene := readScene(fs.Arg(0), *raw)

	var vertices, faces, triangles int
	for _, m := range scene.Meshes {
		vertices += len(m.Positions)
		faces += len(m.Faces)
		for _, f := range m.Faces {
			if len(f.Indices) == 3 {
				triangles++
			}
		}
	}

	fmt.Printf("Model: %s\n", fs.Arg(0))
	fmt.Printf("Meshes: %d\n", len(scene.Meshes))
	fmt.Printf("Materials: %d\n", len(scene.Materials))
	fmt.Printf("Vertices: %d\n", vertices)
	fmt.Printf("Faces: %d (%d triangles)\n", faces, triangles)

	fmt.Println("\nMeshes:")
	for i, m := range scene.Meshes {
		mat := "-"
		if m.MaterialIndex >= 0 && m.MaterialIndex < len(scene.Materials) && scene.Materials[m.MaterialIndex] != nil {
			mat = scene.Materials[m.MaterialIndex].Name
		}
		fmt.Printf("  [%d] %-24s verts=%-7d faces=%-7d normals=%-5v uv0=%-5v material=%s\n",
			i, m.Name, len(m.Positions), len(m.Faces), m.HasNormals(), m.HasTexCoords(0), mat)
	}

	fmt.Println("\nMaterials:")
	for i, mat := range scene.Materials {
		if mat == nil {
			continue
		}
		var parts []string
		for _, t := range textureTypes {
			if n := mat.TextureCount(t); n > 0 {
				parts = append(parts, fmt.Sprintf("%s=%d", t, n))
			}
		}
		fmt.Printf("  [%d] %-24s %s\n", i, mat.Name, strings.Join(parts, " "))
	}
}

var textureTypes = []importer.TextureType{
	importer.TextureDiffuse,
	importer.TextureSpecular,
	importer.TextureNormal,
	importer.TextureHeight,
	importer.TextureShininess,
}

func cmdTree(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: modeltool tree <model>")
		os.Exit(1)
	}

	scene := readScene(args[0], true)

	type entry struct {
		node  *importer.Node
		depth int
	}
	stack := []entry{{scene.Root, 0}}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		name := e.node.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Printf("%s%s", strings.Repeat("  ", e.depth), name)
		if len(e.node.Meshes) > 0 {
			fmt.Printf(" meshes=%v", e.node.Meshes)
		}
		fmt.Println()

		for i := len(e.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, entry{e.node.Children[i], e.depth + 1})
		}
	}
}

func cmdTextures(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: modeltool textures <model>")
		os.Exit(1)
	}

	path := args[0]
	scene := readScene(path, true)
	dir := filepath.Dir(path)

	// Same path may be referenced by several materials and slots.
	refs := make(map[string][]string)
	for _, mat := range scene.Materials {
		if mat == nil {
			continue
		}
		for _, t := range textureTypes {
			for i := 0; i < mat.TextureCount(t); i++ {
				p, _ := mat.Texture(t, i)
				refs[p] = append(refs[p], fmt.Sprintf("%s/%s", mat.Name, t))
			}
		}
	}

	paths := make([]string, 0, len(refs))
	for p := range refs {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	missing := 0
	for _, p := range paths {
		var status string
		img, err := texture.Decode(filepath.Join(dir, p))
		if err != nil {
			status = "FAILED: " + err.Error()
			missing++
		} else {
			status = fmt.Sprintf("%dx%d %dch", img.Width, img.Height, img.Channels)
		}
		fmt.Printf("%-40s %-30s %s\n", p, strings.Join(refs[p], ","), status)
	}

	fmt.Printf("\n%d textures, %d failed\n", len(paths), missing)
	if missing > 0 {
		os.Exit(2)
	}
}

func cmdFormats() {
	for _, ext := range importer.Extensions() {
		fmt.Println(ext)
	}
}
