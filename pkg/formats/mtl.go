package formats

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// MTLMaterial is one newmtl block. Texture fields hold the map path exactly
// as written, minus any leading map options.
type MTLMaterial struct {
	Name      string
	Ambient   [3]float32
	Diffuse   [3]float32
	Specular  [3]float32
	Shininess float32
	Opacity   float32

	HasDiffuse bool // a Kd statement set Diffuse

	AmbientMap   string // map_Ka
	DiffuseMap   string // map_Kd
	SpecularMap  string // map_Ks
	ShininessMap string // map_Ns
	BumpMap      string // map_Bump, bump
	NormalMap    string // norm
	OpacityMap   string // map_d
}

// MTL represents a parsed material library, in file order.
type MTL struct {
	Materials []MTLMaterial
}

// Find returns the material with the given name, or nil.
func (m *MTL) Find(name string) *MTLMaterial {
	for i := range m.Materials {
		if m.Materials[i].Name == name {
			return &m.Materials[i]
		}
	}
	return nil
}

// ParseMTL parses Wavefront MTL text.
func ParseMTL(data []byte) (*MTL, error) {
	mtl := &MTL{}
	var cur *MTLMaterial

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)
		keyword, args := fields[0], fields[1:]

		if keyword == "newmtl" {
			mtl.Materials = append(mtl.Materials, MTLMaterial{Name: strings.Join(args, " "), Opacity: 1})
			cur = &mtl.Materials[len(mtl.Materials)-1]
			continue
		}
		if cur == nil {
			continue
		}

		var err error
		switch strings.ToLower(keyword) {
		case "ka":
			err = parseColor(args, &cur.Ambient)
		case "kd":
			if err = parseColor(args, &cur.Diffuse); err == nil {
				cur.HasDiffuse = true
			}
		case "ks":
			err = parseColor(args, &cur.Specular)
		case "ns":
			err = parseScalar(args, &cur.Shininess)
		case "d":
			err = parseScalar(args, &cur.Opacity)
		case "tr":
			var tr float32
			if err = parseScalar(args, &tr); err == nil {
				cur.Opacity = 1 - tr
			}
		case "map_ka":
			cur.AmbientMap = mapPath(args)
		case "map_kd":
			cur.DiffuseMap = mapPath(args)
		case "map_ks":
			cur.SpecularMap = mapPath(args)
		case "map_ns":
			cur.ShininessMap = mapPath(args)
		case "map_bump", "bump":
			cur.BumpMap = mapPath(args)
		case "norm", "map_kn":
			cur.NormalMap = mapPath(args)
		case "map_d":
			cur.OpacityMap = mapPath(args)
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading MTL: %w", err)
	}
	return mtl, nil
}

// ParseMTLFile reads and parses an MTL file from disk.
func ParseMTLFile(path string) (*MTL, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading MTL file: %w", err)
	}
	return ParseMTL(data)
}

// parseColor reads "r [g b]"; a lone r is used for all three channels.
func parseColor(args []string, out *[3]float32) error {
	v, err := parseFloats(args, 1, 3)
	if err != nil {
		return err
	}
	switch len(v) {
	case 1:
		*out = [3]float32{v[0], v[0], v[0]}
	case 3:
		copy(out[:], v)
	default:
		return fmt.Errorf("%w: expected 1 or 3 values, got %d", ErrOBJSyntax, len(v))
	}
	return nil
}

func parseScalar(args []string, out *float32) error {
	v, err := parseFloats(args, 1, 1)
	if err != nil {
		return err
	}
	*out = v[0]
	return nil
}

// mapPath strips map options such as "-bm 0.5" or "-s 1 1 1" and returns
// the remaining text as the file name.
func mapPath(args []string) string {
	i := 0
	for i < len(args) && strings.HasPrefix(args[i], "-") && len(args[i]) > 1 {
		i++
		for i < len(args)-1 && isNumber(args[i]) {
			i++
		}
		// On/off style options take a single word argument.
		if i < len(args)-1 && (args[i] == "on" || args[i] == "off") {
			i++
		}
	}
	return strings.Join(args[i:], " ")
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
