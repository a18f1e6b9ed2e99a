package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// OBJ format errors.
var (
	ErrOBJSyntax       = errors.New("obj: syntax error")
	ErrOBJIndexRange   = errors.New("obj: index out of range")
	ErrOBJFaceTooSmall = errors.New("obj: face with fewer than 3 corners")
)

// OBJCorner references one face corner. Indices are zero-based; -1 means
// the attribute is absent.
type OBJCorner struct {
	V  int
	VT int
	VN int
}

// OBJFace is a polygon with three or more corners.
type OBJFace struct {
	Corners []OBJCorner
}

// OBJObject is a run of faces sharing an object/group name and material.
// A usemtl inside an object starts a new OBJObject with the same name.
// Groups without faces are not recorded.
type OBJObject struct {
	Name     string
	Material string
	Faces    []OBJFace
}

// OBJ represents a parsed Wavefront OBJ file. Attribute arrays are shared by
// all objects. MaterialLibs holds the arguments of each mtllib statement
// joined by single spaces; see SplitMaterialLib.
type OBJ struct {
	Positions    [][3]float32
	Normals      [][3]float32
	TexCoords    [][2]float32
	Objects      []OBJObject
	MaterialLibs []string
}

// SplitMaterialLib returns the candidate file lists for one MaterialLibs
// entry: the whole entry as a single name first, then each field as its own
// library when there is more than one.
func SplitMaterialLib(lib string) [][]string {
	fields := strings.Fields(lib)
	if len(fields) <= 1 {
		return [][]string{{lib}}
	}
	return [][]string{{lib}, fields}
}

// ParseOBJ parses Wavefront OBJ text. Unsupported statements (curves, lines,
// smoothing groups, points) are ignored.
func ParseOBJ(data []byte) (*OBJ, error) {
	obj := &OBJ{}
	var current *OBJObject
	name := ""
	material := ""

	objectFor := func() *OBJObject {
		if current == nil {
			obj.Objects = append(obj.Objects, OBJObject{Name: name, Material: material})
			current = &obj.Objects[len(obj.Objects)-1]
		}
		return current
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}

		fields := strings.Fields(line)
		keyword, args := fields[0], fields[1:]

		switch keyword {
		case "v":
			v, err := parseFloats(args, 3, 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			obj.Positions = append(obj.Positions, [3]float32{v[0], v[1], v[2]})

		case "vn":
			v, err := parseFloats(args, 3, 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			obj.Normals = append(obj.Normals, [3]float32{v[0], v[1], v[2]})

		case "vt":
			// v is optional and defaults to 0.
			v, err := parseFloats(args, 1, 2)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			var uv [2]float32
			copy(uv[:], v)
			obj.TexCoords = append(obj.TexCoords, uv)

		case "f":
			if len(args) < 3 {
				return nil, fmt.Errorf("line %d: %w", lineNo, ErrOBJFaceTooSmall)
			}
			face := OBJFace{Corners: make([]OBJCorner, len(args))}
			for i, arg := range args {
				c, err := obj.parseCorner(arg)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				face.Corners[i] = c
			}
			o := objectFor()
			o.Faces = append(o.Faces, face)

		case "o", "g":
			name = strings.Join(args, " ")
			current = nil

		case "usemtl":
			next := strings.Join(args, " ")
			if next != material {
				current = nil
			}
			material = next

		case "mtllib":
			if len(args) > 0 {
				obj.MaterialLibs = append(obj.MaterialLibs, strings.Join(args, " "))
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}

	return obj, nil
}

// ParseOBJFile reads and parses an OBJ file from disk.
func ParseOBJFile(path string) (*OBJ, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading OBJ file: %w", err)
	}
	return ParseOBJ(data)
}

// parseCorner parses "v", "v/vt", "v//vn" or "v/vt/vn". Negative indices
// count back from the most recent element.
func (o *OBJ) parseCorner(s string) (OBJCorner, error) {
	c := OBJCorner{V: -1, VT: -1, VN: -1}
	parts := strings.Split(s, "/")
	if len(parts) > 3 || parts[0] == "" {
		return c, fmt.Errorf("%w: corner %q", ErrOBJSyntax, s)
	}

	var err error
	if c.V, err = resolveIndex(parts[0], len(o.Positions)); err != nil {
		return c, err
	}
	if len(parts) > 1 && parts[1] != "" {
		if c.VT, err = resolveIndex(parts[1], len(o.TexCoords)); err != nil {
			return c, err
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if c.VN, err = resolveIndex(parts[2], len(o.Normals)); err != nil {
			return c, err
		}
	}
	return c, nil
}

func resolveIndex(s string, count int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1, fmt.Errorf("%w: index %q", ErrOBJSyntax, s)
	}
	idx := n - 1
	if n < 0 {
		idx = count + n
	}
	if n == 0 || idx < 0 || idx >= count {
		return -1, fmt.Errorf("%w: %d of %d", ErrOBJIndexRange, n, count)
	}
	return idx, nil
}

// parseFloats parses between least and most leading fields; fields past
// most (such as a vertex w or a third texture coordinate) are ignored.
func parseFloats(args []string, least, most int) ([]float32, error) {
	if len(args) < least {
		return nil, fmt.Errorf("%w: expected %d values, got %d", ErrOBJSyntax, least, len(args))
	}
	n := min(len(args), most)
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(args[i], 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrOBJSyntax, args[i])
		}
		out[i] = float32(f)
	}
	return out, nil
}
