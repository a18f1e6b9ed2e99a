// Package formats provides parsers for Wavefront OBJ and MTL files.
package formats
