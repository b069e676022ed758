// Package formats provides parsers for the mesh file formats the engine loads.
package formats
