// Package formats provides parsers for sprite asset file formats.
package formats

// Note: atlas descriptors (JSON texture packer output) are implemented in atlas.go
// Note: horizontal strip sheets without a descriptor are built by StripAtlas
