// Package registry provides the central "glue" for built-in programs.
//
// The Registry stores mappings between the program names given on the
// command line and the compiled Go entrypoints that implement them. During
// host startup the registry is populated from the linked program modules;
// resolution then prefers a registered name over a path on disk, so built-in
// programs shadow files of the same name.
package registry
