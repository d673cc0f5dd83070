// Package hclcfg is the HCL implementation of the config.Loader interface.
//
// A manifest is one .hcl file or a directory of .hcl files containing three
// block types: "spec" blocks describing concretized build units and their
// dependency edges, a single "pipeline" block carrying the run options, and
// any number of "rule" blocks with attribute configuration. Files are read
// in sorted path order so rule declaration indices are stable across runs.
package hclcfg
