// Package heal repairs path references in a restored configuration file.
//
// An archive restored on another machine (or into another directory) still
// names the exporting host's home directory and workspace. FixPaths reads
// the configuration under <target>/.openclaw together with the manifest the
// restore left in <target>, and rewrites those paths for the current host.
//
// The document is handled as a generic JSON tree (Node), so unknown fields
// survive untouched and member order is preserved. Matching is plain
// substring replacement unless Options.BoundaryAware is set.
package heal
