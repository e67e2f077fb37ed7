// Package winfs provides the low-level, Windows-native filesystem
// primitives that the Scanner, Planner, and Executor build on: long-path
// (\\?\-prefixed) I/O, reparse point (junction) inspection, ACL probing and
// preservation, and volume-level queries (free space, same-volume
// detection). FileMover targets Windows exclusively, so this package
// carries no cross-platform abstraction layer.
package winfs
