//go:build windows

package winfs

import "strings"

// longPathPrefix is the Windows extended-length path prefix that bypasses
// MAX_PATH. All path operations internally use this prefixed form, but it
// must never appear in a FolderHit.path or any other user-visible path.
const longPathPrefix = `\\?\`

// uncLongPathPrefix is the extended-length prefix for UNC paths.
const uncLongPathPrefix = `\\?\UNC\`

// ToExtendedLength converts an absolute Windows path into its \\?\-prefixed
// form, suitable for passing to CreateFile and friends without incurring
// MAX_PATH truncation. It is idempotent: a path already carrying the prefix
// is returned unchanged.
func ToExtendedLength(path string) string {
	if strings.HasPrefix(path, longPathPrefix) {
		return path
	}
	if strings.HasPrefix(path, `\\`) {
		// UNC path: \\server\share\... becomes \\?\UNC\server\share\...
		return uncLongPathPrefix + strings.TrimPrefix(path, `\\`)
	}
	return longPathPrefix + path
}

// FromExtendedLength strips the \\?\ (or \\?\UNC\) prefix from a path,
// restoring the display/storage form used in FolderHit.path and everywhere
// else outside this package.
func FromExtendedLength(path string) string {
	if strings.HasPrefix(path, uncLongPathPrefix) {
		return `\\` + strings.TrimPrefix(path, uncLongPathPrefix)
	}
	if strings.HasPrefix(path, longPathPrefix) {
		return strings.TrimPrefix(path, longPathPrefix)
	}
	return path
}

// IsLongPath reports whether path exceeds the 247-character threshold at
// which callers should attach a LongPath warning.
func IsLongPath(path string) bool {
	return len(path) > 247
}

// SameVolume reports whether two absolute paths are believed to reside on
// the same volume, based on their drive letter or UNC server\share prefix.
// This is a cheap, syntactic check used by the Planner for Move vs.
// CopyDelete classification; VolumeSerialNumber provides an authoritative
// (but more expensive) check when one is needed.
func SameVolume(a, b string) bool {
	return volumeRoot(a) == volumeRoot(b)
}

// volumeRoot extracts the drive-letter or UNC share prefix from a path.
func volumeRoot(path string) string {
	path = FromExtendedLength(path)
	if strings.HasPrefix(path, `\\`) {
		// UNC: \\server\share\...
		trimmed := strings.TrimPrefix(path, `\\`)
		parts := strings.SplitN(trimmed, `\`, 3)
		if len(parts) >= 2 {
			return strings.ToLower(`\\` + parts[0] + `\` + parts[1])
		}
		return strings.ToLower(path)
	}
	if len(path) >= 2 && path[1] == ':' {
		return strings.ToLower(path[:2])
	}
	return strings.ToLower(path)
}
