//go:build windows

package winfs

import "golang.org/x/sys/windows"

// IsNetworkPath reports whether path resides on a mapped or UNC network
// drive, via GetDriveType. The Scanner uses this to decide whether a
// folder warrants an Offline warning when its reachability could not be
// otherwise confirmed.
func IsNetworkPath(path string) bool {
	root := volumeRootPath(path)
	pointer, err := windows.UTF16PtrFromString(root)
	if err != nil {
		return false
	}
	return windows.GetDriveType(pointer) == windows.DRIVE_REMOTE
}
