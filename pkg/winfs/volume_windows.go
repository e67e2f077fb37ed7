//go:build windows

package winfs

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

// VolumeInfo summarizes the capacity and identity of the volume hosting a
// path, as needed by the Planner's NoSpace conflict detection and an
// authoritative (non-syntactic) same-volume check.
type VolumeInfo struct {
	SerialNumber   uint32
	TotalBytes     uint64
	FreeBytes      uint64
	AvailableBytes uint64
}

// QueryVolumeInfo reports free space and the volume serial number for the
// volume containing path, via GetDiskFreeSpaceExW and GetVolumeInformationW.
func QueryVolumeInfo(path string) (*VolumeInfo, error) {
	root := volumeRootPath(path)

	rootPointer, err := windows.UTF16PtrFromString(root)
	if err != nil {
		return nil, errors.Wrap(err, "unable to convert volume root to UTF-16")
	}

	var freeBytesAvailable, totalBytes, totalFreeBytes uint64
	if err := windows.GetDiskFreeSpaceEx(
		rootPointer,
		&freeBytesAvailable,
		&totalBytes,
		&totalFreeBytes,
	); err != nil {
		return nil, errors.Wrap(err, "unable to query disk free space")
	}

	volumeNameBuffer := make([]uint16, windows.MAX_PATH+1)
	var serialNumber uint32
	var maxComponentLength, fileSystemFlags uint32
	fileSystemNameBuffer := make([]uint16, windows.MAX_PATH+1)

	if err := windows.GetVolumeInformation(
		rootPointer,
		&volumeNameBuffer[0], uint32(len(volumeNameBuffer)),
		&serialNumber,
		&maxComponentLength,
		&fileSystemFlags,
		&fileSystemNameBuffer[0], uint32(len(fileSystemNameBuffer)),
	); err != nil {
		return nil, errors.Wrap(err, "unable to query volume information")
	}

	return &VolumeInfo{
		SerialNumber:   serialNumber,
		TotalBytes:     totalBytes,
		FreeBytes:      totalFreeBytes,
		AvailableBytes: freeBytesAvailable,
	}, nil
}

// SameVolumeAuthoritative reports whether a and b reside on the same
// volume by comparing volume serial numbers, resolving ambiguous cases
// (substs, mapped network drives pointing at the same share) that the
// syntactic SameVolume check cannot.
func SameVolumeAuthoritative(a, b string) (bool, error) {
	infoA, err := QueryVolumeInfo(a)
	if err != nil {
		return false, errors.Wrap(err, "unable to query volume info for source")
	}
	infoB, err := QueryVolumeInfo(b)
	if err != nil {
		return false, errors.Wrap(err, "unable to query volume info for destination")
	}
	return infoA.SerialNumber == infoB.SerialNumber, nil
}

// volumeRootPath reduces an absolute path to the root form
// GetDiskFreeSpaceExW/GetVolumeInformationW expect: "C:\" for a drive
// letter, or "\\server\share\" for a UNC path.
func volumeRootPath(path string) string {
	root := volumeRoot(path)
	if len(root) == 2 && root[1] == ':' {
		return root + `\`
	}
	if len(root) > 0 && root[len(root)-1] != '\\' {
		return root + `\`
	}
	return root
}
