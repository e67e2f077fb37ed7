//go:build windows

package winfs

import (
	"time"

	"golang.org/x/sys/windows"
)

// EntryType classifies a filesystem entry the way the Scanner needs to
// distinguish them, independent of os.FileMode's broader type bits.
type EntryType uint8

const (
	EntryTypeFile EntryType = iota
	EntryTypeDirectory
	EntryTypeSymbolicLink
	EntryTypeJunction
	EntryTypeOther
)

// Metadata describes a single filesystem entry as observed during a scan.
// DeviceID maps to the volume serial number, FileID to the NTFS file
// index, both of which are cheap to obtain via GetFileInformationByHandle
// and are used to detect filesystem-boundary crossings and reparse-point
// cycles.
type Metadata struct {
	Name             string
	Type             EntryType
	Size             uint64
	ModificationTime time.Time
	ReadOnly         bool
	DeviceID         uint64
	FileID           uint64
	ReparseTag       uint32
}

// classifyFromAttributes derives an EntryType from Windows file attributes
// and, for reparse points, the reparse tag.
func classifyFromAttributes(attributes uint32, reparseTag uint32) EntryType {
	if attributes&windows.FILE_ATTRIBUTE_REPARSE_POINT != 0 {
		switch reparseTag {
		case windows.IO_REPARSE_TAG_SYMLINK:
			return EntryTypeSymbolicLink
		case windows.IO_REPARSE_TAG_MOUNT_POINT:
			return EntryTypeJunction
		default:
			return EntryTypeOther
		}
	}
	if attributes&windows.FILE_ATTRIBUTE_DIRECTORY != 0 {
		return EntryTypeDirectory
	}
	return EntryTypeFile
}

// metadataFromFileInfo builds Metadata from a BY_HANDLE_FILE_INFORMATION
// query, kept in sync with os.fileStat's own classification so that
// results remain consistent with anything the standard library reports
// about the same entry.
func metadataFromFileInfo(name string, info *windows.ByHandleFileInformation, reparseTag uint32) *Metadata {
	size := uint64(info.FileSizeHigh)<<32 + uint64(info.FileSizeLow)
	modTime := time.Unix(0, info.LastWriteTime.Nanoseconds())
	fileID := uint64(info.FileIndexHigh)<<32 + uint64(info.FileIndexLow)

	return &Metadata{
		Name:             name,
		Type:             classifyFromAttributes(info.FileAttributes, reparseTag),
		Size:             size,
		ModificationTime: modTime,
		ReadOnly:         info.FileAttributes&windows.FILE_ATTRIBUTE_READONLY != 0,
		DeviceID:         uint64(info.VolumeSerialNumber),
		FileID:           fileID,
		ReparseTag:       reparseTag,
	}
}
