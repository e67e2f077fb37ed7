//go:build windows

package winfs

import (
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

// Directory wraps an open handle to a directory, opened with
// FILE_FLAG_BACKUP_SEMANTICS so that traversal does not require the
// underlying file's read permission bit, and FILE_FLAG_OPEN_REPARSE_POINT so
// that opening a junction yields the junction itself rather than following
// it.
type Directory struct {
	handle windows.Handle
	path   string
}

// OpenDirectory opens path (an absolute, non-extended-length path) for
// enumeration and metadata queries.
func OpenDirectory(path string) (*Directory, error) {
	extended := ToExtendedLength(path)
	pointer, err := windows.UTF16PtrFromString(extended)
	if err != nil {
		return nil, errors.Wrap(err, "unable to convert path to UTF-16")
	}

	handle, err := windows.CreateFile(
		pointer,
		windows.GENERIC_READ,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS|windows.FILE_FLAG_OPEN_REPARSE_POINT,
		0,
	)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open directory")
	}

	return &Directory{handle: handle, path: path}, nil
}

// Close releases the directory handle.
func (d *Directory) Close() error {
	return windows.CloseHandle(d.handle)
}

// Metadata queries metadata for the directory handle itself, without
// following a reparse point if the handle refers to one.
func (d *Directory) Metadata() (*Metadata, error) {
	var info windows.ByHandleFileInformation
	if err := windows.GetFileInformationByHandle(d.handle, &info); err != nil {
		return nil, errors.Wrap(err, "unable to query file information")
	}

	var reparseTag uint32
	if info.FileAttributes&windows.FILE_ATTRIBUTE_REPARSE_POINT != 0 {
		tag, err := queryReparseTag(d.handle)
		if err != nil {
			return nil, errors.Wrap(err, "unable to query reparse tag")
		}
		reparseTag = tag
	}

	name := d.path
	if idx := lastPathSeparator(name); idx >= 0 {
		name = name[idx+1:]
	}

	return metadataFromFileInfo(name, &info, reparseTag), nil
}

// ReadEntryNames enumerates the immediate children of the directory by
// name, using FindFirstFile/FindNextFile against the extended-length path
// with a wildcard suffix. "." and ".." are skipped.
func (d *Directory) ReadEntryNames() ([]string, error) {
	searchPath := ToExtendedLength(d.path)
	if len(searchPath) == 0 || searchPath[len(searchPath)-1] != '\\' {
		searchPath += `\`
	}
	searchPath += "*"

	pointer, err := windows.UTF16PtrFromString(searchPath)
	if err != nil {
		return nil, errors.Wrap(err, "unable to convert search path to UTF-16")
	}

	var findData windows.Win32finddata
	handle, err := windows.FindFirstFile(pointer, &findData)
	if err != nil {
		if err == windows.ERROR_FILE_NOT_FOUND {
			return nil, nil
		}
		return nil, errors.Wrap(err, "unable to start directory enumeration")
	}
	defer windows.FindClose(handle)

	var names []string
	for {
		name := windows.UTF16ToString(findData.FileName[:])
		if name != "." && name != ".." {
			names = append(names, name)
		}

		if err := windows.FindNextFile(handle, &findData); err != nil {
			if err == windows.ERROR_NO_MORE_FILES {
				break
			}
			return nil, errors.Wrap(err, "unable to continue directory enumeration")
		}
	}

	return names, nil
}

// queryReparseTag opens the reparse point data via DeviceIoControl to
// extract the reparse tag, distinguishing symbolic links from junctions
// (mount points).
func queryReparseTag(handle windows.Handle) (uint32, error) {
	// REPARSE_DATA_BUFFER begins with a ULONG reparse tag followed by two
	// USHORT length fields; we only need the tag, so a buffer sized for the
	// maximum reparse data payload is sufficient and the tag is always the
	// first four bytes.
	const maximumReparseDataSize = 16 * 1024
	buffer := make([]byte, maximumReparseDataSize)

	var bytesReturned uint32
	err := windows.DeviceIoControl(
		handle,
		windows.FSCTL_GET_REPARSE_POINT,
		nil, 0,
		&buffer[0], uint32(len(buffer)),
		&bytesReturned,
		nil,
	)
	if err != nil {
		if errno, ok := err.(syscall.Errno); ok && errno == windows.ERROR_NOT_A_REPARSE_POINT {
			return 0, nil
		}
		return 0, err
	}
	if bytesReturned < 4 {
		return 0, errors.New("reparse data too short")
	}

	tag := uint32(buffer[0]) | uint32(buffer[1])<<8 | uint32(buffer[2])<<16 | uint32(buffer[3])<<24
	return tag, nil
}

// lastPathSeparator returns the index of the final backslash or forward
// slash in path, or -1 if none is present.
func lastPathSeparator(path string) int {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '\\' || path[i] == '/' {
			return i
		}
	}
	return -1
}
