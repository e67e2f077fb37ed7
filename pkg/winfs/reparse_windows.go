//go:build windows

package winfs

import (
	"os"
	"sync"

	"github.com/Microsoft/go-winio"
	"github.com/pkg/errors"
)

// reparseSupportCache remembers, per volume serial number, whether decoding
// reparse point data succeeds at all on that volume. A removable or
// network volume that can't produce reparse data would otherwise fail the
// same open+decode attempt on every junction the Scanner crosses; recording
// the outcome once per volume skips the repeat cost.
var reparseSupportCache sync.Map // uint32 -> bool

func reparseSupportKnown(path string) (supported bool, known bool) {
	info, err := QueryVolumeInfo(path)
	if err != nil {
		return false, false
	}
	v, ok := reparseSupportCache.Load(info.SerialNumber)
	if !ok {
		return false, false
	}
	return v.(bool), true
}

func recordReparseSupport(path string, supported bool) {
	info, err := QueryVolumeInfo(path)
	if err != nil {
		return
	}
	reparseSupportCache.Store(info.SerialNumber, supported)
}

// errReparseUnsupportedOnVolume is returned by ReadReparsePoint without
// touching the filesystem again once a volume has already been found not
// to support reparse point decoding.
var errReparseUnsupportedOnVolume = errors.New("reparse point data is not available on this volume")

// ReparsePoint describes a junction or symbolic link encountered during a
// scan, as much as the Scanner needs to decide whether to follow it and to
// detect ancestor cycles.
type ReparsePoint struct {
	// Target is the link's substitute path, resolved to an absolute form
	// where possible.
	Target string
	// IsJunction is true for mount points (directory junctions); false for
	// symbolic links.
	IsJunction bool
}

// ReadReparsePoint reads the reparse point data at path using go-winio's
// reparse point decoder, which understands both the mount-point and
// symbolic-link buffer layouts without requiring a raw DeviceIoControl
// parse here.
func ReadReparsePoint(path string) (*ReparsePoint, error) {
	if supported, known := reparseSupportKnown(path); known && !supported {
		return nil, errReparseUnsupportedOnVolume
	}

	extended := ToExtendedLength(path)

	file, err := os.OpenFile(extended, os.O_RDONLY, 0)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open reparse point")
	}
	defer file.Close()

	data, err := winio.GetReparseData(file)
	if err != nil {
		recordReparseSupport(path, false)
		return nil, errors.Wrap(err, "unable to read reparse point data")
	}

	parsed, err := winio.DecodeReparsePoint(data)
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode reparse point")
	}

	recordReparseSupport(path, true)
	return &ReparsePoint{
		Target:     parsed.Target,
		IsJunction: parsed.IsMountPoint,
	}, nil
}
