//go:build windows

package winfs

import (
	"sync"

	"github.com/hectane/go-acl"
	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

// aclSupportCache remembers, per volume serial number, whether
// GetNamedSecurityInfo succeeds at all on that volume. Scanning a large
// tree on a volume that doesn't support queryable ACLs (FAT/exFAT, some
// network shares) would otherwise retry the same failing syscall on every
// single directory; recording the outcome once per volume turns every
// later probe on that volume into a cheap lookup instead.
var aclSupportCache sync.Map // uint32 -> bool

func aclSupportKnown(path string) (supported bool, known bool) {
	info, err := QueryVolumeInfo(path)
	if err != nil {
		return false, false
	}
	v, ok := aclSupportCache.Load(info.SerialNumber)
	if !ok {
		return false, false
	}
	return v.(bool), true
}

func recordACLSupport(path string, supported bool) {
	info, err := QueryVolumeInfo(path)
	if err != nil {
		return
	}
	aclSupportCache.Store(info.SerialNumber, supported)
}

// errACLUnsupportedOnVolume is returned by QueryACLDigest without touching
// the filesystem again once a volume has already been found not to support
// queryable ACLs.
var errACLUnsupportedOnVolume = errors.New("ACL queries are not supported on this volume")

// ACLDigest is a coarse fingerprint of a path's discretionary ACL, cheap
// enough to compute for every move candidate during a scan. It is not a
// cryptographic hash and does not replicate exact ACE ordering. The
// Scanner queries it for each hit and attaches the ACLDiffers warning
// when the query fails.
type ACLDigest struct {
	Owner string
	Group string
	// ControlFlags captures the security descriptor control bits (e.g.
	// whether the DACL is protected from inheritance), which is usually
	// enough to tell "this folder was explicitly locked down" apart from
	// "this folder inherits the parent's permissions".
	ControlFlags uint16
}

// QueryACLDigest reads the owner, primary group, and DACL control flags for
// path via GetNamedSecurityInfo, narrowed to the fields an ACLDigest
// records.
func QueryACLDigest(path string) (*ACLDigest, error) {
	if supported, known := aclSupportKnown(path); known && !supported {
		return nil, errACLUnsupportedOnVolume
	}

	extended := ToExtendedLength(path)

	securityDescriptor, err := windows.GetNamedSecurityInfo(
		extended,
		windows.SE_FILE_OBJECT,
		windows.OWNER_SECURITY_INFORMATION|windows.GROUP_SECURITY_INFORMATION|windows.DACL_SECURITY_INFORMATION,
	)
	if err != nil {
		recordACLSupport(path, false)
		return nil, errors.Wrap(err, "unable to query security descriptor")
	}

	owner, _, err := securityDescriptor.Owner()
	if err != nil {
		return nil, errors.Wrap(err, "unable to extract owner")
	}
	group, _, err := securityDescriptor.Group()
	if err != nil {
		return nil, errors.Wrap(err, "unable to extract group")
	}

	control, _, err := securityDescriptor.Control()
	if err != nil {
		return nil, errors.Wrap(err, "unable to extract control flags")
	}

	recordACLSupport(path, true)
	return &ACLDigest{
		Owner:        owner.String(),
		Group:        group.String(),
		ControlFlags: uint16(control),
	}, nil
}

// Equal reports whether two digests represent equivalent effective
// permissions for the Planner's ACLDiffers comparison.
func (d *ACLDigest) Equal(other *ACLDigest) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.Owner == other.Owner && d.Group == other.Group && d.ControlFlags == other.ControlFlags
}

// PreserveACL copies the discretionary ACL (and owner) from source onto
// dest after a CopyDelete cross-volume move, so the moved folder keeps its
// original effective permissions instead of inheriting the destination
// parent's.
func PreserveACL(source, dest string) error {
	sourceExtended := ToExtendedLength(source)
	destExtended := ToExtendedLength(dest)

	securityDescriptor, err := windows.GetNamedSecurityInfo(
		sourceExtended,
		windows.SE_FILE_OBJECT,
		windows.OWNER_SECURITY_INFORMATION|windows.GROUP_SECURITY_INFORMATION|windows.DACL_SECURITY_INFORMATION,
	)
	if err != nil {
		return errors.Wrap(err, "unable to query source security descriptor")
	}

	dacl, _, err := securityDescriptor.DACL()
	if err != nil {
		return errors.Wrap(err, "unable to extract source DACL")
	}

	if err := windows.SetNamedSecurityInfo(
		destExtended,
		windows.SE_FILE_OBJECT,
		windows.DACL_SECURITY_INFORMATION|windows.PROTECTED_DACL_SECURITY_INFORMATION,
		nil, nil, dacl, nil,
	); err != nil {
		return errors.Wrap(err, "unable to apply security descriptor to destination")
	}

	return nil
}

// GrantFullControl grants the given account full control over path,
// clearing any inherited restrictions that were blocking a move, via
// hectane/go-acl, which wraps the grant-list form of SetNamedSecurityInfo
// that Windows' own icacls uses. No other package in this module calls it.
func GrantFullControl(path, account string) error {
	extended := ToExtendedLength(path)
	if err := acl.Apply(
		extended,
		false, // don't replace the existing ACL wholesale
		false, // don't merge with inherited permissions only
		acl.GrantName(windows.GENERIC_ALL, account),
	); err != nil {
		return errors.Wrap(err, "unable to grant full control")
	}
	return nil
}
