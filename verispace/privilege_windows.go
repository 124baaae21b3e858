//go:build windows

package verispace

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// seManageVolume lets us mark a sparsely extended range as valid data so
// Windows does not zero-fill it, keeping the pattern writer's writes the
// first physical writes to each region.
const seManageVolume = "SeManageVolumePrivilege"

// acquireDurableAllocation enables SeManageVolumePrivilege on the process
// token. Sparse pre-allocation is impossible without it.
func acquireDurableAllocation() error {
	var token windows.Token
	err := windows.OpenProcessToken(windows.CurrentProcess(),
		windows.TOKEN_ADJUST_PRIVILEGES|windows.TOKEN_QUERY, &token)
	if err != nil {
		return fmt.Errorf("%w: open process token: %v", ErrPrivilege, err)
	}
	defer token.Close()

	var luid windows.LUID
	name, err := windows.UTF16PtrFromString(seManageVolume)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPrivilege, err)
	}
	if err := windows.LookupPrivilegeValue(nil, name, &luid); err != nil {
		return fmt.Errorf("%w: lookup %s: %v", ErrPrivilege, seManageVolume, err)
	}

	newPriv := windows.Tokenprivileges{
		PrivilegeCount: 1,
		Privileges: [1]windows.LUIDAndAttributes{{
			Luid:       luid,
			Attributes: windows.SE_PRIVILEGE_ENABLED,
		}},
	}
	// AdjustTokenPrivileges reports ERROR_NOT_ALL_ASSIGNED as its error
	// when the call succeeds but the privilege is not held.
	if err := windows.AdjustTokenPrivileges(token, false, &newPriv, 0, nil, nil); err != nil {
		if err == windows.ERROR_NOT_ALL_ASSIGNED {
			return fmt.Errorf("%w: %s not held (run elevated)", ErrPrivilege, seManageVolume)
		}
		return fmt.Errorf("%w: adjust %s: %v", ErrPrivilege, seManageVolume, err)
	}
	return nil
}
