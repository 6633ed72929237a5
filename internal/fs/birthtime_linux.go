//go:build linux

package fs

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// birthTime asks statx for STATX_BTIME. Older kernels and filesystems such as
// tmpfs on some versions leave the mask bit unset.
func birthTime(path string, _ os.FileInfo, follow bool) (time.Time, bool) {
	flags := unix.AT_STATX_SYNC_AS_STAT
	if !follow {
		flags |= unix.AT_SYMLINK_NOFOLLOW
	}
	var stx unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, path, flags, unix.STATX_BTIME, &stx); err != nil {
		return time.Time{}, false
	}
	if stx.Mask&unix.STATX_BTIME == 0 {
		return time.Time{}, false
	}
	return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec)), true
}
