//go:build windows

package platform

import "os"

func newHostDescriptor() Descriptor {
	return Descriptor{
		Tag:           mapOS(),
		LinkerName:    "jlink.exe",
		ListSeparator: string(os.PathListSeparator),
	}
}
