//go:build !windows

package platform

import "os"

func newHostDescriptor() Descriptor {
	return Descriptor{
		Tag:           mapOS(),
		LinkerName:    "jlink",
		ListSeparator: string(os.PathListSeparator),
	}
}
