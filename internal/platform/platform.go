package platform

import "runtime"

// Descriptor holds everything the build pipeline needs to know about the host.
type Descriptor struct {
	Tag           string
	LinkerName    string
	ListSeparator string
}

// Host returns the descriptor for the running platform.
func Host() Descriptor {
	return newHostDescriptor()
}

// WithTag returns a copy of d using tag, or d unchanged when tag is empty.
func (d Descriptor) WithTag(tag string) Descriptor {
	if tag != "" {
		d.Tag = tag
	}
	return d
}

func mapOS() string {
	switch runtime.GOOS {
	case "darwin":
		return "mac"
	case "windows":
		return "windows"
	case "linux":
		return "linux"
	default:
		return runtime.GOOS
	}
}
