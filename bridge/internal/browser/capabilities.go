package browser

import "fmt"

// CapabilityVersion is the newest capability set this build knows.
const CapabilityVersion = 1

// Capabilities are the runtime permissions the embedded editor needs,
// fixed once per session and applied as launch flags. Nothing is probed
// at runtime.
type Capabilities struct {
	Version int

	// FileAccessFromFiles lets file:// pages read sibling files
	// (bundle chunks, fonts, sample assets).
	FileAccessFromFiles bool

	// UniversalAccessFromFiles lets file:// pages reach any origin.
	// Only version 1 sessions that ask for it get it.
	UniversalAccessFromFiles bool
}

// ResolveCapabilities returns the capability set for a requested version.
// Version 0 means "current".
func ResolveCapabilities(version int, universal bool) (Capabilities, error) {
	if version == 0 {
		version = CapabilityVersion
	}
	switch version {
	case 1:
		return Capabilities{
			Version:                  1,
			FileAccessFromFiles:      true,
			UniversalAccessFromFiles: universal,
		}, nil
	}
	return Capabilities{}, fmt.Errorf("browser: unsupported capability version %d (max %d)", version, CapabilityVersion)
}

// flags returns the Chrome switches implementing c.
func (c Capabilities) flags() []string {
	var out []string
	if c.FileAccessFromFiles {
		out = append(out, "allow-file-access-from-files")
	}
	if c.UniversalAccessFromFiles {
		out = append(out, "disable-web-security")
	}
	return out
}
