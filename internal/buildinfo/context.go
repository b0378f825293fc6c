// Package buildinfo holds build-time metadata, kept apart from user configuration
package buildinfo

// UnknownValue is reported for metadata that was not injected at build time
const UnknownValue = "unknown"

// Populated by NewContext from values injected into package main with -ldflags.
var (
	defaultVersion   = ""
	defaultBuildDate = ""
)

// Context contains build-time metadata that is not user-configurable.
type Context struct {
	// Version holds the Git version tag from build
	Version string

	// BuildDate is the time when the binary was built
	BuildDate string
}

// NewContext creates a Context and makes it the process default.
func NewContext(version, buildDate string) *Context {
	defaultVersion = version
	defaultBuildDate = buildDate
	return &Context{Version: version, BuildDate: buildDate}
}

// Default returns the metadata registered by the last NewContext call.
func Default() *Context {
	return &Context{Version: defaultVersion, BuildDate: defaultBuildDate}
}

// GetVersion returns the version or UnknownValue
func (c *Context) GetVersion() string {
	if c == nil || c.Version == "" {
		return UnknownValue
	}
	return c.Version
}

// GetBuildDate returns the build date or UnknownValue
func (c *Context) GetBuildDate() string {
	if c == nil || c.BuildDate == "" {
		return UnknownValue
	}
	return c.BuildDate
}

// Release is the release identifier reported to Sentry.
func (c *Context) Release() string {
	return "memobread@" + c.GetVersion()
}

// String is used for the --version output.
func (c *Context) String() string {
	return c.GetVersion() + " (built " + c.GetBuildDate() + ")"
}
