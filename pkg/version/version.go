package version

// Current defines the application version.
// It defaults to "dev" and is overwritten at link time with -ldflags.
var Current = "dev"

const AppName = "SciGraph"
