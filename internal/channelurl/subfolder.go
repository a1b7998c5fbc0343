package channelurl

const (
	// DefaultSubFolderKey stands in for channels stored under the backend's default location.
	DefaultSubFolderKey = "__default__"
	// GlobalDefaultSentinel asks the backend to apply its global default sub-folder.
	GlobalDefaultSentinel = "##USE_GLOBAL_DEFAULT##"
	// RootSentinel pins downloads to the root of the output directory.
	RootSentinel = "##ROOT##"
)

// NormalizeSubFolderKey maps an absent or empty sub-folder onto [DefaultSubFolderKey].
func NormalizeSubFolderKey(subFolder *string) string {
	if subFolder == nil || *subFolder == "" {
		return DefaultSubFolderKey
	}
	return *subFolder
}

// NormalizeSubFolderKeys maps each entry through [NormalizeSubFolderKey], preserving positions.
func NormalizeSubFolderKeys(subFolders []*string) []string {
	keys := make([]string, len(subFolders))
	for i, sf := range subFolders {
		keys[i] = NormalizeSubFolderKey(sf)
	}
	return keys
}

// FormatSubFolderLabel renders a sub-folder key for display.
func FormatSubFolderLabel(key string) string {
	switch key {
	case DefaultSubFolderKey:
		return "root"
	case GlobalDefaultSentinel:
		return "global default"
	default:
		return "__" + key + "/"
	}
}

// IsUsingDefaultSubfolder reports whether the channel defers to the global default.
func IsUsingDefaultSubfolder(subFolder *string) bool {
	return subFolder != nil && *subFolder == GlobalDefaultSentinel
}

// IsExplicitlyNoSubfolder reports whether the channel has no sub-folder at all.
func IsExplicitlyNoSubfolder(subFolder *string) bool {
	return subFolder == nil || *subFolder == ""
}

// IsExplicitlyRoot reports whether the channel is pinned to the root directory.
func IsExplicitlyRoot(subFolder *string) bool {
	return subFolder != nil && *subFolder == RootSentinel
}

// SubFolderLabel renders a channel's sub-folder setting for display, resolving the sentinels.
func SubFolderLabel(subFolder *string) string {
	switch {
	case IsExplicitlyRoot(subFolder), IsExplicitlyNoSubfolder(subFolder):
		return FormatSubFolderLabel(DefaultSubFolderKey)
	case IsUsingDefaultSubfolder(subFolder):
		return FormatSubFolderLabel(GlobalDefaultSentinel)
	}
	return FormatSubFolderLabel(*subFolder)
}
