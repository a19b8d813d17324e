package field

// Markup attributes consumed by the package.
const (
	// AttrName names a contenteditable element, which has no name attribute.
	AttrName = "data-fg-name"

	// AttrValueFrom redirects value resolution to the first element matching
	// the attribute's CSS selector, e.g. a hidden input behind a custom picker.
	AttrValueFrom = "data-fg-value-from"

	// AttrDisplay redirects error display to the element matching the
	// attribute's CSS selector.
	AttrDisplay = "data-fg-display"
)

// controlSelector selects every element the grouper considers.
const controlSelector = "input, select, textarea, [contenteditable]"
