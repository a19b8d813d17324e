package formguard

import "net/http"

// htmx request and response headers.
const (
	HXRequest = "HX-Request"
	HXBoosted = "HX-Boosted"
	HXTarget  = "HX-Target"

	HXRetarget = "HX-Retarget"
	HXReswap   = "HX-Reswap"
	HXTrigger  = "HX-Trigger"
)

// IsHTMX reports whether r was sent by htmx. Boosted requests expect a
// full page and do not count.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get(HXRequest) == "true" && r.Header.Get(HXBoosted) != "true"
}

// HTMXTarget returns the id of the element htmx will swap, if any.
func HTMXTarget(r *http.Request) string {
	return r.Header.Get(HXTarget)
}
