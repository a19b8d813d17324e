// Package formguard validates HTML forms driven by markup attributes.
//
// An Engine holds the rule registry, the message resolver and the shared
// ambient stack (logger, metrics). It loads documents into Pages; a Page
// scans its document for roots marked with data-fg-validate and keeps one
// form.Form per root.
//
//	engine := formguard.New(formguard.WithLogger(log))
//	page, err := engine.LoadString(markup)
//	if err != nil {
//		return err
//	}
//	page.Scan(nil)
//	if err := page.Bind(r.PostForm); err != nil {
//		return err
//	}
//	if !page.Validate() {
//		verr := page.Errors()
//		...
//	}
//
// Rules are picked up from attributes on each control:
//
//	<form id="signup" data-fg-validate data-fg-style="bootstrap">
//		<input name="email" data-fg-required data-fg-email
//		       data-fg-msg-required="We need your email.">
//		<button type="submit">Sign up</button>
//	</form>
//
// Handler serves pages over HTTP and answers POSTs with a datastar patch,
// an htmx fragment or the full page re-rendered with errors.
package formguard
