// Package message resolves the error text shown for a failed rule.
//
// A Resolver walks five tiers and stops at the first that yields text:
//
//  1. an inline data-fg-msg-<rule> attribute on the field
//  2. a [data-fg-template="<rule>"] element inside a [data-fg-templates]
//     container under the root
//  3. a legacy element with id fg-<rule>-message under the root
//  4. the rule's default message
//  5. the Fallback text
//
// Tiers 1 and 2 are silent. Tier 3 logs a warning so the field can be
// migrated, tiers 4 and 5 log errors because the page is missing templates
// it is expected to carry.
//
// Interpolate substitutes __NAME__ placeholders with failure parameters.
// A Catalog loaded from YAML overrides rule defaults by name.
package message
