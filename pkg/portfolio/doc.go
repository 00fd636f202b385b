// Package portfolio maps content API payloads into the view models rendered
// by the site: experience timeline entries and project cards.
//
// ExperienceSource and ProjectSource wrap the content API client and apply
// the field projections. The formatting helpers (FormatDate, SplitTags,
// ImageURL) are pure and are used by both.
package portfolio
