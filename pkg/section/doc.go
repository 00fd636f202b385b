// Package section holds the per-visitor state of a fetched list: the items
// currently displayed, whether a fetch cycle is in flight, and for paged
// lists the current page.
//
// Every fetch cycle takes a Ticket from Begin. Only the newest ticket may
// apply its result or clear the loading flag, so a slow response to an old
// request can never overwrite the answer to a newer one. A failed cycle
// leaves the displayed items untouched.
//
// Lock order: Section before Pager.
package section
