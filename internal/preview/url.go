// Copyright (c) 2026 StageCMS Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package preview

import "net/url"

// Query parameters forming the addressing contract between the authoring
// surface and its preview frame: preview=draft selects draft-visible
// consumption, and v carries the version token the poll transport watches.
const (
	ParamPreview = "preview"
	ParamVersion = "v"
	ValueDraft   = "draft"
)

// DraftRequested reports whether the query selects draft-visible preview.
// Absence of the parameter means published-only consumption.
func DraftRequested(q url.Values) bool {
	return q.Get(ParamPreview) == ValueDraft
}

// TokenFromQuery returns the version token carried by the URL, if any.
func TokenFromQuery(q url.Values) string {
	return q.Get(ParamVersion)
}

// StampURL returns a copy of u with the draft-preview parameters set. The
// authoring surface calls this after each save to bump the token on the
// preview frame's URL.
func StampURL(u *url.URL, token string) *url.URL {
	out := *u
	q := out.Query()
	q.Set(ParamPreview, ValueDraft)
	q.Set(ParamVersion, token)
	out.RawQuery = q.Encode()
	return &out
}
