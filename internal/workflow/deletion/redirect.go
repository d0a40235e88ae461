// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package deletion

import (
	"net/url"
	"path"
	"strings"

	"github.com/ManuGH/issuedesk/internal/domain/issue"
)

// ListingPath is the default page after a delete.
const ListingPath = "/issues"

// RedirectTarget picks where to go after deleting deletedKey:
// the caller's return URL unless it shows the deleted issue, else the
// parent's detail page for a deleted sub-task, else the issue listing.
func RedirectTarget(returnURL, deletedKey, parentKey string) string {
	if returnURL = strings.TrimSpace(returnURL); returnURL != "" && isSafeLocal(returnURL) && !pointsAtIssue(returnURL, deletedKey) {
		return returnURL
	}
	if parentKey != "" {
		return issue.BrowsePath(parentKey)
	}
	return ListingPath
}

// pointsAtIssue reports whether target is the browse page of key.
func pointsAtIssue(target, key string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	clean := path.Clean("/" + strings.TrimPrefix(u.Path, "/"))
	return strings.EqualFold(clean, issue.BrowsePath(key))
}

// isSafeLocal rejects absolute and scheme-relative URLs so a return URL
// cannot bounce the user to another host.
func isSafeLocal(target string) bool {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return false
	}
	u, err := url.Parse(target)
	return err == nil && u.Scheme == "" && u.Host == ""
}
