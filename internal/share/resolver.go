// Package share resolves which owners' scheduled items a viewer may see.
//
// Approval workflow lives elsewhere; this package only reads the already
// resolved grants.
package share

import (
	"context"
	"sort"

	appLog "sharecal/internal/log"
)

// Scope selects which sharing domain a lookup applies to.
type Scope string

const (
	ScopeCalendar Scope = "calendar"
	ScopeTodo     Scope = "todo"
)

// GrantSource is the subset of the store the resolver needs.
type GrantSource interface {
	ApprovedOwnerIDs(ctx context.Context, granteeID, scope string) ([]string, error)
}

// Resolver computes visible-owner sets from approved share grants.
type Resolver struct {
	grants GrantSource
}

func NewResolver(grants GrantSource) *Resolver {
	return &Resolver{grants: grants}
}

// VisibleOwners returns the sorted set of owner ids whose items viewerID may
// see in the given scope: the viewer plus every owner with an approved grant.
//
// A failing grant lookup degrades to {viewerID} and reports degraded=true;
// it never returns an error, so a broken sharing table cannot blank out the
// viewer's own calendar.
func (r *Resolver) VisibleOwners(ctx context.Context, viewerID string, scope Scope) (owners []string, degraded bool) {
	owners = []string{viewerID}

	granted, err := r.grants.ApprovedOwnerIDs(ctx, viewerID, string(scope))
	if err != nil {
		appLog.Error("share: grant lookup failed; showing own items only", err,
			"viewer", viewerID, "scope", string(scope))
		return owners, true
	}

	seen := map[string]bool{viewerID: true}
	for _, id := range granted {
		if !seen[id] {
			seen[id] = true
			owners = append(owners, id)
		}
	}
	sort.Strings(owners)
	return owners, false
}
