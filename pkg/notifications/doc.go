// Package notifications keeps a local copy of a user's (or an admin's)
// notifications in sync with the REST API.
//
// The package is organised around a Domain descriptor. A Domain names the
// list, unread-count and mark-seen endpoints of one notification table
// together with the text shown for each notification kind. UserDomain and
// AdminDomain are the two built-in descriptors; LoadDomains overlays
// overrides from a YAML file.
//
// # Components
//
//   - Client: the REST API, authenticated with a bearer token from a token.Provider.
//   - Store: the cached list and unread counter of one domain.
//   - Syncer: Refresh, MarkAsRead and MarkAllAsRead for one domain.
//
// # Usage
//
//	client := notifications.NewClient("https://api.example.com", tokens)
//	user := notifications.NewSyncer(notifications.UserDomain(), client)
//
//	if err := user.Refresh(ctx); err != nil {
//		// the previous state is kept
//	}
//	for _, n := range user.Snapshot().Notifications {
//		c := user.Describe(n)
//		fmt.Println(c.Title, c.Message)
//	}
//
// Refresh replaces the cache wholesale. Pushed notifications are never
// applied directly; callers refresh when the socket reports one.
//
// # Read state
//
// MarkAsRead updates the cache only after the server confirms. MarkAllAsRead
// waits for every request and then, by default, marks all items seen even if
// some requests failed. WithConfirmedBulkMark restricts the update to the
// confirmed items.
package notifications
