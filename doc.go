// Package accounts provides a small user-account service core: registration,
// email/password login, role-based authorization, account activation, and
// session invalidation through per-account token versioning.
//
// Token versioning:
//   - Every issued JWT embeds the account's token_version counter. The Guard
//     re-reads the account on each request and rejects tokens whose embedded
//     version no longer matches, so LogoutEverywhere invalidates every
//     outstanding token with a single counter increment and no revocation list.
//
// Session authority:
//   - Guard is the single choke point for protected requests. It parses the
//     bearer token, resolves the account, and enforces activation status and
//     an optional minimum role. There is no session cache; revocation and
//     deactivation take effect on the next request.
//
// Storage:
//   - The core depends only on the UserStore contract. The Bun-backed
//     repository in this package implements it; the token_version increment
//     is a single atomic UPDATE so validation reads never observe a torn
//     logout.
package accounts
