// Package github provides a small client for the GitHub endpoints the
// updater needs.
//
// # Head Commit
//
// [Client.HeadCommit] asks the commits API for the default branch head with
// the "application/vnd.github.sha" media type, which returns the bare
// commit id as plain text:
//
//	client := github.NewClient("", "", os.Getenv("GITHUB_TOKEN"))
//	rev, err := client.HeadCommit(ctx, "anthropics/skills")
//
// # Archives
//
// [Client.ArchiveURL] and [Client.CloneURL] derive download locations from
// a repository identifier. Both honor the configured archive host, which
// tests and mirrors override.
//
// # Authentication
//
// A GitHub personal access token is optional but recommended to avoid rate
// limits. Without a token, the client is limited to 60 requests/hour.
// With a token, the limit is 5000 requests/hour.
package github
