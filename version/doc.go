// Package version turns the user supplied version token into a resolved
// [Descriptor].
//
// Accepted tokens are `latest`, `1.13.5`, `v1.13.5` and pre-release variants
// such as `1.14.0-rc.1`. A leading `v` is stripped; anything that doesn't look
// like numeric major.minor.patch with an optional `-suffix` is rejected with
// [ErrInvalidVersion] before any network call happens.
//
// `latest` is translated into a concrete version by asking an [Index] for the
// most recent stable tag.
//
//	resolver := version.NewResolver(release.NewGitHubClient())
//	desc, err := resolver.Resolve(ctx, "latest")
//	if err != nil {
//		return err
//	}
//	fmt.Println(desc.Version) // 1.14.0
package version
