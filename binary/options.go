package binary

type Option func(b *Binary)

// WithDirectory overrides the directory the binary is installed into.
// Ignored on package managed platforms.
func WithDirectory(dir string) Option {
	return func(b *Binary) {
		if b.platform.PackageManaged() {
			return
		}
		b.template.Directory = dir
	}
}

// WithCommit sets the commit the release artifacts are named after.
// Geth archives carry the first 8 characters of the release commit in their name,
// e.g. geth-linux-amd64-1.13.5-916d6a44.tar.gz.
func WithCommit(commit string) Option {
	return func(b *Binary) {
		if len(commit) > 8 {
			commit = commit[:8]
		}
		b.template.Commit = commit
	}
}
