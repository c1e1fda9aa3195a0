package gitinfo

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"golang.org/x/mod/semver"
)

type Info struct {
	// Version is the highest semver tag, empty when none exists.
	Version string
	Commit  string
}

func (info Info) String() string {
	switch {
	case info.Version != "" && info.Commit != "":
		return fmt.Sprintf("%s (%s)", info.Version, info.Commit)
	case info.Version != "":
		return info.Version
	default:
		return info.Commit
	}
}

// Describe reads version information from the git repository containing dir.
// Tags are considered when they are a bare semver version or prefix/version.
// A directory outside of any repository yields an empty Info.
func Describe(dir, prefix string) (Info, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return Info{}, nil
	}
	if err != nil {
		return Info{}, fmt.Errorf("failed to open git repo: %w", err)
	}

	var info Info

	head, err := repo.Head()
	switch {
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		return info, nil
	case err != nil:
		return Info{}, fmt.Errorf("failed to resolve head: %w", err)
	}
	info.Commit = head.Hash().String()[:7]

	iter, err := repo.Tags()
	if err != nil {
		return Info{}, fmt.Errorf("failed to read tags: %w", err)
	}

	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := strings.TrimPrefix(ref.Name().String(), "refs/tags/")
		release, version := path.Split(name)
		if path.Clean(release) != path.Clean(prefix) {
			return nil
		}
		if !semver.IsValid(version) {
			return nil
		}
		if info.Version == "" || semver.Compare(version, info.Version) > 0 {
			info.Version = version
		}
		return nil
	})
	if err != nil {
		return Info{}, fmt.Errorf("failed to iterate tags: %w", err)
	}

	return info, nil
}
