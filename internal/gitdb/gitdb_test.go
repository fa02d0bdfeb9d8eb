package gitdb

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
)

var testSig = &object.Signature{
	Name:  "Test Author",
	Email: "author@example.com",
	When:  time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
}

func newFixtureRepo(t *testing.T) (*git.Repository, plumbing.Hash) {
	t.Helper()
	fs := memfs.New()
	storer := memory.NewStorage()

	repo, err := git.Init(storer, fs)
	if err != nil {
		t.Fatalf("git.Init: %v", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}

	if err := util.WriteFile(fs, "README", []byte("hi\n"), 0o644); err != nil {
		t.Fatalf("write README: %v", err)
	}
	if _, err := wt.Add("README"); err != nil {
		t.Fatalf("add README: %v", err)
	}
	commitHash, err := wt.Commit("initial commit", &git.CommitOptions{
		Author:    testSig,
		Committer: testSig,
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	if _, err := repo.CreateTag("v1.0.0", commitHash, nil); err != nil {
		t.Fatalf("create tag: %v", err)
	}

	return repo, commitHash
}

func wrap(t *testing.T, repo *git.Repository) *Repository {
	t.Helper()
	r := &Repository{
		repo:       repo,
		prefixMemo: newPrefixMemo(time.Minute, 0),
		refMemo:    newRefListMemo(time.Minute),
	}
	t.Cleanup(func() {
		r.Close()
	})
	return r
}

func TestResolveFullCommitID(t *testing.T) {
	t.Parallel()
	repo, commitHash := newFixtureRepo(t)
	r := wrap(t, repo)

	got, err := r.ResolveFullCommitID(commitHash.String())
	if err != nil {
		t.Fatalf("ResolveFullCommitID: %v", err)
	}
	if got != commitHash {
		t.Errorf("got %s, want %s", got, commitHash)
	}
}

func TestResolvePrefixUniqueShortHex(t *testing.T) {
	t.Parallel()
	repo, commitHash := newFixtureRepo(t)
	r := wrap(t, repo)

	short := commitHash.String()[:8]
	got, kind, err := r.ResolvePrefix(short)
	if err != nil {
		t.Fatalf("ResolvePrefix(%q): %v", short, err)
	}
	if got != commitHash {
		t.Errorf("got %s, want %s", got, commitHash)
	}
	if kind != KindCommit {
		t.Errorf("kind = %v, want KindCommit", kind)
	}
}

func TestResolveInodeFragmentMatchesOffsetByOne(t *testing.T) {
	t.Parallel()
	repo, commitHash := newFixtureRepo(t)
	r := wrap(t, repo)

	full := commitHash.String()
	fragment := full[1:16]

	got, kind, err := r.ResolveInodeFragment(fragment)
	if err != nil {
		t.Fatalf("ResolveInodeFragment(%q): %v", fragment, err)
	}
	if got != commitHash {
		t.Errorf("got %s, want %s", got, commitHash)
	}
	if kind != KindCommit {
		t.Errorf("kind = %v, want KindCommit", kind)
	}

	// A leading prefix of the same length must not resolve; ResolveInodeFragment
	// is keyed on the offset fragment, not a conventional prefix.
	if _, _, err := r.ResolveInodeFragment(full[:15]); err == nil {
		t.Error("expected a leading-prefix fragment to not resolve via ResolveInodeFragment")
	}
}

func TestResolvePrefixNotFound(t *testing.T) {
	t.Parallel()
	repo, _ := newFixtureRepo(t)
	r := wrap(t, repo)

	_, _, err := r.ResolvePrefix("ffffffffff")
	if err == nil {
		t.Fatal("expected an error for a non-existent prefix")
	}
}

func TestResolveHead(t *testing.T) {
	t.Parallel()
	repo, commitHash := newFixtureRepo(t)
	r := wrap(t, repo)

	got, err := r.ResolveHead()
	if err != nil {
		t.Fatalf("ResolveHead: %v", err)
	}
	if got != commitHash {
		t.Errorf("got %s, want %s", got, commitHash)
	}
}

func TestListTagsSortedAndPeeled(t *testing.T) {
	t.Parallel()
	repo, commitHash := newFixtureRepo(t)
	r := wrap(t, repo)

	// Created after v1.0.0 but sorts before it.
	if _, err := repo.CreateTag("a-first", commitHash, nil); err != nil {
		t.Fatalf("create tag: %v", err)
	}

	tags, err := r.ListTags()
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("got %d tags, want 2", len(tags))
	}
	if tags[0].ShortName != "a-first" {
		t.Errorf("tags[0].ShortName = %q, want a-first", tags[0].ShortName)
	}
	if tags[1].ShortName != "v1.0.0" {
		t.Errorf("ShortName = %q, want v1.0.0", tags[1].ShortName)
	}
	if tags[1].Kind != KindCommit {
		t.Errorf("Kind = %v, want KindCommit", tags[1].Kind)
	}
	if tags[1].Hash != commitHash {
		t.Errorf("Hash = %s, want %s", tags[1].Hash, commitHash)
	}
}

func TestListTagsTreeTargetSurvivesAlongsideCommitTag(t *testing.T) {
	t.Parallel()
	repo, commitHash := newFixtureRepo(t)
	r := wrap(t, repo)

	commit, err := repo.CommitObject(commitHash)
	if err != nil {
		t.Fatalf("CommitObject: %v", err)
	}

	if _, err := repo.CreateTag("tree-tag", commit.TreeHash, &git.CreateTagOptions{
		Tagger:  testSig,
		Message: "points at a tree",
	}); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	tags, err := r.ListTags()
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("got %d tags, want 2", len(tags))
	}

	byName := make(map[string]RefEntry, len(tags))
	for _, tag := range tags {
		byName[tag.ShortName] = tag
	}

	commitTag, ok := byName["v1.0.0"]
	if !ok || commitTag.Kind != KindCommit || commitTag.Hash != commitHash {
		t.Errorf("v1.0.0 tag = %+v, want kind=commit hash=%s", commitTag, commitHash)
	}
	treeTag, ok := byName["tree-tag"]
	if !ok || treeTag.Kind != KindTree || treeTag.Hash != commit.TreeHash {
		t.Errorf("tree-tag = %+v, want kind=tree hash=%s", treeTag, commit.TreeHash)
	}
}

func TestBlobBytes(t *testing.T) {
	t.Parallel()
	repo, commitHash := newFixtureRepo(t)
	r := wrap(t, repo)

	commit, err := r.Commit(commitHash)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	tree, err := r.Tree(commit.TreeHash)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	var blobHash plumbing.Hash
	for _, e := range tree.Entries {
		if e.Name == "README" {
			blobHash = e.Hash
		}
	}
	if blobHash == plumbing.ZeroHash {
		t.Fatal("README entry not found in tree")
	}
	data, err := r.BlobBytes(blobHash)
	if err != nil {
		t.Fatalf("BlobBytes: %v", err)
	}
	if string(data) != "hi\n" {
		t.Errorf("BlobBytes = %q, want %q", data, "hi\n")
	}
}
