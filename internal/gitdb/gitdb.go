// Package gitdb is the object-database façade: it wraps go-git/v5 with the
// exact set of read operations this filesystem needs — commit/tree/blob
// lookup, hex-prefix resolution with ambiguity detection, and ref
// enumeration peeled to whatever kind of object each ref actually targets.
package gitdb

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// ObjectKind is the small closed set of Git object kinds this filesystem
// distinguishes; it is distinct from internal/inode.Kind so that gitdb stays
// free of any inode-encoding concern.
type ObjectKind uint8

const (
	KindCommit ObjectKind = iota
	KindTree
	KindBlob
	KindTag
)

func (k ObjectKind) String() string {
	switch k {
	case KindCommit:
		return "commit"
	case KindTree:
		return "tree"
	case KindBlob:
		return "blob"
	case KindTag:
		return "tag"
	default:
		return "unknown"
	}
}

var (
	ErrAmbiguous   = errors.New("gitdb: ambiguous hex prefix")
	ErrNotFound    = errors.New("gitdb: object not found")
	ErrWrongKind   = errors.New("gitdb: object is not the expected kind")
	ErrUnbornHead  = errors.New("gitdb: HEAD is unborn")
	ErrUnsupported = errors.New("gitdb: tag of tag is not supported")
	ErrNotSymlink  = errors.New("gitdb: blob is not a symlink target")
	fullHexLen     = 40
)

// RefEntry is one (short-name, kind, target object) tuple from branches or
// tags, peeled past any annotated tag object to the non-tag object it
// ultimately names. Most refs peel to a commit, but a ref can also be built
// to point directly at a tree or a blob.
type RefEntry struct {
	ShortName string
	Kind      ObjectKind
	Hash      plumbing.Hash
}

// Repository is a thin, read-only wrapper over a *git.Repository.
type Repository struct {
	repo *git.Repository

	// prefixMemo memoizes the O(n) hex-prefix scan; see ResolvePrefix.
	prefixMemo *prefixMemo
	refMemo    *refListMemo
}

// Open opens a repository rooted at path, which may be either a working tree
// or a bare repository.
func Open(path string) (*Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("gitdb: open %s: %w", path, err)
	}
	return &Repository{
		repo:       repo,
		prefixMemo: newPrefixMemo(ttlForMemoization, 4096),
		refMemo:    newRefListMemo(ttlForMemoization),
	}, nil
}

// Close stops the façade's background cache eviction goroutine.
func (r *Repository) Close() {
	r.prefixMemo.stop()
}

// ResolveFullCommitID resolves hex (a full or abbreviated commit id) to a
// unique commit hash.
func (r *Repository) ResolveFullCommitID(hex string) (plumbing.Hash, error) {
	h, kind, err := r.ResolvePrefix(hex)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if kind != KindCommit {
		return plumbing.ZeroHash, fmt.Errorf("%w: %s resolved to a %s", ErrWrongKind, hex, kind)
	}
	return h, nil
}

// ResolveHead follows HEAD to a commit hash.
func (r *Repository) ResolveHead() (plumbing.Hash, error) {
	ref, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return plumbing.ZeroHash, ErrUnbornHead
		}
		return plumbing.ZeroHash, fmt.Errorf("gitdb: resolve HEAD: %w", err)
	}
	if ref.Hash() == plumbing.ZeroHash {
		return plumbing.ZeroHash, ErrUnbornHead
	}
	return ref.Hash(), nil
}

// ListBranches enumerates refs/heads/*, peeled one hop past any annotated tag
// object and classified by the kind of object each one then names, sorted by
// short name. A branch whose target cannot be classified is skipped.
func (r *Repository) ListBranches() ([]RefEntry, error) {
	if v, ok := r.refMemo.getBranches(); ok {
		return v, nil
	}
	iter, err := r.repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("gitdb: list branches: %w", err)
	}
	entries, err := r.collectRefs(iter)
	if err != nil {
		return nil, err
	}
	r.refMemo.setBranches(entries)
	return entries, nil
}

// ListTags enumerates refs/tags/*, peeled past any annotated tag object to
// the commit, tree, or blob it targets, sorted by short name. A tag that
// points at another tag, or whose target cannot be classified, is skipped
// rather than failing the whole listing.
func (r *Repository) ListTags() ([]RefEntry, error) {
	if v, ok := r.refMemo.getTags(); ok {
		return v, nil
	}
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("gitdb: list tags: %w", err)
	}
	var entries []RefEntry
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		target, kind, peelErr := r.peelTagRef(ref.Hash())
		if peelErr != nil {
			return nil
		}
		entries = append(entries, RefEntry{
			ShortName: ref.Name().Short(),
			Kind:      kind,
			Hash:      target,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("gitdb: list tags: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ShortName < entries[j].ShortName })
	r.refMemo.setTags(entries)
	return entries, nil
}

func (r *Repository) collectRefs(iter storer.ReferenceIter) ([]RefEntry, error) {
	var entries []RefEntry
	err := iter.ForEach(func(ref *plumbing.Reference) error {
		target, kind, err := r.peelTagRef(ref.Hash())
		if err != nil {
			return nil
		}
		entries = append(entries, RefEntry{
			ShortName: ref.Name().Short(),
			Kind:      kind,
			Hash:      target,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("gitdb: enumerate refs: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ShortName < entries[j].ShortName })
	return entries, nil
}

// peelTagRef follows a tag ref's hash one hop: if it names an annotated tag
// object, the tag's target is returned along with its kind (a tag pointing
// at another tag returns ErrUnsupported, since that would require peeling
// further than one hop); if it's a lightweight tag, the hash already names
// the target object directly.
func (r *Repository) peelTagRef(h plumbing.Hash) (plumbing.Hash, ObjectKind, error) {
	tagObj, err := r.repo.TagObject(h)
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			kind, kindErr := r.kindOf(h)
			if kindErr != nil {
				return plumbing.ZeroHash, 0, kindErr
			}
			return h, kind, nil
		}
		return plumbing.ZeroHash, 0, fmt.Errorf("gitdb: load tag object %s: %w", h, err)
	}
	if tagObj.TargetType == plumbing.TagObject {
		return plumbing.ZeroHash, 0, fmt.Errorf("%w: %s points to another tag", ErrUnsupported, h)
	}
	return tagObj.Target, kindFromObjectType(tagObj.TargetType), nil
}

// Commit, Tree, Blob, and Object are thin content readers.
func (r *Repository) Commit(h plumbing.Hash) (*object.Commit, error) {
	c, err := r.repo.CommitObject(h)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return c, nil
}

func (r *Repository) Tree(h plumbing.Hash) (*object.Tree, error) {
	t, err := r.repo.TreeObject(h)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return t, nil
}

func (r *Repository) Blob(h plumbing.Hash) (*object.Blob, error) {
	b, err := r.repo.BlobObject(h)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return b, nil
}

// BlobBytes reads a blob's full content into memory.
func (r *Repository) BlobBytes(h plumbing.Hash) ([]byte, error) {
	b, err := r.Blob(h)
	if err != nil {
		return nil, err
	}
	rc, err := b.Reader()
	if err != nil {
		return nil, fmt.Errorf("gitdb: open blob %s: %w", h, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("gitdb: read blob %s: %w", h, err)
	}
	return data, nil
}

// ResolvePrefix resolves hex (full or abbreviated) to a unique object hash
// and kind. A full-length hex string is resolved directly; a short prefix is
// resolved by scanning the object database, since go-git has no built-in
// short-hash disambiguator.
func (r *Repository) ResolvePrefix(hex string) (plumbing.Hash, ObjectKind, error) {
	hex = strings.ToLower(hex)
	if len(hex) == fullHexLen {
		h := plumbing.NewHash(hex)
		kind, err := r.kindOf(h)
		if err != nil {
			return plumbing.ZeroHash, 0, err
		}
		return h, kind, nil
	}

	if h, ok := r.prefixMemo.get(hex); ok {
		kind, err := r.kindOf(h)
		if err != nil {
			return plumbing.ZeroHash, 0, err
		}
		return h, kind, nil
	}

	matches, kinds, err := r.scanPrefix(hex)
	if err != nil {
		return plumbing.ZeroHash, 0, err
	}
	switch len(matches) {
	case 0:
		return plumbing.ZeroHash, 0, fmt.Errorf("%w: %q", ErrNotFound, hex)
	case 1:
		r.prefixMemo.set(hex, matches[0])
		return matches[0], kinds[0], nil
	default:
		return plumbing.ZeroHash, 0, fmt.Errorf("%w: %q matches %d objects", ErrAmbiguous, hex, len(matches))
	}
}

func (r *Repository) scanPrefix(hex string) ([]plumbing.Hash, []ObjectKind, error) {
	return r.scanMatching(func(h plumbing.Hash) bool {
		return strings.HasPrefix(h.String(), hex)
	})
}

// scanMatching walks the whole object database, an O(n) fallback used only
// when no direct lookup is possible.
func (r *Repository) scanMatching(match func(plumbing.Hash) bool) ([]plumbing.Hash, []ObjectKind, error) {
	iter, err := r.repo.Storer.IterEncodedObjects(plumbing.AnyObject)
	if err != nil {
		return nil, nil, fmt.Errorf("gitdb: scan objects: %w", err)
	}
	defer iter.Close()

	var matches []plumbing.Hash
	var kinds []ObjectKind
	err = iter.ForEach(func(obj plumbing.EncodedObject) error {
		h := obj.Hash()
		if match(h) {
			matches = append(matches, h)
			kinds = append(kinds, kindFromObjectType(obj.Type()))
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("gitdb: scan objects: %w", err)
	}
	return matches, kinds, nil
}

// ResolveInodeFragment resolves the hex fragment internal/inode.HexPrefix
// recovers from a content-addressed inode number back to the object that
// produced it. Unlike ResolvePrefix, which matches a user-typed abbreviation
// against a hash's own leading characters, the encoding scheme overwrites a
// hash's very first hex digit with the inode's kind tag, so the only
// recoverable fragment is the hash's characters [1:1+len(fragment)), not a
// leading prefix — this method matches at that offset instead of at the
// start of the string.
func (r *Repository) ResolveInodeFragment(fragment string) (plumbing.Hash, ObjectKind, error) {
	fragment = strings.ToLower(fragment)
	end := 1 + len(fragment)

	if h, ok := r.prefixMemo.get(inodeFragmentCacheKey(fragment)); ok {
		kind, err := r.kindOf(h)
		if err != nil {
			return plumbing.ZeroHash, 0, err
		}
		return h, kind, nil
	}

	matches, kinds, err := r.scanMatching(func(h plumbing.Hash) bool {
		s := h.String()
		return len(s) >= end && s[1:end] == fragment
	})
	if err != nil {
		return plumbing.ZeroHash, 0, err
	}
	switch len(matches) {
	case 0:
		return plumbing.ZeroHash, 0, fmt.Errorf("%w: %q", ErrNotFound, fragment)
	case 1:
		r.prefixMemo.set(inodeFragmentCacheKey(fragment), matches[0])
		return matches[0], kinds[0], nil
	default:
		return plumbing.ZeroHash, 0, fmt.Errorf("%w: %q matches %d objects", ErrAmbiguous, fragment, len(matches))
	}
}

// inodeFragmentCacheKey keeps ResolveInodeFragment's memoized entries in a
// namespace distinct from ResolvePrefix's, since the two methods interpret
// the same string differently (leading prefix vs. offset-by-one fragment).
func inodeFragmentCacheKey(fragment string) string {
	return "inode-fragment:" + fragment
}

func (r *Repository) kindOf(h plumbing.Hash) (ObjectKind, error) {
	obj, err := r.repo.Storer.EncodedObject(plumbing.AnyObject, h)
	if err != nil {
		return 0, translateNotFound(err)
	}
	return kindFromObjectType(obj.Type()), nil
}

func kindFromObjectType(t plumbing.ObjectType) ObjectKind {
	switch t {
	case plumbing.CommitObject:
		return KindCommit
	case plumbing.TreeObject:
		return KindTree
	case plumbing.TagObject:
		return KindTag
	default:
		return KindBlob
	}
}

func translateNotFound(err error) error {
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}

// EntryKind classifies a tree entry's file mode into the node kind this
// filesystem materializes for it.
func EntryKind(mode filemode.FileMode) (isDir, isSymlink, isExecutable, isGitlink bool) {
	switch mode {
	case filemode.Dir:
		return true, false, false, false
	case filemode.Symlink:
		return false, true, false, false
	case filemode.Executable:
		return false, false, true, false
	case filemode.Submodule:
		return true, false, false, true
	default:
		return false, false, false, false
	}
}

// ttlForMemoization matches the one-second entry/attribute TTL the spec
// grants for Git-backed node caching; reusing it here means a ref move or a
// newly disambiguated prefix is visible to clients no later than the
// kernel's own cache would have forced a refresh anyway.
const ttlForMemoization = time.Second
