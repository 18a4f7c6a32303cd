package fingerprint

import (
	"path/filepath"
	"strings"
)

// Normalizer projects an absolute path onto the identity used to match a file
// across executions. Which projection applies is a per-property policy.
type Normalizer interface {
	Normalize(absPath string) string
}

// AbsolutePathNormalizer keeps the absolute path as the identity. A moved
// file is a removal plus an addition.
type AbsolutePathNormalizer struct{}

func (AbsolutePathNormalizer) Normalize(absPath string) string {
	return absPath
}

// NameOnlyNormalizer uses only the base name, so a file keeps its identity
// when it moves between directories. Typical for classpath-like properties
// where only the entry name matters.
type NameOnlyNormalizer struct{}

func (NameOnlyNormalizer) Normalize(absPath string) string {
	return filepath.Base(absPath)
}

// RelativePathNormalizer uses the path relative to Root, so a relocated tree
// keeps its identities. Paths outside Root fall back to the absolute path.
type RelativePathNormalizer struct {
	Root string
}

func (n RelativePathNormalizer) Normalize(absPath string) string {
	rel, err := filepath.Rel(n.Root, absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return absPath
	}
	return filepath.ToSlash(rel)
}
