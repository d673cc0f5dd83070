package spec

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// contentHash computes the spec's identity: a SHA-256 digest over a canonical
// encoding of the package name, version, compiler, variants (sorted by key)
// and the hashes of all direct dependencies (sorted). Field values are
// length-prefixed so distinct attribute tuples can never encode to the same
// byte stream.
func contentHash(s *ConcreteSpec) string {
	var sb strings.Builder

	writeField(&sb, "name", s.name)
	writeField(&sb, "version", s.version)
	writeField(&sb, "compiler", s.compiler)

	variantKeys := make([]string, 0, len(s.variants))
	for k := range s.variants {
		variantKeys = append(variantKeys, k)
	}
	sort.Strings(variantKeys)
	for _, k := range variantKeys {
		writeField(&sb, "variant:"+k, s.variants[k])
	}

	depHashes := make([]string, 0, len(s.deps))
	for _, dep := range s.deps {
		depHashes = append(depHashes, dep.Hash())
	}
	sort.Strings(depHashes)
	for _, h := range depHashes {
		writeField(&sb, "dep", h)
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// writeField appends one length-prefixed key/value pair to the encoding.
func writeField(sb *strings.Builder, key, value string) {
	fmt.Fprintf(sb, "%d:%s=%d:%s;", len(key), key, len(value), value)
}
