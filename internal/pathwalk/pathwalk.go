// Package pathwalk reconstructs full file paths by walking $FILE_NAME
// parent-reference chains from an MFT record stream.
package pathwalk

import (
	"errors"
	"path"
	"strconv"
	"strings"

	"github.com/ntfsgo/mftrecover/internal/mft"
)

// MaxDepth bounds the parent-chain walk to defend against cyclic parent
// references in corrupt volumes.
const MaxDepth = 4096

const recordIndexMask = 0x0000_FFFF_FFFF_FFFF

var (
	ErrCyclicPath   = errors.New("pathwalk: cyclic parent reference")
	ErrOrphanedPath = errors.New("pathwalk: record lacks a usable FILE_NAME chain")
)

// OrphanDir is the synthetic directory orphaned files are placed under.
const OrphanDir = "__ORPHANED__"

// Resolve walks the parent chain for the record at index i and returns its
// full path. If the chain is cyclic, too deep, or any ancestor lacks a
// FILE_NAME attribute, it returns a path under OrphanDir built from the
// terminal basename instead, along with the triggering error.
func Resolve(stream *mft.Stream, index int) (string, error) {
	components := []string{}
	visited := map[int]bool{}
	current := index

	orphan := func(err error) (string, error) {
		if len(components) == 0 {
			return path.Join(OrphanDir, orphanName(index)), err
		}
		return path.Join(OrphanDir, components[len(components)-1]), err
	}

	for depth := 0; depth < MaxDepth; depth++ {
		if visited[current] {
			return orphan(ErrCyclicPath)
		}
		visited[current] = true

		rec := stream.At(current)
		if rec == nil {
			return orphan(ErrOrphanedPath)
		}

		fnValue := rec.Get(mft.AttrFileName, "")
		if fnValue == nil {
			return orphan(ErrOrphanedPath)
		}

		raw, err := fnValue.Materialize(nil)
		if err != nil {
			return orphan(ErrOrphanedPath)
		}
		parsed, err := mft.ParseFileName(raw)
		if err != nil {
			return orphan(ErrOrphanedPath)
		}

		if parsed.Name == "." {
			// Root reached: components collected so far form the full path,
			// most-significant first. The root itself contributes no name.
			return "/" + strings.Join(components, "/"), nil
		}

		components = append([]string{parsed.Name}, components...)
		current = int(parsed.ParentRef & recordIndexMask)
	}

	return orphan(ErrCyclicPath)
}

func orphanName(index int) string {
	return "record_" + strconv.Itoa(index)
}
