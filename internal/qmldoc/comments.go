// Package qmldoc attaches documentation comments of QML files to nodes of a
// documentation repository.
package qmldoc

import (
	"sort"
	"strings"

	"github.com/phobologic/qmldoc/internal/qml"
)

// IsDocComment reports whether c is a documentation comment: a block
// comment whose body starts with '!' or '*'.
func IsDocComment(c qml.Comment) bool {
	if !c.Block {
		return false
	}
	body := c.Body()
	return strings.HasPrefix(body, "!") || strings.HasPrefix(body, "*")
}

// FindPrecedingComment returns the documentation comment closest before
// offset. comments must be in source order. The backward scan stops at the
// first comment whose body starts at or before lastEnd, which belongs to a
// construct already closed, and at the first comment in used.
func FindPrecedingComment(offset int, comments []qml.Comment, used map[int]struct{}, lastEnd int) (qml.Comment, bool) {
	i := sort.Search(len(comments), func(i int) bool { return comments[i].Start >= offset })
	for i--; i >= 0; i-- {
		c := comments[i]
		if bodyStart(c) <= lastEnd {
			break
		}
		if _, ok := used[c.Start]; ok {
			break
		}
		if c.End <= offset && IsDocComment(c) {
			return c, true
		}
	}
	return qml.Comment{}, false
}

// bodyStart is the offset just past the comment's opening delimiter.
func bodyStart(c qml.Comment) int { return c.Start + len("/*") }
