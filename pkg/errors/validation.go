package errors

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"unicode"
)

// maxPathLen bounds archive entry names.
const maxPathLen = 500

// pathRules are checked in order; the first failing rule names the problem.
var pathRules = []struct {
	bad    func(string) bool
	reason string
}{
	{func(p string) bool { return p == "" }, "path is empty"},
	{func(p string) bool { return len(p) > maxPathLen }, fmt.Sprintf("path is longer than %d bytes", maxPathLen)},
	{func(p string) bool { return strings.IndexFunc(p, unicode.IsControl) >= 0 }, "path contains control characters"},
	{func(p string) bool { return strings.HasPrefix(p, "/") }, "path is absolute"},
	{func(p string) bool { return strings.Contains(p, "\\") }, "path contains a backslash"},
	{func(p string) bool { return strings.Contains(p, "..") }, "path contains \"..\""},
}

// ValidatePath checks a relative path stored inside a bundle archive, so an
// archive can be unpacked anywhere without escaping its directory.
func ValidatePath(p string) error {
	for _, r := range pathRules {
		if r.bad(p) {
			return New(ErrCodeInvalidPath, "%s: %q", r.reason, truncate(p))
		}
	}
	return nil
}

func truncate(p string) string {
	if len(p) > 64 {
		return p[:64] + "..."
	}
	return p
}

// assetNameRegex matches file names produced by the asset registry
// (e.g. "img/image_3.png").
var assetNameRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+(/[A-Za-z0-9_.-]+)*\.(png|jpg|jpeg|gif|webp)$`)

// ValidateAssetName validates the name of an asset entry in a bundle.
func ValidateAssetName(name string) error {
	if err := ValidatePath(name); err != nil {
		return err
	}
	if path.Clean(name) != name {
		return New(ErrCodeInvalidPath, "asset name is not canonical: %q", name)
	}
	if !assetNameRegex.MatchString(name) {
		return New(ErrCodeInvalidPath, "invalid asset name: %q", name)
	}
	return nil
}
