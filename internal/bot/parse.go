package bot

import (
	"fmt"
	"strings"
)

// ParseNames splits a comma-separated player list, dropping empty
// parts.
func ParseNames(args string) []string {
	var out []string
	for _, part := range strings.Split(args, ",") {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// ParseAliasArgs parses "/alias <english name> = <localized name>".
func ParseAliasArgs(args string) (nameEN, localized string, err error) {
	left, right, found := strings.Cut(args, "=")
	if !found {
		return "", "", fmt.Errorf("usage: /alias Jannik Sinner = Sinner J.")
	}
	nameEN = strings.TrimSpace(left)
	localized = strings.TrimSpace(right)
	if nameEN == "" || localized == "" {
		return "", "", fmt.Errorf("both names are required: /alias Jannik Sinner = Sinner J.")
	}
	return nameEN, localized, nil
}
