// SPDX-License-Identifier: MPL-2.0

package singularity

import (
	"errors"
	"strconv"
	"strings"
)

// parseVersion extracts the numeric components from a loosely formatted
// version string. Tokens are split on dots, dashes, underscores and
// whitespace; leading non-numeric tokens (such as "singularity version")
// are skipped and parsing stops at the first non-numeric token after the
// numbers begin. "2.3.1-dist" yields [2 3 1], "singularity version 3.8.7"
// yields [3 8 7].
func parseVersion(s string) ([]int, error) {
	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '-' || r == '_' || r == ' ' || r == '\t' || r == '\n'
	})

	var components []int
	for _, tok := range tokens {
		n, err := strconv.Atoi(tok)
		if err != nil {
			if len(components) > 0 {
				break
			}
			continue
		}
		components = append(components, n)
	}

	if len(components) == 0 {
		return nil, errors.New("no numeric version components")
	}
	return components, nil
}

// compareVersions compares two parsed versions component by component,
// treating missing components as zero. It returns -1, 0 or 1.
func compareVersions(a, b []int) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		av, bv := 0, 0
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
	}
	return 0
}
