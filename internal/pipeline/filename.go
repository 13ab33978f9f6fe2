// SPDX-License-Identifier: MPL-2.0

package pipeline

import "strings"

// SafeFilename replaces every character outside [A-Za-z0-9_./-] with '_'.
// When lower is set the name is lowercased first, which is what Docker
// image tags require.
func SafeFilename(name string, lower bool) string {
	if lower {
		name = strings.ToLower(name)
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z',
			c >= 'A' && c <= 'Z',
			c >= '0' && c <= '9',
			c == '_', c == '-', c == '.', c == '/':
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// ImageFile derives the sanitized image filename for the description,
// or sanitizes the explicit override when one is given. The result is
// computed once by the caller and treated as immutable.
func (d *Description) ImageFile(override string) string {
	if override != "" {
		return SafeFilename(override, false)
	}
	return SafeFilename(d.Name+"-"+d.Version+".img", false)
}

// DockerName is the doubly-sanitized, lowercased pipeline name used as the
// Docker image tag by the docker2singularity build variant.
func (d *Description) DockerName() string {
	return SafeFilename(SafeFilename(d.Name, true), false)
}
