/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2019 WireGuard LLC. All Rights Reserved.
 */

package wgcfg

import "regexp"

var allowedNameFormat = regexp.MustCompile("^[a-zA-Z0-9_=+.-]{1,32}$")

// TunnelNameIsValid reports whether name is usable as a tunnel
// identifier: a short run of characters safe to use as a map key,
// a UAPI socket name, and a log field, with no path separators or
// control characters to worry about.
func TunnelNameIsValid(name string) bool {
	return allowedNameFormat.MatchString(name)
}
