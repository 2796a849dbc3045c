package proxy

import "strings"

// RewritePath maps an inbound path under prefix to the path forwarded
// upstream:
//
//	prefix          -> /
//	prefix/         -> /
//	prefix/<rest>   -> /<rest>
//
// A trailing slash on prefix is ignored. The second result is false when
// path is not under prefix; "/services" is not under "/service".
func RewritePath(path, prefix string) (string, bool) {
	prefix = strings.TrimRight(prefix, "/")

	if path == prefix {
		return "/", true
	}

	rest, ok := strings.CutPrefix(path, prefix+"/")
	if !ok {
		return "", false
	}

	return "/" + rest, true
}
