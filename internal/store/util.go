package store

import "regexp"

func compileRegex(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(pattern)
}

// regexQuoteExact builds a regex that matches key literally, for patterns
// created by discovery promotion where the observed key is not meant to be
// a user-authored regex.
func regexQuoteExact(key string) string {
	return "^" + regexp.QuoteMeta(key) + "$"
}
