package metadata

import "errors"

// ErrNoRoute is returned when a routing metadata entry decodes to zero
// tags (spec.md §3 "Routing metadata": "a list of UTF-8 tags ... first
// tag is the route").
var ErrNoRoute = errors.New("metadata: routing entry has no tags")

// ErrTruncatedTag mirrors ErrTruncatedEntry for the routing tag list.
var ErrTruncatedTag = errors.New("metadata: truncated routing tag")

// EncodeRouting serializes tags as RSocket routing metadata content: a
// sequence of 1-byte-length-prefixed UTF-8 tags, the first of which is
// the route.
func EncodeRouting(tags ...string) []byte {
	var content []byte
	for _, tag := range tags {
		content = append(content, byte(len(tag))&0xFF)
		content = append(content, tag...)
	}
	return content
}

// DecodeRouting parses the tag list out of routing metadata content
// (the Entry.Content of a MimeMessageRSocketRoutingV0 composite entry).
func DecodeRouting(content []byte) ([]string, error) {
	var tags []string
	for len(content) > 0 {
		n := int(content[0])
		content = content[1:]
		if len(content) < n {
			return nil, ErrTruncatedTag
		}
		tags = append(tags, string(content[:n]))
		content = content[n:]
	}
	if len(tags) == 0 {
		return nil, ErrNoRoute
	}
	return tags, nil
}

// Route extracts the route (the first routing tag) from a full
// composite metadata section.
func Route(compositeMetadata []byte) (string, error) {
	entry, ok, err := Find(compositeMetadata, MimeMessageRSocketRoutingV0)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNoRoute
	}
	tags, err := DecodeRouting(entry.Content)
	if err != nil {
		return "", err
	}
	return tags[0], nil
}

// AppendRoutingEntry appends a routing composite-metadata entry for
// route (plus any additional tags) onto dst.
func AppendRoutingEntry(dst []byte, route string, extraTags ...string) []byte {
	tags := append([]string{route}, extraTags...)
	return AppendEntry(dst, Entry{
		IsWellKnown: true,
		WellKnown:   MimeMessageRSocketRoutingV0,
		Content:     EncodeRouting(tags...),
	})
}
