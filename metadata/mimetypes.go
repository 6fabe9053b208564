// Package metadata implements RSocket's composite metadata extension:
// encoding/decoding a list of (mime, content) entries in a single
// metadata section, the well-known mime-type registry those entries
// can reference by a single byte instead of a string, and the routing
// and authentication entry formats built on top of it (spec.md §3
// "Composite metadata entry"/"Routing metadata"/"Authentication
// metadata", §6 "Composite metadata mime registry").
//
// Structured like the teacher's http2utils package: small,
// dependency-free encode/decode helpers plus one registry table, with
// no import of the connection engine.
package metadata

// WellKnownMimeType is a registry id standing in for a full mime
// string in a composite metadata entry (spec.md §6, subset; full table
// per SPEC_FULL.md §5 since the registry is a flat constant table and
// trimming it buys nothing).
type WellKnownMimeType byte

const (
	MimeApplicationAvro                WellKnownMimeType = 0x00
	MimeApplicationCBOR                WellKnownMimeType = 0x01
	MimeApplicationGraphQL             WellKnownMimeType = 0x02
	MimeApplicationGzip                WellKnownMimeType = 0x03
	MimeApplicationJavascript          WellKnownMimeType = 0x04
	MimeApplicationJSON                WellKnownMimeType = 0x05
	MimeApplicationOctetStream         WellKnownMimeType = 0x06
	MimeApplicationPDF                 WellKnownMimeType = 0x07
	MimeApplicationThrift              WellKnownMimeType = 0x08
	MimeApplicationProtobuf            WellKnownMimeType = 0x09
	MimeApplicationXML                 WellKnownMimeType = 0x0A
	MimeApplicationZip                 WellKnownMimeType = 0x0B
	MimeAudioAAC                       WellKnownMimeType = 0x0C
	MimeAudioMp3                       WellKnownMimeType = 0x0D
	MimeAudioOGG                       WellKnownMimeType = 0x0E
	MimeVideoH264                      WellKnownMimeType = 0x0F
	MimeVideoMp4                       WellKnownMimeType = 0x10
	MimeImageBMP                       WellKnownMimeType = 0x11
	MimeImageGif                       WellKnownMimeType = 0x12
	MimeImageJPEG                      WellKnownMimeType = 0x13
	MimeImagePNG                       WellKnownMimeType = 0x14
	MimeImageTIFF                      WellKnownMimeType = 0x15
	MimeMultipartMixed                 WellKnownMimeType = 0x16
	MimeTextCSS                        WellKnownMimeType = 0x17
	MimeTextCSV                        WellKnownMimeType = 0x18
	MimeTextHTML                       WellKnownMimeType = 0x19
	MimeTextPlain                      WellKnownMimeType = 0x1A
	MimeTextXML                        WellKnownMimeType = 0x1B
	MimeApplicationHessian             WellKnownMimeType = 0x1C
	MimeApplicationJavaObject          WellKnownMimeType = 0x1D
	MimeApplicationCloudEventsJSON     WellKnownMimeType = 0x1E
	MimeApplicationVndApacheAvro          WellKnownMimeType = 0x1F
	MimeMessageRSocketMimeType            WellKnownMimeType = 0x7B
	MimeMessageRSocketAcceptMimeTypesV0   WellKnownMimeType = 0x7C
	MimeMessageRSocketCompositeMetadataV0 WellKnownMimeType = 0x7A
	MimeMessageRSocketAuthenticationV0    WellKnownMimeType = 0x7D
	MimeMessageRSocketTracingZipkinV0     WellKnownMimeType = 0x7E
	MimeMessageRSocketRoutingV0           WellKnownMimeType = 0x7F
)

var wellKnownMimeStrings = map[WellKnownMimeType]string{
	MimeApplicationAvro:                   "application/avro",
	MimeApplicationCBOR:                    "application/cbor",
	MimeApplicationGraphQL:                 "application/graphql",
	MimeApplicationGzip:                    "application/gzip",
	MimeApplicationJavascript:              "application/javascript",
	MimeApplicationJSON:                    "application/json",
	MimeApplicationOctetStream:             "application/octet-stream",
	MimeApplicationPDF:                     "application/pdf",
	MimeApplicationThrift:                  "application/vnd.apache.thrift.binary",
	MimeApplicationProtobuf:                "application/vnd.google.protobuf",
	MimeApplicationXML:                     "application/xml",
	MimeApplicationZip:                     "application/zip",
	MimeAudioAAC:                           "audio/aac",
	MimeAudioMp3:                           "audio/mp3",
	MimeAudioOGG:                           "audio/ogg",
	MimeVideoH264:                          "video/h264",
	MimeVideoMp4:                           "video/mp4",
	MimeImageBMP:                           "image/bmp",
	MimeImageGif:                           "image/gif",
	MimeImageJPEG:                          "image/jpeg",
	MimeImagePNG:                           "image/png",
	MimeImageTIFF:                          "image/tiff",
	MimeMultipartMixed:                     "multipart/mixed",
	MimeTextCSS:                            "text/css",
	MimeTextCSV:                            "text/csv",
	MimeTextHTML:                           "text/html",
	MimeTextPlain:                          "text/plain",
	MimeTextXML:                            "text/xml",
	MimeApplicationHessian:                 "application/x-hessian",
	MimeApplicationJavaObject:              "application/x-java-object",
	MimeApplicationCloudEventsJSON:         "application/cloudevents+json",
	MimeApplicationVndApacheAvro:           "application/vnd.apache.avro",
	MimeMessageRSocketMimeType:             "message/x.rsocket.mime-type.v0",
	MimeMessageRSocketAcceptMimeTypesV0:    "message/x.rsocket.accept-mime-types.v0",
	MimeMessageRSocketCompositeMetadataV0:  "message/x.rsocket.composite-metadata.v0",
	MimeMessageRSocketAuthenticationV0:     "message/x.rsocket.authentication.v0",
	MimeMessageRSocketTracingZipkinV0:      "message/x.rsocket.tracing-zipkin.v0",
	MimeMessageRSocketRoutingV0:            "message/x.rsocket.routing.v0",
}

var mimeStringsToWellKnown = func() map[string]WellKnownMimeType {
	out := make(map[string]WellKnownMimeType, len(wellKnownMimeStrings))
	for id, s := range wellKnownMimeStrings {
		out[s] = id
	}
	return out
}()

// LookupWellKnownMime returns the canonical mime string for id.
func LookupWellKnownMime(id WellKnownMimeType) (string, bool) {
	s, ok := wellKnownMimeStrings[id]
	return s, ok
}

// LookupMimeID returns the registry id for mime, if it has one.
func LookupMimeID(mime string) (WellKnownMimeType, bool) {
	id, ok := mimeStringsToWellKnown[mime]
	return id, ok
}
