package metadata

import "errors"

// AuthType identifies which authentication metadata layout Content
// holds (spec.md §3 "Authentication metadata").
type AuthType byte

const (
	AuthTypeSimple AuthType = iota
	AuthTypeBearer
	// AuthTypeCustom marks an Authentication value identified by an
	// inline mime string rather than one of the two well-known
	// authentication payload shapes (SPEC_FULL.md §5: "rsocket/metadata
	// treats well-known id and custom mime string uniformly").
	AuthTypeCustom
)

// authWellKnownSimple/authWellKnownBearer are the high-bit-set type
// byte values RSocket reserves for the two built-in authentication
// payload shapes, analogous to a composite metadata entry's own
// well-known/custom-mime split but scoped to this one entry's content.
const (
	authWellKnownSimple byte = 0x00
	authWellKnownBearer byte = 0x01
)

var (
	// ErrTruncatedAuth is returned when an authentication payload ends
	// before its declared fields can be read.
	ErrTruncatedAuth = errors.New("metadata: truncated authentication payload")
)

// Authentication is a decoded AUTHENTICATION composite metadata entry.
type Authentication struct {
	Type AuthType

	Username string
	Password string

	Token string

	CustomMime    string
	CustomPayload []byte
}

// EncodeSimpleAuth serializes a username/password pair as simple
// authentication content: a type byte, then username and password each
// prefixed by a 1-byte length.
func EncodeSimpleAuth(username, password string) []byte {
	content := make([]byte, 0, 3+len(username)+len(password))
	content = append(content, authWellKnownSimple|highBit)
	content = append(content, byte(len(username))&0xFF)
	content = append(content, username...)
	content = append(content, byte(len(password))&0xFF)
	content = append(content, password...)
	return content
}

// EncodeBearerAuth serializes token as bearer authentication content.
func EncodeBearerAuth(token string) []byte {
	content := make([]byte, 0, 1+len(token))
	content = append(content, authWellKnownBearer|highBit)
	return append(content, token...)
}

// EncodeCustomAuth serializes an application-defined authentication
// scheme identified by an inline mime string rather than a well-known
// type byte.
func EncodeCustomAuth(mime string, payload []byte) []byte {
	content := make([]byte, 0, 1+len(mime)+len(payload))
	content = append(content, byte(len(mime))&0x7F)
	content = append(content, mime...)
	return append(content, payload...)
}

// DecodeAuthentication parses the content of an AUTHENTICATION
// composite metadata entry.
func DecodeAuthentication(content []byte) (Authentication, error) {
	if len(content) < 1 {
		return Authentication{}, ErrTruncatedAuth
	}

	header := content[0]
	if header&highBit == 0 {
		mimeLen := int(header & 0x7F)
		content = content[1:]
		if len(content) < mimeLen {
			return Authentication{}, ErrTruncatedAuth
		}
		return Authentication{
			Type:          AuthTypeCustom,
			CustomMime:    string(content[:mimeLen]),
			CustomPayload: content[mimeLen:],
		}, nil
	}

	content = content[1:]
	switch header &^ highBit {
	case authWellKnownSimple:
		if len(content) < 1 {
			return Authentication{}, ErrTruncatedAuth
		}
		uLen := int(content[0])
		content = content[1:]
		if len(content) < uLen+1 {
			return Authentication{}, ErrTruncatedAuth
		}
		username := string(content[:uLen])
		content = content[uLen:]
		pLen := int(content[0])
		content = content[1:]
		if len(content) < pLen {
			return Authentication{}, ErrTruncatedAuth
		}
		return Authentication{Type: AuthTypeSimple, Username: username, Password: string(content[:pLen])}, nil
	case authWellKnownBearer:
		return Authentication{Type: AuthTypeBearer, Token: string(content)}, nil
	default:
		return Authentication{}, errors.New("metadata: unknown authentication well-known type")
	}
}

// FindAuthentication extracts and decodes the AUTHENTICATION entry
// from a composite metadata section, if present.
func FindAuthentication(compositeMetadata []byte) (Authentication, bool, error) {
	entry, ok, err := Find(compositeMetadata, MimeMessageRSocketAuthenticationV0)
	if err != nil || !ok {
		return Authentication{}, ok, err
	}
	auth, err := DecodeAuthentication(entry.Content)
	if err != nil {
		return Authentication{}, false, err
	}
	return auth, true, nil
}

// AppendAuthenticationEntry appends an AUTHENTICATION composite
// metadata entry built from pre-encoded content (EncodeSimpleAuth /
// EncodeBearerAuth / EncodeCustomAuth) onto dst.
func AppendAuthenticationEntry(dst, authContent []byte) []byte {
	return AppendEntry(dst, Entry{
		IsWellKnown: true,
		WellKnown:   MimeMessageRSocketAuthenticationV0,
		Content:     authContent,
	})
}
