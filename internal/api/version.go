package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dunglas/httpsfv"
	"golang.org/x/mod/semver"
)

// The cart service advertises its protocol version on every response as an
// RFC 8941 dictionary, and the client identifies each request the same way:
//
//	Commerce-Version: version="1.2.0", min_client="1.0.0"
//	Sync-Meta:        req="a1b2c3", client="1.0.0"
//
// The request id in Sync-Meta is the per-mutation sequencing token; the
// server echoes it in logs, which makes lost-update investigations tractable.
const (
	HeaderServerVersion = "Commerce-Version"
	HeaderSyncMeta      = "Sync-Meta"
)

// ServerVersion is the parsed Commerce-Version header.
type ServerVersion struct {
	Version   string // server protocol version
	MinClient string // oldest client version the server accepts, optional
}

// ParseServerVersion extracts the protocol version from a Commerce-Version
// header value. Returns an error if the header is malformed or missing the
// version key; an absent header is the caller's decision to tolerate.
func ParseServerVersion(header string) (*ServerVersion, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, errors.New("empty Commerce-Version header")
	}

	dict, err := httpsfv.UnmarshalDictionary([]string{header})
	if err != nil {
		return nil, fmt.Errorf("invalid Commerce-Version header: %w", err)
	}

	version, err := dictString(dict, "version")
	if err != nil {
		return nil, err
	}

	sv := &ServerVersion{Version: version}
	if minClient, err := dictString(dict, "min_client"); err == nil {
		sv.MinClient = minClient
	}
	return sv, nil
}

func dictString(dict *httpsfv.Dictionary, key string) (string, error) {
	member, ok := dict.Get(key)
	if !ok {
		return "", fmt.Errorf("%s key not found in Commerce-Version header", key)
	}
	item, ok := member.(httpsfv.Item)
	if !ok {
		return "", fmt.Errorf("%s value must be an item", key)
	}
	s, ok := item.Value.(string)
	if !ok {
		return "", fmt.Errorf("%s value must be a string", key)
	}
	return s, nil
}

// BuildSyncMeta renders the Sync-Meta request header carrying the request id
// and client version as an RFC 8941 dictionary.
func BuildSyncMeta(requestID, clientVersion string) (string, error) {
	dict := httpsfv.NewDictionary()
	dict.Add("req", httpsfv.NewItem(requestID))
	dict.Add("client", httpsfv.NewItem(clientVersion))
	return httpsfv.Marshal(dict)
}

// Compatible reports whether serverVersion satisfies the minimum the client
// supports. Uses semver comparison when both sides look like semver,
// otherwise falls back to string equality.
func Compatible(serverVersion, minSupported string) bool {
	sv := normalizeVersion(serverVersion)
	mv := normalizeVersion(minSupported)

	if !semver.IsValid(sv) || !semver.IsValid(mv) {
		return serverVersion == minSupported
	}

	// server version must be at or above the client's minimum
	return semver.Compare(sv, mv) >= 0
}

// normalizeVersion adds the "v" prefix semver parsing requires.
func normalizeVersion(v string) string {
	if v == "" {
		return v
	}
	if !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}
