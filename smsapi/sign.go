package smsapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// signatureAlgorithm is the algorithm identifier embedded in both the string
// to sign and the Authorization header.
const signatureAlgorithm = "ACS3-HMAC-SHA256"

// emptyBodyHash is the SHA-256 of the empty request body, precomputed since
// every call in this API carries its payload in the query string.
var emptyBodyHash = sha256Hex(nil)

// canonicalRequest builds the deterministic representation of a request that
// both signer and verifier hash. Layout:
//
//	METHOD \n URI \n sorted-encoded-query \n canonical-headers \n
//	signed-header-names \n hex-sha256(body)
func canonicalRequest(method, uri string, query url.Values, headers map[string]string, signedHeaders []string, bodyHash string) string {
	var b strings.Builder
	b.WriteString(method)
	b.WriteByte('\n')
	b.WriteString(uri)
	b.WriteByte('\n')
	b.WriteString(canonicalQuery(query))
	b.WriteByte('\n')
	for _, name := range signedHeaders {
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(strings.TrimSpace(headers[name]))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(strings.Join(signedHeaders, ";"))
	b.WriteByte('\n')
	b.WriteString(bodyHash)
	return b.String()
}

// canonicalQuery percent-encodes and orders the query parameters so signer
// and server compute over identical bytes regardless of map iteration order.
func canonicalQuery(query url.Values) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		values := append([]string(nil), query[k]...)
		sort.Strings(values)
		for _, v := range values {
			parts = append(parts, percentEncode(k)+"="+percentEncode(v))
		}
	}
	return strings.Join(parts, "&")
}

// percentEncode is RFC 3986 encoding: space becomes %20 (never +), tilde
// stays literal.
func percentEncode(s string) string {
	encoded := url.QueryEscape(s)
	encoded = strings.ReplaceAll(encoded, "+", "%20")
	encoded = strings.ReplaceAll(encoded, "%7E", "~")
	return encoded
}

// signedHeaderNames returns the lower-cased, sorted names of the headers
// included in the signature.
func signedHeaderNames(headers map[string]string) []string {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, strings.ToLower(name))
	}
	sort.Strings(names)
	return names
}

// stringToSign prefixes the hashed canonical request with the algorithm
// identifier.
func stringToSign(canonical string) string {
	return signatureAlgorithm + "\n" + sha256Hex([]byte(canonical))
}

// sign computes the hex HMAC-SHA256 of the string to sign.
func sign(secret []byte, toSign string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(toSign))
	return hex.EncodeToString(mac.Sum(nil))
}

// authorizationHeader assembles the Authorization header naming the
// credential, the signed header list, and the signature.
func authorizationHeader(accessKeyID string, signedHeaders []string, signature string) string {
	return signatureAlgorithm +
		" Credential=" + accessKeyID +
		",SignedHeaders=" + strings.Join(signedHeaders, ";") +
		",Signature=" + signature
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
