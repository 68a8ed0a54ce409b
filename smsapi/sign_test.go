package smsapi

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalQuerySortsAndEncodes(t *testing.T) {
	q := url.Values{}
	q.Set("Zebra", "last")
	q.Set("Alpha", "first value")
	q.Set("Mid", "a/b~c")

	got := canonicalQuery(q)
	assert.Equal(t, "Alpha=first%20value&Mid=a%2Fb~c&Zebra=last", got)
}

func TestCanonicalQueryIsDeterministic(t *testing.T) {
	q := url.Values{}
	q.Set("B", "2")
	q.Set("A", "1")
	q.Set("C", "3")

	first := canonicalQuery(q)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, canonicalQuery(q))
	}
}

func TestCanonicalRequestLayout(t *testing.T) {
	q := url.Values{}
	q.Set("PhoneNumber", "13800000000")
	headers := map[string]string{
		"host":         "api.example.com",
		"x-acs-action": "CheckSmsVerifyCode",
	}
	signed := signedHeaderNames(headers)
	require.Equal(t, []string{"host", "x-acs-action"}, signed)

	got := canonicalRequest("POST", "/", q, headers, signed, emptyBodyHash)
	want := strings.Join([]string{
		"POST",
		"/",
		"PhoneNumber=13800000000",
		"host:api.example.com",
		"x-acs-action:CheckSmsVerifyCode",
		"",
		"host;x-acs-action",
		emptyBodyHash,
	}, "\n")
	assert.Equal(t, want, got)
}

func TestStringToSignPrefixesAlgorithm(t *testing.T) {
	got := stringToSign("anything")
	require.True(t, strings.HasPrefix(got, signatureAlgorithm+"\n"))
	// The remainder is the hex SHA-256 of the canonical request.
	assert.Len(t, strings.TrimPrefix(got, signatureAlgorithm+"\n"), 64)
}

func TestSignIsKeyDependent(t *testing.T) {
	toSign := stringToSign("canonical")
	s1 := sign([]byte("secret-a"), toSign)
	s2 := sign([]byte("secret-b"), toSign)
	assert.NotEqual(t, s1, s2)
	assert.Equal(t, s1, sign([]byte("secret-a"), toSign))
}

func TestAuthorizationHeaderFormat(t *testing.T) {
	got := authorizationHeader("ak-id", []string{"host", "x-acs-date"}, "deadbeef")
	assert.Equal(t,
		"ACS3-HMAC-SHA256 Credential=ak-id,SignedHeaders=host;x-acs-date,Signature=deadbeef",
		got)
}

func TestEmptyBodyHash(t *testing.T) {
	// Well-known SHA-256 of the empty string.
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		emptyBodyHash)
}
