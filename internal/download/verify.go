package download

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/adamancini/hoist/internal/types"
)

// Verifier decides whether a finished transfer is complete.
type Verifier interface {
	// Expected returns the byte count the response announces, or -1 when the
	// verifier does not care.
	Expected(resp *http.Response) int64
	// Verify checks the bytes actually written against the expectation.
	Verify(target Target, written int64) error
}

// NoVerify accepts any transfer that reached end of stream.
type NoVerify struct{}

// Expected implements Verifier.
func (NoVerify) Expected(*http.Response) int64 { return -1 }

// Verify implements Verifier.
func (NoVerify) Verify(Target, int64) error { return nil }

// LengthCheck requires the bytes written to equal the Content-Length header.
// A missing or unparseable header counts as zero.
type LengthCheck struct{}

// Expected implements Verifier.
func (LengthCheck) Expected(resp *http.Response) int64 {
	return parseContentLength(resp.Header.Get("Content-Length"))
}

// Verify implements Verifier.
func (LengthCheck) Verify(target Target, written int64) error {
	if written != target.ExpectedLength {
		return types.Errorf(types.ErrIntegrity, "download",
			"body length %d doesn't match content length %d for %s", written, target.ExpectedLength, target.Path)
	}
	return nil
}

// VerifierFor returns the verifier for mode.
func VerifierFor(mode types.VerifyMode) Verifier {
	if mode.Default() == types.VerifyLength {
		return LengthCheck{}
	}
	return NoVerify{}
}

func parseContentLength(v string) int64 {
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 63)
	if err != nil {
		return 0
	}
	return int64(n)
}
