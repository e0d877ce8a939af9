// Package checksum locates a release's checksum companion file, parses the
// common line formats found in the wild, and verifies downloaded assets.
//
// Verification is opportunistic: a release without any checksum companion
// is reported as not verified, which is not an error. A companion that
// exists but names no entry for the asset is a hard error.
package checksum

import (
	"bufio"
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/upfetch/upfetch/internal/model"
)

var (
	// ErrUnavailable means the release advertises no checksum companion.
	// Callers treat this as "not verified", not as a failure.
	ErrUnavailable = errors.New("no checksum file available")

	// ErrEntryMissing means a checksum file was found but contains no
	// entry for the asset being verified.
	ErrEntryMissing = errors.New("no checksum entry for asset")

	// ErrMismatch means the computed digest differs from the published one.
	ErrMismatch = errors.New("checksum mismatch")
)

// companionNames is the search order for shared checksum files; a
// per-asset "<name>.sha256" file is tried last.
var companionNames = []string{"checksums.txt", "sha256sums.txt", "sha256sum.txt"}

type algo int

const (
	algoSHA256 algo = iota
	algoSHA512
)

func (a algo) String() string {
	if a == algoSHA512 {
		return "sha512"
	}
	return "sha256"
}

func (a algo) hasher() hash.Hash {
	if a == algoSHA512 {
		return sha512.New()
	}
	return sha256.New()
}

// Entry is one parsed checksum line. Filename is empty for bare-digest
// files that cover a single unnamed asset.
type Entry struct {
	Algo     string
	Filename string
	Digest   string
}

// Downloader fetches a release asset into a directory and returns the
// local path. Implemented by the provider layer.
type Downloader interface {
	DownloadAsset(ctx context.Context, asset model.Asset, destDir string) (string, error)
}

// Verifier checks downloaded assets against their release's checksum
// companion.
type Verifier struct {
	downloader Downloader
	cacheDir   string
}

func NewVerifier(downloader Downloader, cacheDir string) *Verifier {
	return &Verifier{downloader: downloader, cacheDir: cacheDir}
}

// Verify checks assetPath against the checksum companion of release, if
// one exists. Returns nil on a successful match, ErrUnavailable when the
// release has no companion, ErrEntryMissing when the companion names no
// matching entry, and ErrMismatch on digest disagreement.
func (v *Verifier) Verify(ctx context.Context, assetPath string, release *model.Release) error {
	assetName := filepath.Base(assetPath)

	companion, ok := findCompanion(release, assetName)
	if !ok {
		return ErrUnavailable
	}

	checksumPath, err := v.downloader.DownloadAsset(ctx, companion, v.cacheDir)
	if err != nil {
		return fmt.Errorf("downloading checksum file %s: %w", companion.Name, err)
	}

	data, err := os.ReadFile(checksumPath)
	if err != nil {
		return fmt.Errorf("reading checksum file: %w", err)
	}

	entry, err := SelectEntry(Parse(string(data)), assetName)
	if err != nil {
		return err
	}

	return verifyFile(assetPath, entry)
}

func findCompanion(release *model.Release, assetName string) (model.Asset, bool) {
	for _, name := range companionNames {
		if a, ok := release.AssetByName(name); ok {
			return a, true
		}
	}
	return release.AssetByName(assetName + ".sha256")
}

// Parse extracts checksum entries from companion file contents. Lines that
// match none of the known formats, including digests of unrecognized
// length, are skipped silently.
func Parse(contents string) []Entry {
	var entries []Entry

	scanner := bufio.NewScanner(strings.NewReader(contents))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if e, ok := parseLine(line); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// parseLine tries the supported dialects in order:
//
//	digest  filename     (optional * binary marker before the filename)
//	filename: digest
//	ALGO(filename)= digest
//	sha256=digest
//	digest               (bare, applies to the whole companion)
func parseLine(line string) (Entry, bool) {
	if e, ok := parseOpenSSL(line); ok {
		return e, true
	}
	if e, ok := parseAlgoPrefixed(line); ok {
		return e, true
	}
	if e, ok := parseStandard(line); ok {
		return e, true
	}
	if e, ok := parseColon(line); ok {
		return e, true
	}
	return parseBare(line)
}

func parseStandard(line string) (Entry, bool) {
	digest, rest, ok := strings.Cut(line, " ")
	if !ok {
		digest, rest, ok = strings.Cut(line, "\t")
	}
	if !ok {
		return Entry{}, false
	}
	filename := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), "*"))
	return makeEntry(filename, strings.TrimSpace(digest))
}

func parseColon(line string) (Entry, bool) {
	filename, digest, ok := strings.Cut(line, ":")
	if !ok {
		return Entry{}, false
	}
	return makeEntry(strings.TrimSpace(filename), strings.TrimSpace(digest))
}

// parseOpenSSL handles "SHA256(filename)= digest".
func parseOpenSSL(line string) (Entry, bool) {
	lparen := strings.IndexByte(line, '(')
	rparen := strings.IndexByte(line, ')')
	if lparen <= 0 || rparen <= lparen || rparen+1 >= len(line) || line[rparen+1] != '=' {
		return Entry{}, false
	}
	algoName := strings.ToLower(strings.TrimSpace(line[:lparen]))
	if algoName != "sha256" && algoName != "sha512" {
		return Entry{}, false
	}
	filename := strings.TrimSpace(line[lparen+1 : rparen])
	digest := strings.TrimSpace(line[rparen+2:])
	return makeEntry(filename, digest)
}

// parseAlgoPrefixed handles "sha256=digest" with no filename.
func parseAlgoPrefixed(line string) (Entry, bool) {
	algoName, digest, ok := strings.Cut(line, "=")
	if !ok {
		return Entry{}, false
	}
	switch strings.ToLower(strings.TrimSpace(algoName)) {
	case "sha256", "sha512":
		return makeEntry("", strings.TrimSpace(digest))
	default:
		return Entry{}, false
	}
}

func parseBare(line string) (Entry, bool) {
	return makeEntry("", line)
}

func makeEntry(filename, digest string) (Entry, bool) {
	if digest == "" || !isHex(digest) {
		return Entry{}, false
	}
	a, ok := algoForDigest(digest)
	if !ok {
		return Entry{}, false
	}
	return Entry{Algo: a.String(), Filename: filename, Digest: strings.ToLower(digest)}, true
}

// algoForDigest infers the hash function from the digest length.
func algoForDigest(digest string) (algo, bool) {
	switch len(digest) {
	case 64:
		return algoSHA256, true
	case 128:
		return algoSHA512, true
	default:
		return 0, false
	}
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F' {
			continue
		}
		return false
	}
	return len(s) > 0
}

// SelectEntry picks the entry matching assetName. A lone bare-digest entry
// covers any asset. Otherwise exact filename match wins, then basename
// match; no match at all is ErrEntryMissing.
func SelectEntry(entries []Entry, assetName string) (Entry, error) {
	if len(entries) == 0 {
		return Entry{}, fmt.Errorf("%w %q: checksum file is empty or unparseable", ErrEntryMissing, assetName)
	}
	if len(entries) == 1 && entries[0].Filename == "" {
		return entries[0], nil
	}
	for _, e := range entries {
		if e.Filename == assetName {
			return e, nil
		}
	}
	for _, e := range entries {
		if filepath.Base(e.Filename) == assetName {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w %q", ErrEntryMissing, assetName)
}

func verifyFile(path string, entry Entry) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening asset for verification: %w", err)
	}
	defer f.Close()

	a, _ := algoForDigest(entry.Digest)
	hasher := a.hasher()
	if _, err := io.Copy(hasher, f); err != nil {
		return fmt.Errorf("hashing asset: %w", err)
	}

	computed := fmt.Sprintf("%x", hasher.Sum(nil))
	if !strings.EqualFold(computed, entry.Digest) {
		return fmt.Errorf("%w for %s: expected %s, got %s (%s)",
			ErrMismatch, filepath.Base(path), entry.Digest, computed, entry.Algo)
	}
	return nil
}
