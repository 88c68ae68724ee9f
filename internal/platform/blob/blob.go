// Package blob issues time-limited read URLs for objects held in external storage.
package blob

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
)

var ErrNotConfigured = errors.New("blob storage not configured")

type Signer interface {
	SignedReadURL(ctx context.Context, ownerID, filename string) (string, error)
}

// HMACSigner builds URLs of the form base/owner/file?expires=..&signature=..
// that the storage gateway verifies with the shared key.
type HMACSigner struct {
	BaseURL string
	Key     []byte
	TTL     time.Duration
	Now     func() time.Time
}

func NewHMACSigner(baseURL, key string, ttl time.Duration) *HMACSigner {
	return &HMACSigner{BaseURL: strings.TrimRight(baseURL, "/"), Key: []byte(key), TTL: ttl, Now: time.Now}
}

func (s *HMACSigner) SignedReadURL(ctx context.Context, ownerID, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s == nil || s.BaseURL == "" || len(s.Key) == 0 {
		return "", ErrNotConfigured
	}
	if strings.TrimSpace(ownerID) == "" || strings.TrimSpace(filename) == "" {
		return "", errors.New("owner and filename are required")
	}
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return "", err
	}
	objectPath := path.Join("/", url.PathEscape(ownerID), url.PathEscape(path.Base(filename)))
	expires := s.Now().Add(s.TTL).Unix()

	mac := hmac.New(sha256.New, s.Key)
	mac.Write([]byte(objectPath + "\n" + strconv.FormatInt(expires, 10)))

	base.Path = strings.TrimRight(base.Path, "/") + objectPath
	q := base.Query()
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("signature", hex.EncodeToString(mac.Sum(nil)))
	base.RawQuery = q.Encode()
	return base.String(), nil
}

// Verify checks a signature produced by SignedReadURL.
func (s *HMACSigner) Verify(objectPath string, expires int64, signature string) bool {
	if s.Now().Unix() > expires {
		return false
	}
	mac := hmac.New(sha256.New, s.Key)
	mac.Write([]byte(objectPath + "\n" + strconv.FormatInt(expires, 10)))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
