package uploads

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

var ErrFileNameRequired = errors.New("file_name is required")

// ObjectStore is a storage bucket backend that can sign uploads and delete objects.
type ObjectStore interface {
	CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error)
	DeleteObject(ctx context.Context, bucket, path string) error
}

// ImageCleaner removes the stored images that ownerID uploaded behind a set of public URLs.
// Implemented inline by Service and asynchronously by the task dispatcher.
type ImageCleaner interface {
	CleanupImages(ctx context.Context, ownerID string, urls []string) error
}

// ImageOwnership reports whether a public URL points at an object ownerID uploaded.
type ImageOwnership interface {
	OwnedBy(ownerID, publicURL string) bool
}

// Service signs listing image uploads and cleans up their objects.
type Service struct {
	Store         ObjectStore
	Bucket        string
	PublicBaseURL string
	Now           func() time.Time
}

// UploadResult is returned to the browser, which PUTs the file to UploadURL and stores PublicURL
// on the listing.
type UploadResult struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
	Path      string `json:"path"`
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFileName keeps the base name and replaces anything outside [A-Za-z0-9._-] with "-".
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	name = unsafeNameChars.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-.")
	if len(name) > 100 {
		name = name[len(name)-100:]
	}
	return name
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// OwnerPrefix is the object path prefix of every upload signed for ownerID.
func OwnerPrefix(ownerID string) string {
	return "listings/" + ownerID + "/"
}

// GetSignedUploadURL signs an upload under listings/<ownerID>/.
func (s *Service) GetSignedUploadURL(ctx context.Context, ownerID, fileName string) (*UploadResult, error) {
	clean := SanitizeFileName(fileName)
	if clean == "" {
		return nil, ErrFileNameRequired
	}
	objectPath := fmt.Sprintf("%s%d-%s", OwnerPrefix(ownerID), s.now().UnixMilli(), clean)

	signedURL, err := s.Store.CreateSignedUploadURL(ctx, s.Bucket, objectPath)
	if err != nil {
		return nil, err
	}
	return &UploadResult{
		UploadURL: signedURL,
		PublicURL: s.PublicURL(objectPath),
		Path:      objectPath,
	}, nil
}

// PublicURL returns the public address of objectPath.
func (s *Service) PublicURL(objectPath string) string {
	return strings.TrimRight(s.PublicBaseURL, "/") + "/" + objectPath
}

// ObjectPath maps a public URL back to its object path. URLs outside this bucket report false.
func (s *Service) ObjectPath(publicURL string) (string, bool) {
	prefix := strings.TrimRight(s.PublicBaseURL, "/") + "/"
	if s.PublicBaseURL == "" || !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	p := strings.TrimPrefix(publicURL, prefix)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return p, p != ""
}

// OwnedBy reports whether publicURL is an object of this bucket under ownerID's upload prefix.
func (s *Service) OwnedBy(ownerID, publicURL string) bool {
	if ownerID == "" {
		return false
	}
	objectPath, ok := s.ObjectPath(publicURL)
	if !ok || strings.Contains(objectPath, "..") {
		return false
	}
	return strings.HasPrefix(objectPath, OwnerPrefix(ownerID))
}

// CleanupImages deletes the objects behind urls that ownerID uploaded. Foreign URLs and other
// users' objects are skipped and missing objects are not errors, so the call can be repeated
// safely. The first failure is returned after all deletions were attempted.
func (s *Service) CleanupImages(ctx context.Context, ownerID string, urls []string) error {
	var firstErr error
	for _, u := range urls {
		if !s.OwnedBy(ownerID, u) {
			continue
		}
		objectPath, _ := s.ObjectPath(u)
		if err := s.Store.DeleteObject(ctx, s.Bucket, objectPath); err != nil {
			log.Warn().Err(err).Str("path", objectPath).Msg("uploads: failed to delete object")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
