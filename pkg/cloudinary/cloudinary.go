package cloudinary

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrMissingCredentials is returned when any Cloudinary credential is empty.
var ErrMissingCredentials = fmt.Errorf("cloudinary credentials must be provided")

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Configured reports whether every credential is present.
func (c Config) Configured() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// Store keeps course files in Cloudinary. It satisfies the course file uploader contract.
type Store struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
}

// New constructs a Cloudinary-backed file store.
func New(cfg Config, logger zerolog.Logger) (*Store, error) {
	if !cfg.Configured() {
		return nil, ErrMissingCredentials
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Store{
		client: cld,
		folder: strings.Trim(cfg.Folder, "/"),
		logger: logger.With().Str("component", "course_file_store").Logger(),
	}, nil
}

// Upload stores the file as a raw or media asset and returns its secure URL.
func (s *Store) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	params := uploader.UploadParams{
		Folder:       s.folder,
		PublicID:     publicID(name),
		ResourceType: "auto",
	}

	result, err := s.client.Upload.Upload(ctx, reader, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload course file: %w", err)
	}
	if result.SecureURL == "" {
		return "", fmt.Errorf("failed to upload course file: empty url for %s", result.PublicID)
	}

	s.logger.Info().Str("public_id", result.PublicID).Msg("course file stored")

	return result.SecureURL, nil
}

// publicID keeps a readable slug of the original name and appends a random suffix so two uploads of
// the same file name never overwrite each other.
func publicID(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, base)

	base = strings.Trim(base, "-")
	if base == "" {
		base = "course-file"
	}

	return fmt.Sprintf("%s-%s", strings.ToLower(base), uuid.NewString()[:8])
}
