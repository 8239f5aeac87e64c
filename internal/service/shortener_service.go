package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/notas4int/url-cutter/internal/domain"
	"github.com/notas4int/url-cutter/internal/logger"
	"github.com/notas4int/url-cutter/pkg/generator"
)

const maxAliasAttempts = 5

type LinkRepository interface {
	Create(ctx context.Context, link *domain.Link) error
	ExistsByAlias(ctx context.Context, alias string, now time.Time) (bool, error)
	GetByAlias(ctx context.Context, alias string) (*domain.Link, error)
	Delete(ctx context.Context, id int64) error
}

type CacheRepository interface {
	GetLink(ctx context.Context, alias string) (*domain.Link, error)
	SetLink(ctx context.Context, link *domain.Link, ttl time.Duration) error
	DeleteLink(ctx context.Context, alias string) error
}

type ShortenerService struct {
	linkRepo  LinkRepository
	cacheRepo CacheRepository
	domain    string
	cacheTTL  time.Duration

	now           func() time.Time
	generateAlias func() (string, error)
}

// NewShortenerService builds the service. cacheRepo may be nil, in which case
// every resolve goes to the store.
func NewShortenerService(linkRepo LinkRepository, cacheRepo CacheRepository, domain string, cacheTTL time.Duration) *ShortenerService {
	return &ShortenerService{
		linkRepo:      linkRepo,
		cacheRepo:     cacheRepo,
		domain:        domain,
		cacheTTL:      cacheTTL,
		now:           time.Now,
		generateAlias: generator.GenerateAlias,
	}
}

func (s *ShortenerService) ShortURL(alias string) string {
	return "http://" + s.domain + "/" + alias
}

// Shorten stores a new link for req and returns it. A caller-supplied alias
// that is held by a live link fails with domain.ErrAliasAlreadyUsed; without
// an alias a random one is allocated.
func (s *ShortenerService) Shorten(ctx context.Context, req *domain.CreateLinkRequest) (*domain.Link, error) {
	now := s.now()

	var expiresAt *time.Time
	if ttl := req.TTL(); ttl > 0 {
		t := now.Add(ttl)
		expiresAt = &t
	}

	if req.Alias != "" {
		return s.shortenWithAlias(ctx, req.URL, req.Alias, now, expiresAt)
	}
	return s.shortenWithGeneratedAlias(ctx, req.URL, now, expiresAt)
}

func (s *ShortenerService) shortenWithAlias(ctx context.Context, originalURL, alias string, now time.Time, expiresAt *time.Time) (*domain.Link, error) {
	exists, err := s.linkRepo.ExistsByAlias(ctx, alias, now)
	if err != nil {
		return nil, fmt.Errorf("failed to check alias: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("alias '%s': %w", alias, domain.ErrAliasAlreadyUsed)
	}

	link := s.newLink(originalURL, alias, now, expiresAt)

	err = s.linkRepo.Create(ctx, link)
	if errors.Is(err, domain.ErrAliasConflict) {
		// lost a race with a concurrent request for the same alias
		return nil, fmt.Errorf("alias '%s': %w", alias, domain.ErrAliasAlreadyUsed)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create short url: %w", err)
	}

	logger.FromContext(ctx).Info("Short url created",
		slog.String("alias", alias),
		slog.Bool("custom_alias", true),
	)

	return link, nil
}

func (s *ShortenerService) shortenWithGeneratedAlias(ctx context.Context, originalURL string, now time.Time, expiresAt *time.Time) (*domain.Link, error) {
	log := logger.FromContext(ctx)

	for attempt := 1; attempt <= maxAliasAttempts; attempt++ {
		alias, err := s.generateAlias()
		if err != nil {
			return nil, fmt.Errorf("failed to generate alias: %w", err)
		}

		exists, err := s.linkRepo.ExistsByAlias(ctx, alias, now)
		if err != nil {
			return nil, fmt.Errorf("failed to check alias: %w", err)
		}
		if exists {
			log.Warn("Generated alias collision, retrying", slog.Int("attempt", attempt))
			continue
		}

		link := s.newLink(originalURL, alias, now, expiresAt)

		err = s.linkRepo.Create(ctx, link)
		if errors.Is(err, domain.ErrAliasConflict) {
			log.Warn("Generated alias conflict on insert, retrying", slog.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create short url: %w", err)
		}

		log.Info("Short url created",
			slog.String("alias", alias),
			slog.Bool("custom_alias", false),
		)

		return link, nil
	}

	return nil, fmt.Errorf("%w after %d attempts", domain.ErrAllocationExhausted, maxAliasAttempts)
}

func (s *ShortenerService) newLink(originalURL, alias string, now time.Time, expiresAt *time.Time) *domain.Link {
	return &domain.Link{
		OriginalURL: originalURL,
		Alias:       alias,
		ShortURL:    s.ShortURL(alias),
		ExpiresAt:   expiresAt,
		CreatedAt:   now,
	}
}

// Resolve returns the live link for alias. An expired link is deleted from the
// store and reported once as domain.ErrLinkExpired; later calls see
// domain.ErrLinkNotFound.
func (s *ShortenerService) Resolve(ctx context.Context, alias string) (*domain.Link, error) {
	link, cached := s.lookupCache(ctx, alias)

	if link == nil {
		var err error
		link, err = s.linkRepo.GetByAlias(ctx, alias)
		if errors.Is(err, domain.ErrLinkNotFound) {
			return nil, fmt.Errorf("url '%s': %w", s.ShortURL(alias), domain.ErrLinkNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get original url: %w", err)
		}
	}

	now := s.now()

	if link.IsExpired(now) {
		// by id: a newer link may already hold the alias
		if err := s.linkRepo.Delete(ctx, link.ID); err != nil {
			return nil, fmt.Errorf("failed to delete expired link: %w", err)
		}
		s.evict(ctx, alias)

		logger.FromContext(ctx).Info("Expired link deleted", slog.String("alias", alias))

		return nil, fmt.Errorf("url '%s': %w", link.ShortURL, domain.ErrLinkExpired)
	}

	if !cached {
		s.cacheLink(ctx, link, now)
	}

	return link, nil
}

func (s *ShortenerService) lookupCache(ctx context.Context, alias string) (*domain.Link, bool) {
	if s.cacheRepo == nil {
		return nil, false
	}

	link, err := s.cacheRepo.GetLink(ctx, alias)
	if err != nil {
		logger.FromContext(ctx).Warn("Cache read failed", slog.String("alias", alias), slog.String("error", err.Error()))
		return nil, false
	}

	return link, link != nil
}

func (s *ShortenerService) cacheLink(ctx context.Context, link *domain.Link, now time.Time) {
	if s.cacheRepo == nil {
		return
	}

	ttl := s.cacheTTL
	if link.ExpiresAt != nil {
		if remaining := link.ExpiresAt.Sub(now); remaining < ttl {
			ttl = remaining
		}
	}

	if err := s.cacheRepo.SetLink(ctx, link, ttl); err != nil {
		logger.FromContext(ctx).Warn("Cache write failed", slog.String("alias", link.Alias), slog.String("error", err.Error()))
	}
}

func (s *ShortenerService) evict(ctx context.Context, alias string) {
	if s.cacheRepo == nil {
		return
	}

	if err := s.cacheRepo.DeleteLink(ctx, alias); err != nil {
		logger.FromContext(ctx).Warn("Cache eviction failed", slog.String("alias", alias), slog.String("error", err.Error()))
	}
}
