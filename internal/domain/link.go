package domain

import "time"

type Link struct {
	ID          int64      `json:"id"`
	OriginalURL string     `json:"original_url"`
	Alias       string     `json:"alias"`
	ShortURL    string     `json:"short_url"`
	ExpiresAt   *time.Time `json:"expires_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// IsExpired reports whether the link has an expiration time strictly before now.
func (l *Link) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}

type CreateLinkRequest struct {
	URL          string `json:"url" validate:"required,url"`
	Alias        string `json:"alias,omitempty" validate:"omitempty,max=64,alias,notreserved"`
	ExpiredAfter *int64 `json:"expiredAfter,omitempty" validate:"omitempty,gte=1,lte=315360000"`
}

// TTL converts ExpiredAfter into a duration. Zero means the link never expires.
func (r *CreateLinkRequest) TTL() time.Duration {
	if r.ExpiredAfter == nil {
		return 0
	}
	return time.Duration(*r.ExpiredAfter) * time.Second
}
