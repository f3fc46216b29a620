package models

import "time"

// Asset references a binary object held by the remote asset store.
type Asset struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// IsZero reports whether the asset reference is unset.
func (a Asset) IsZero() bool {
	return a.URL == "" && a.PublicID == ""
}

// User represents an account within the vidhub platform.
type User struct {
	ID               string     `json:"id"`
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	FullName         string     `json:"fullName"`
	Avatar           Asset      `json:"avatar"`
	CoverImage       Asset      `json:"coverImage"`
	Password         string     `json:"-"`
	RefreshToken     string     `json:"-"`
	RefreshExpiresAt *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// Video is an uploaded piece of content owned by a user.
type Video struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner"`
	VideoFile   Asset     `json:"videoFile"`
	Thumbnail   Asset     `json:"thumbnail"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    float64   `json:"duration"`
	Views       int64     `json:"views"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Like records that a user liked a video.
type Like struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"video"`
	LikedBy   string    `json:"likedBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comment is a user's remark on a video.
type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"video"`
	OwnerID   string    `json:"owner"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Subscription links a subscriber to a channel (the user being subscribed to).
type Subscription struct {
	ID           string    `json:"id"`
	ChannelID    string    `json:"channel"`
	SubscriberID string    `json:"subscriber"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
