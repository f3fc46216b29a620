package models

import "time"

// PublicUser is the identity subset of a user that may be shown to anyone.
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
}

// Profile is a user stripped of credentials.
type Profile struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ProfileOf projects the public fields of a user.
func ProfileOf(u User) Profile {
	return Profile{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar.URL,
		CoverImage: u.CoverImage.URL,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// ChannelProfile is the public view of a user acting as a content owner.
type ChannelProfile struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	FullName          string    `json:"fullName"`
	Avatar            string    `json:"avatar"`
	CoverImage        string    `json:"coverImage"`
	SubscribersCount  int64     `json:"subscribersCount"`
	SubscribedToCount int64     `json:"subscribedToCount"`
	IsSubscribed      bool      `json:"isSubscribed"`
	CreatedAt         time.Time `json:"createdAt"`
}

// VideoOwner is the owner block embedded in a video detail.
type VideoOwner struct {
	PublicUser
	SubscribersCount int64 `json:"subscribersCount"`
}

// CommentView is a comment joined with its author's identity.
type CommentView struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	Owner     PublicUser `json:"owner"`
	CreatedAt time.Time  `json:"createdAt"`
}

// VideoDetail is the fully composed view of a single video.
type VideoDetail struct {
	ID            string        `json:"id"`
	VideoFile     string        `json:"videoFile"`
	Thumbnail     string        `json:"thumbnail"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Duration      float64       `json:"duration"`
	Views         int64         `json:"views"`
	IsPublished   bool          `json:"isPublished"`
	Owner         VideoOwner    `json:"owner"`
	LikesCount    int64         `json:"likesCount"`
	IsLiked       bool          `json:"isLiked"`
	Comments      []CommentView `json:"comments"`
	CommentsCount int64         `json:"commentsCount"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// FeedItem is a published video joined with its owner identity.
type FeedItem struct {
	ID          string     `json:"id"`
	VideoFile   string     `json:"videoFile"`
	Thumbnail   string     `json:"thumbnail"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Duration    float64    `json:"duration"`
	Views       int64      `json:"views"`
	Owner       PublicUser `json:"owner"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Page is one slice of a paginated listing.
type Page[T any] struct {
	Items       []T   `json:"items"`
	TotalItems  int64 `json:"totalItems"`
	Limit       int   `json:"limit"`
	TotalPages  int   `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
	NextPage    *int  `json:"nextPage"`
	PrevPage    *int  `json:"prevPage"`
}
