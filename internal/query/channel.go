package query

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// ChannelProfile builds the channel view for a username: the public profile
// plus subscriber, subscription and viewer-subscribed computations.
func ChannelProfile(username, viewerID string) Plan {
	return Plan{
		Name: "channel_profile",
		From: "users u",
		Fields: []Field{
			Col("u.id"),
			Col("u.username"),
			Col("u.email"),
			Col("u.full_name"),
			Col("u.avatar_url"),
			Col("u.cover_image_url"),
			Col("u.created_at"),
			Computed("subscribers_count", "(SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id)"),
			Computed("subscribed_to_count", "(SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id)"),
			viewerExists("is_subscribed", "SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = ?", viewerID),
		},
		Where: []sq.Sqlizer{sq.Eq{"u.username": strings.ToLower(strings.TrimSpace(username))}},
	}
}
