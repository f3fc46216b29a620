package query

import sq "github.com/Masterminds/squirrel"

// VideoDetail builds the single-video view: video fields, owner identity with
// subscriber count, like count, viewer-liked flag and comment count.
func VideoDetail(videoID, viewerID string) Plan {
	return Plan{
		Name: "video_detail",
		From: "videos v",
		Fields: []Field{
			Col("v.id"),
			Col("v.video_url"),
			Col("v.thumbnail_url"),
			Col("v.title"),
			Col("v.description"),
			Col("v.duration"),
			Col("v.views"),
			Col("v.is_published"),
			Col("v.created_at"),
			Col("v.updated_at"),
			Col("o.id"),
			Col("o.username"),
			Col("o.full_name"),
			Col("o.avatar_url"),
			Computed("owner_subscribers_count", "(SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = o.id)"),
			Computed("likes_count", "(SELECT COUNT(*) FROM likes l WHERE l.video_id = v.id)"),
			viewerExists("is_liked", "SELECT 1 FROM likes l WHERE l.video_id = v.id AND l.liked_by = ?", viewerID),
			Computed("comments_count", "(SELECT COUNT(*) FROM comments c WHERE c.video_id = v.id)"),
		},
		Joins: []Join{{Table: "users o", On: "o.id = v.owner_id"}},
		Where: []sq.Sqlizer{sq.Eq{"v.id": videoID}},
	}
}

// VideoComments lists a video's comments, newest first, with commenter identity.
func VideoComments(videoID string) Plan {
	return Plan{
		Name: "video_comments",
		From: "comments c",
		Fields: []Field{
			Col("c.id"),
			Col("c.content"),
			Col("c.created_at"),
			Col("u.id"),
			Col("u.username"),
			Col("u.full_name"),
			Col("u.avatar_url"),
		},
		Joins: []Join{{Table: "users u", On: "u.id = c.owner_id"}},
		Where: []sq.Sqlizer{sq.Eq{"c.video_id": videoID}},
		Order: []SortKey{{Column: "c.created_at", Desc: true}},
	}
}

// WatchHistory lists the videos a user has opened, most recent first.
func WatchHistory(userID string) Plan {
	return Plan{
		Name:   "watch_history",
		From:   "watch_history w",
		Fields: feedFields(),
		Joins: []Join{
			{Table: "videos v", On: "v.id = w.video_id"},
			{Table: "users o", On: "o.id = v.owner_id"},
		},
		Where: []sq.Sqlizer{sq.Eq{"w.user_id": userID}},
		Order: []SortKey{{Column: "w.watched_at", Desc: true}},
	}
}
