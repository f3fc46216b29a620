package query

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// SortColumns maps the sortable feed fields exposed by the API to columns.
var SortColumns = map[string]string{
	"createdAt": "v.created_at",
	"updatedAt": "v.updated_at",
	"title":     "v.title",
	"views":     "v.views",
	"duration":  "v.duration",
}

// FeedFilter narrows and orders the published video feed.
type FeedFilter struct {
	OwnerID string
	Search  string
	SortBy  string
	// SortDir is 1 (ascending), -1 (descending) or 0 (unset).
	SortDir int
	Page    int
	Limit   int
}

// Feed builds one page of the published video feed with owner identity.
//
// A recognised SortBy with SortDir of exactly 1 or -1 becomes the primary
// ordering; creation time descending is always appended as the tiebreak.
// Search matches title or description, case-insensitively.
func Feed(f FeedFilter) Plan {
	where := []sq.Sqlizer{sq.Eq{"v.is_published": true}}
	if f.OwnerID != "" {
		where = append(where, sq.Eq{"v.owner_id": f.OwnerID})
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		pattern := "%" + escapeLike(term) + "%"
		where = append(where, sq.Or{
			sq.ILike{"v.title": pattern},
			sq.ILike{"v.description": pattern},
		})
	}

	var order []SortKey
	if col, ok := SortColumns[f.SortBy]; ok && (f.SortDir == 1 || f.SortDir == -1) {
		order = append(order, SortKey{Column: col, Desc: f.SortDir == -1})
	}
	order = append(order, SortKey{Column: "v.created_at", Desc: true})

	return Plan{
		Name:   "video_feed",
		From:   "videos v",
		Fields: feedFields(),
		Joins:  []Join{{Table: "users o", On: "o.id = v.owner_id"}},
		Where:  where,
		Order:  order,
		Limit:  uint64(f.Limit),
		Offset: Offset(f.Page, f.Limit),
	}
}

func feedFields() []Field {
	return []Field{
		Col("v.id"),
		Col("v.video_url"),
		Col("v.thumbnail_url"),
		Col("v.title"),
		Col("v.description"),
		Col("v.duration"),
		Col("v.views"),
		Col("v.created_at"),
		Col("o.id"),
		Col("o.username"),
		Col("o.full_name"),
		Col("o.avatar_url"),
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
