// Package inline answers inline queries with the requester's own
// stickers, ranked by fuzzy match against the query text.
package inline

import (
	"context"
	"fmt"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/stickerkid/internal/logger"
	"github.com/m3rciful/stickerkid/internal/sticker"
	"github.com/m3rciful/stickerkid/internal/telegram/ui"
)

// placeholderText is the title and body of the article returned when a
// query matches nothing. Unlike the chat reply, it carries no period.
const placeholderText = "Sticker not found"

// Responder serves inline queries for a single requester. Instances are
// short-lived: the inline session dispatcher discards them shortly after
// the user stops typing.
type Responder struct {
	owner   int64
	store   sticker.Store
	queries int
}

func NewResponder(owner int64, store sticker.Store) *Responder {
	return &Responder{owner: owner, store: store}
}

// Respond builds the answer for one inline query. The result set is
// never empty: when nothing matches, a single placeholder article is
// returned so the user sees feedback instead of a blank popup.
func (r *Responder) Respond(ctx context.Context, query string) (tele.Results, error) {
	r.queries++

	matches, err := r.store.Search(ctx, r.owner, query)
	if err != nil {
		return nil, fmt.Errorf("inline search: %w", err)
	}

	logger.INL.Debug("inline query answered",
		slog.String("event", "inline.query"),
		slog.Int64("owner_id", r.owner),
		slog.String("query", logger.Sanitize(query)),
		slog.Int("matches", len(matches)),
		slog.Int("queries", r.queries),
	)

	if len(matches) == 0 {
		return tele.Results{
			ui.NewSimpleArticleResult("nf", placeholderText, placeholderText),
		}, nil
	}

	results := make(tele.Results, 0, len(matches))
	for _, m := range matches {
		id := fmt.Sprintf("s%d", m.LocalID)
		results = append(results, ui.NewCachedStickerResult(id, m.Ref))
	}
	return results, nil
}

// Queries reports how many queries this session has answered.
func (r *Responder) Queries() int { return r.queries }
