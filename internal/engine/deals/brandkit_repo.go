package deals

import (
	"database/sql"
	"encoding/json"

	"sponsorops/internal/platform/models"
)

// Brand kit list fields are native []string in the model; JSON enters the
// picture only at this storage boundary.

func (r *Repository) GetBrandKit(dealID string) (*models.BrandKit, error) {
	bk := &models.BrandKit{}
	var hashtags, requiredTags, doItems, dontItems, assets string
	err := r.db.QueryRow(`
		SELECT id, deal_id, guidelines_md, hashtags, required_tags, do_items, dont_items, assets, updated_at
		FROM brand_kits WHERE deal_id = ?
	`, dealID).Scan(&bk.ID, &bk.DealID, &bk.GuidelinesMD, &hashtags, &requiredTags, &doItems, &dontItems, &assets, &bk.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	bk.Hashtags = decodeList(hashtags)
	bk.RequiredTags = decodeList(requiredTags)
	bk.Do = decodeList(doItems)
	bk.Dont = decodeList(dontItems)
	bk.Assets = decodeList(assets)
	return bk, nil
}

func (r *Repository) UpsertBrandKit(bk *models.BrandKit) error {
	_, err := r.db.Exec(`
		INSERT INTO brand_kits (id, deal_id, guidelines_md, hashtags, required_tags, do_items, dont_items, assets, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(deal_id) DO UPDATE SET
			guidelines_md = excluded.guidelines_md,
			hashtags = excluded.hashtags,
			required_tags = excluded.required_tags,
			do_items = excluded.do_items,
			dont_items = excluded.dont_items,
			assets = excluded.assets,
			updated_at = excluded.updated_at
	`, bk.ID, bk.DealID, bk.GuidelinesMD,
		encodeList(bk.Hashtags), encodeList(bk.RequiredTags),
		encodeList(bk.Do), encodeList(bk.Dont), encodeList(bk.Assets), bk.UpdatedAt)
	return err
}

func encodeList(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return string(b)
}

func decodeList(raw string) []string {
	var items []string
	if raw == "" {
		return []string{}
	}
	if err := json.Unmarshal([]byte(raw), &items); err != nil || items == nil {
		return []string{}
	}
	return items
}
