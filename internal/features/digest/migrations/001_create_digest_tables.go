package migrations

import (
	"fmt"

	"ainews/internal/core"
)

// Migration001CreateDigestTables creates the article, summary and daily pick tables
func Migration001CreateDigestTables(d core.Dialect) core.Migration {
	pk := d.SerialPrimaryKey()

	return core.Migration{
		Version:     1,
		Name:        "create_digest_tables",
		Description: "Create articles, summaries and daily_picks tables",
		UpSQL: fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS articles (
			id %[1]s,
			url TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			published_at TIMESTAMP,
			og_image TEXT,
			content_text TEXT,
			lang TEXT,
			fetched_at TIMESTAMP NOT NULL,
			social_score REAL NOT NULL DEFAULT 0,
			topic_tags TEXT
		);

		CREATE TABLE IF NOT EXISTS summaries (
			id %[1]s,
			article_id BIGINT NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
			title_vi TEXT NOT NULL,
			bullets_json TEXT NOT NULL,
			so_what_vn TEXT NOT NULL DEFAULT '',
			hashtags TEXT NOT NULL DEFAULT '',
			attribution TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		);

		CREATE TABLE IF NOT EXISTS daily_picks (
			id %[1]s,
			date_key TEXT NOT NULL,
			rank INTEGER NOT NULL,
			article_id BIGINT NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
			summary_id BIGINT NOT NULL REFERENCES summaries(id) ON DELETE CASCADE,
			created_at TIMESTAMP NOT NULL,
			UNIQUE (date_key, rank)
		);

		CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at);
		CREATE INDEX IF NOT EXISTS idx_articles_fetched_at ON articles(fetched_at);
		CREATE INDEX IF NOT EXISTS idx_summaries_article_id ON summaries(article_id);
		CREATE INDEX IF NOT EXISTS idx_daily_picks_date_key ON daily_picks(date_key);
	`, pk),
		DownSQL: `
		DROP INDEX IF EXISTS idx_daily_picks_date_key;
		DROP INDEX IF EXISTS idx_summaries_article_id;
		DROP INDEX IF EXISTS idx_articles_fetched_at;
		DROP INDEX IF EXISTS idx_articles_published_at;

		DROP TABLE IF EXISTS daily_picks;
		DROP TABLE IF EXISTS summaries;
		DROP TABLE IF EXISTS articles;
	`,
	}
}
