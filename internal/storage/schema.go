package storage

// SQL schemas for the local cache.
// The same statements run on SQLite and DuckDB, so only portable types are
// used: TEXT, BIGINT, BOOLEAN, BLOB. All timestamps are unix seconds.
// 6 tables: identities, matches, participant_stats, ranked_cache,
// sync_metadata, settings

const identitiesSchema = `
CREATE TABLE IF NOT EXISTS identities (
    puuid TEXT PRIMARY KEY,
    game_name TEXT NOT NULL,
    tag_line TEXT NOT NULL,
    summoner_id TEXT,
    account_id TEXT,
    summoner_level BIGINT NOT NULL,
    profile_icon_id BIGINT NOT NULL,
    last_updated BIGINT NOT NULL
);
`

const matchesSchema = `
CREATE TABLE IF NOT EXISTS matches (
    match_id TEXT PRIMARY KEY,

    -- Denormalized from the payload for querying
    game_creation BIGINT NOT NULL,
    game_duration BIGINT NOT NULL,
    game_mode TEXT NOT NULL,
    game_type TEXT NOT NULL,
    queue_id BIGINT NOT NULL,
    map_id BIGINT NOT NULL,
    platform_id TEXT NOT NULL,
    game_version TEXT NOT NULL,

    -- Upstream JSON, byte for byte
    payload BLOB NOT NULL,

    created_at BIGINT NOT NULL
);
`

const matchesIndexes = `
CREATE INDEX IF NOT EXISTS idx_matches_game_creation ON matches(game_creation);
`

const participantStatsSchema = `
CREATE TABLE IF NOT EXISTS participant_stats (
    id TEXT PRIMARY KEY,
    match_id TEXT NOT NULL REFERENCES matches(match_id),
    puuid TEXT NOT NULL,

    champion_id BIGINT NOT NULL,
    champion_name TEXT NOT NULL,
    team_id BIGINT NOT NULL,
    role TEXT NOT NULL,
    win BOOLEAN NOT NULL,

    kills BIGINT NOT NULL,
    deaths BIGINT NOT NULL,
    assists BIGINT NOT NULL,
    damage_dealt BIGINT NOT NULL,
    damage_taken BIGINT NOT NULL,
    gold_earned BIGINT NOT NULL,
    cs BIGINT NOT NULL,
    vision_score BIGINT NOT NULL,

    created_at BIGINT NOT NULL,

    UNIQUE (match_id, puuid)
);
`

const participantStatsIndexes = `
CREATE INDEX IF NOT EXISTS idx_participant_stats_puuid ON participant_stats(puuid);
CREATE INDEX IF NOT EXISTS idx_participant_stats_match_id ON participant_stats(match_id);
`

const rankedCacheSchema = `
CREATE TABLE IF NOT EXISTS ranked_cache (
    puuid TEXT PRIMARY KEY,
    tier TEXT,
    rank_value TEXT,
    league_points BIGINT,
    wins BIGINT,
    losses BIGINT,
    queue_type TEXT NOT NULL,
    cached_at BIGINT NOT NULL
);
`

const syncMetadataSchema = `
CREATE TABLE IF NOT EXISTS sync_metadata (
    puuid TEXT PRIMARY KEY,
    last_match_id TEXT,
    last_fetched BIGINT NOT NULL,
    total_cached BIGINT NOT NULL
);
`

const settingsSchema = `
CREATE TABLE IF NOT EXISTS settings (
    name TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at BIGINT NOT NULL
);
`
