package storage

import (
	_ "embed"
)

const (
	insertSessionSQL = `
INSERT INTO sessions (
                      created_at,
                      source,
                      mode,
                      config)
VALUES (CURRENT_TIMESTAMP, ?, ?, ?)`

	selectSessionSQL = `
SELECT
    id,
    created_at,
    source,
    mode,
    config
FROM sessions
WHERE
    id = ?`

	selectSessionsSQL = `
SELECT
    id,
    created_at,
    source,
    mode,
    config
FROM sessions
ORDER BY created_at`

	insertBinSQL = `
INSERT INTO bins (session_id,
                  date,
                  time,
                  frequency,
                  frequency_hz,
                  bin_size,
                  num_samples,
                  dbm_avg)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	selectBinsSQL = `
SELECT
    date,
    time,
    frequency,
    frequency_hz,
    bin_size,
    num_samples,
    dbm_avg
FROM bins
WHERE
    session_id = ?
ORDER BY frequency_hz`
)

//go:embed schema.sql
var schemaSQL string
