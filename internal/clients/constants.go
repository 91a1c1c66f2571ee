package clients

import "time"

const (
	MAX_RETRIES      = 5
	INITIAL_BACKOFF  = 1 * time.Second
	MAX_BACKOFF      = 32 * time.Second
	REQUEST_TIMEOUT  = 15 * time.Second
	REQUEST_INTERVAL = 500 * time.Millisecond
	USER_AGENT       = "verity-client/1.0 (+https://github.com/spacesedan/verity)"
)
