package httpclient

import (
	"time"

	"github.com/plumemail/netkit/logger"
)

// Log messages shared with the tests.
const (
	msgClientRequest  = "REST client request"
	msgClientResponse = "REST client response"
)

func (c *RestClient) logRequest(method, url string, attempt int, body []byte) {
	event := c.log.Debug().
		Str("method", method).
		Str("url", url).
		Int("attempt", attempt)
	if c.cfg.LogPayloads && len(body) > 0 {
		event = event.Bytes("request_body", truncatePayload(body, c.cfg.MaxPayloadLogBytes))
	}
	event.Msg(msgClientRequest)
}

func (c *RestClient) logResponse(method, url string, status int, elapsed time.Duration, body []byte) {
	var event logger.LogEvent
	if status >= 400 {
		event = c.log.Warn()
	} else {
		event = c.log.Debug()
	}
	event = event.
		Str("method", method).
		Str("url", url).
		Int("status", status).
		Dur("elapsed", elapsed)
	if c.cfg.LogPayloads && len(body) > 0 {
		event = event.Bytes("response_body", truncatePayload(body, c.cfg.MaxPayloadLogBytes))
	}
	event.Msg(msgClientResponse)
}

func truncatePayload(body []byte, limit int) []byte {
	if limit <= 0 || len(body) <= limit {
		return body
	}
	return body[:limit]
}
