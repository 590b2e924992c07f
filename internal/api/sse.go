package api

import (
	"github.com/gin-gonic/gin"
)

// handleEvents holds a long-lived server-sent-events stream open. Frames
// arrive pre-encoded from the broadcaster: typed events for mutations and
// comment lines for keep-alives. The subscription is removed as soon as the
// client goes away or the broadcaster drops us.
func (s *Server) handleEvents(c *gin.Context) {
	handle, frames := s.broadcaster.Subscribe()
	defer s.broadcaster.Unsubscribe(handle)

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	c.Writer.Flush()

	done := c.Request.Context().Done()
	for {
		select {
		case <-done:
			return
		case frame, ok := <-frames:
			if !ok {
				// Dropped by the broadcaster (we stopped draining).
				return
			}
			if _, err := c.Writer.Write(frame); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}
