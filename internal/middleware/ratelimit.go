package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimit caps requests per client IP using a formatted rate like
// "10-M" (10 per minute). Each route gets its own in-memory counter;
// exceeding the limit answers 429.
func RateLimit(formatted string) gin.HandlerFunc {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		panic("invalid rate format: " + formatted)
	}
	return mgin.NewMiddleware(limiter.New(memory.NewStore(), rate))
}
