package gateway

import (
	"log"
	"time"
)

func logRequest(method, url string) {
	log.Printf("[gateway] %s %s", method, url)
}

func logResponse(statusCode int, duration time.Duration) {
	log.Printf("[gateway] response status=%d duration=%dms",
		statusCode, duration.Milliseconds())
}

func logError(operation string, err error) {
	log.Printf("[gateway] %s error: %v", operation, err)
}
