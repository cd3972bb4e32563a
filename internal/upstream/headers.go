package upstream

import "net/http"

// defaultUserAgent is a stable, browser-shaped User-Agent string used on
// every upstream request.
const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36"

// BuildHeaders produces the browser-like request headers the component
// design calls for. When usedFallback is true (the vision-fallback model
// was substituted in), the full browser-fingerprint family is added too
// — sec-ch-ua, sec-fetch-*, and a Referer pointing at the chat origin —
// since the fallback path is more likely to draw extra scrutiny
// upstream.
func BuildHeaders(token, cookie, requestID, chatOrigin string, usedFallback bool) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	h.Set("Content-Type", "application/json")
	h.Set("User-Agent", defaultUserAgent)
	h.Set("source", "web")
	h.Set("x-request-id", requestID)
	h.Set("accept", "*/*")
	h.Set("x-accel-buffering", "no")
	if cookie != "" {
		h.Set("Cookie", cookie)
	}

	if usedFallback {
		h.Set("sec-ch-ua", `"Not(A:Brand";v="99", "Google Chrome";v="133", "Chromium";v="133"`)
		h.Set("sec-ch-ua-mobile", "?0")
		h.Set("sec-ch-ua-platform", `"macOS"`)
		h.Set("sec-fetch-dest", "empty")
		h.Set("sec-fetch-mode", "cors")
		h.Set("sec-fetch-site", "same-origin")
		if chatOrigin != "" {
			h.Set("Referer", chatOrigin)
		}
	}

	return h
}
